package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
)

type supplyRequestBody struct {
	WarehouseID       string           `json:"warehouseId" validate:"required"`
	ItemName          string           `json:"itemName" validate:"required"`
	RequestedQuantity *decimal.Decimal `json:"requestedQuantity" validate:"required"`
	Unit              string           `json:"unit"`
}

func (s *Server) handleCreateSupplyRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body supplyRequestBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	req, err := s.service.CreateSupplyRequest(r.Context(), actor, engine.SupplyRequestInput{
		SiteID:            chi.URLParam(r, "siteID"),
		WarehouseID:       body.WarehouseID,
		ItemName:          body.ItemName,
		RequestedQuantity: *body.RequestedQuantity,
		Unit:              body.Unit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// handleListSupplyRequests filters by the site, warehouse and status query
// parameters.
func (s *Server) handleListSupplyRequests(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	reqs, err := s.service.ListSupplyRequests(r.Context(), store.RequestFilter{
		SiteID:      q.Get("site"),
		WarehouseID: q.Get("warehouse"),
		Status:      engine.RequestStatus(q.Get("status")),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

type approveBody struct {
	TransferQuantity *decimal.Decimal `json:"transferQuantity" validate:"required"`
}

// handleApproveTransfer approves a request, possibly for less than was asked.
// Repeating an approval returns the stored request with alreadyResolved set.
func (s *Server) handleApproveTransfer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body approveBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	tr, err := s.service.ApproveTransfer(r.Context(), actor, chi.URLParam(r, "id"), *body.TransferQuantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tr, err := s.service.RejectTransfer(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}
