package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	scope, err := parseScope(chi.URLParam(r, "scope"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	entries, err := s.service.ListEntries(r.Context(), actor, scope, chi.URLParam(r, "ownerID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type siteSupplyBody struct {
	Name     string           `json:"name" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
	Unit     string           `json:"unit"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency string           `json:"currency,omitempty" validate:"omitempty,len=3"`
}

func (s *Server) handleCreateSiteSupply(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body siteSupplyBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := s.service.CreateSiteSupply(r.Context(), actor, engine.SiteSupplyInput{
		SiteID:   chi.URLParam(r, "siteID"),
		Name:     body.Name,
		Quantity: *body.Quantity,
		Unit:     body.Unit,
		Price:    body.Price,
		Currency: body.Currency,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEditSiteSupply(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var edit engine.DetailsEdit
	if err := s.decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := s.service.EditSiteSupplyDetails(r.Context(), actor, chi.URLParam(r, "id"), edit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type priceBody struct {
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Currency string           `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// handleSetPrice prices a site supply.
func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body priceBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := s.service.SetPrice(r.Context(), actor, chi.URLParam(r, "id"), *body.Price, body.Currency)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleSetCurrentPrice refreshes the market price of warehouse stock.
func (s *Server) handleSetCurrentPrice(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body priceBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := s.service.SetCurrentPrice(r.Context(), actor, chi.URLParam(r, "id"), *body.Price)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
