package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sitestock/supplytrack/internal/core"
	"github.com/sitestock/supplytrack/internal/engine"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeJSON reads the request body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", errBadBody, fieldErrors(err))
	}
	return nil
}

// fieldErrors lists failed fields as "field:tag" pairs in a stable order.
func fieldErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Namespace()+":"+fe.Tag())
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// actorFrom returns the authenticated actor of the request.
func actorFrom(r *http.Request) (engine.Actor, error) {
	a, ok := core.ActorFromContext(r.Context())
	if !ok {
		return engine.Actor{}, core.ErrUnauthorized
	}
	return a, nil
}

func parseScope(raw string) (engine.Scope, error) {
	scope := engine.Scope(strings.ToLower(strings.TrimSpace(raw)))
	if !scope.Valid() {
		return "", fmt.Errorf("%w: unknown inventory scope %q", engine.ErrInvalidInput, raw)
	}
	return scope, nil
}
