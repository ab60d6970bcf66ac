package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sitestock/supplytrack/internal/config"
	"github.com/sitestock/supplytrack/internal/core"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/logging"
)

// Headers read by APIKeyAuth.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// APIKeyAuth resolves the X-API-Key header to the actor it was issued to and
// stores that actor in the request context.
//
// When required is false, requests without a key may name their actor with
// the X-Actor-ID and X-Actor-Role headers. This is meant for local
// development only.
func APIKeyAuth(keys []config.APIKey, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := resolveActor(r, keys, required)
			if !ok {
				slog.Warn("auth: rejected request",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"has_key", r.Header.Get(HeaderAPIKey) != "",
				)
				unauthorized(w)
				return
			}

			ctx := core.ContextWithActor(r.Context(), actor)
			ctx = logging.ContextWithAttrs(ctx, "actor_id", actor.ID, "actor_role", string(actor.Role))
			Publish(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveActor(r *http.Request, keys []config.APIKey, required bool) (engine.Actor, bool) {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		k, ok := matchAPIKey(key, keys)
		if !ok {
			return engine.Actor{}, false
		}
		return engine.Actor{ID: k.ActorID, Role: engine.Role(k.Role)}, true
	}
	if required {
		return engine.Actor{}, false
	}

	actor := engine.Actor{
		ID:   r.Header.Get(HeaderActorID),
		Role: engine.Role(r.Header.Get(HeaderActorRole)),
	}
	if actor.ID == "" || !actor.Role.Valid() {
		return engine.Actor{}, false
	}
	return actor, true
}

// matchAPIKey finds the configured entry for key. Every entry is compared in
// constant time so the timing does not depend on which key matched.
func matchAPIKey(key string, keys []config.APIKey) (config.APIKey, bool) {
	var (
		found config.APIKey
		hit   int
	)
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k.Key)) == 1 {
			found = k
			hit = 1
		}
	}
	return found, hit == 1
}

func unauthorized(w http.ResponseWriter) {
	msg := core.MapError(core.ErrUnauthorized)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
