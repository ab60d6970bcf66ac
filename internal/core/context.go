package core

import (
	"context"

	"github.com/sitestock/supplytrack/internal/engine"
)

type contextKey string

const ctxKeyActor contextKey = "actor"

// ContextWithActor stores the authenticated actor in ctx.
func ContextWithActor(ctx context.Context, a engine.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (engine.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(engine.Actor)
	return a, ok
}
