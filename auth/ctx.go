package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var actorCtxKey = &contextKey{"actor"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// ActorContext is the request scoped authenticated identity. It carries the
// minimal fields downstream handlers need, read fresh from the store by the
// guard; never the password hash.
type ActorContext struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// ActorRouterKey is the router locals key where the guard stores the actor.
const ActorRouterKey = "actor"

// WithActorContext sets the ActorContext in the given context
func WithActorContext(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext finds the authenticated actor in the standard context.
func ActorFromContext(ctx context.Context) (*ActorContext, bool) {
	raw, ok := ctx.Value(actorCtxKey).(*ActorContext)
	return raw, ok
}

// ActorFromRouterContext finds the authenticated actor in the router context.
func ActorFromRouterContext(ctx router.Context) (*ActorContext, bool) {
	raw := ctx.Locals(ActorRouterKey)
	if raw == nil {
		return nil, false
	}
	actor, ok := raw.(*ActorContext)
	return actor, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}
