package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/saudelab/clinica-api/middleware/jwtware"
)

// UserDirectory is the single lookup the request guard performs.
type UserDirectory interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// DirectoryGate admits token bearers by re-reading their directory record on
// every guarded request. A valid signature is necessary but not sufficient:
// the account must still exist and still be active. Deactivation and role
// changes therefore take effect on the next request, without waiting for the
// token to expire.
type DirectoryGate struct {
	store  UserDirectory
	logger Logger
}

func NewDirectoryGate(store UserDirectory) *DirectoryGate {
	return &DirectoryGate{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger sets the provided logger
func (g *DirectoryGate) WithLogger(logger Logger) *DirectoryGate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Admit performs exactly one directory read and returns the request actor.
// Unknown and inactive accounts both fail as unauthenticated.
func (g *DirectoryGate) Admit(ctx context.Context, claims AuthClaims) (*ActorContext, error) {
	identifier := claims.UserID()
	if identifier == "" {
		return nil, ErrIdentityNotFound
	}

	user, err := g.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			g.logger.Info("guard rejected unknown subject", "subject", identifier)
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "account directory lookup failed")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if !user.Active {
		g.logger.Info("guard rejected inactive account", "subject", identifier)
		return nil, ErrIdentityInactive
	}

	return &ActorContext{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

// Listener adapts the gate to the token middleware. On admission the actor is
// stored in both the router locals and the standard context so handlers can
// reach it either way.
func (g *DirectoryGate) Listener() jwtware.ValidationListener {
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		authClaims, ok := claims.(AuthClaims)
		if !ok {
			return ErrTokenMalformed
		}

		actor, err := g.Admit(ctx.Context(), authClaims)
		if err != nil {
			return err
		}

		ctx.Locals(ActorRouterKey, actor)
		ctx.SetContext(WithActorContext(ctx.Context(), actor))

		return nil
	}
}

// ContextEnricherAdapter propagates validated claims to the standard context
// for downstream consumers that only see a context.Context.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// ProtectedRoute builds the token middleware wired to the directory gate.
// The error handler receives both token failures and gate rejections.
func ProtectedRoute(cfg Config, validator TokenValidator, gate *DirectoryGate, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	listeners := []jwtware.ValidationListener{}
	if gate != nil {
		listeners = append(listeners, gate.Listener())
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:          cfg.GetAuthScheme(),
		ContextKey:          cfg.GetContextKey(),
		TokenLookup:         cfg.GetTokenLookup(),
		TokenValidator:      tokenValidatorAdapter{validator: validator},
		ValidationListeners: listeners,
		ContextEnricher:     ContextEnricherAdapter,
	})
}

// RequireRoles only admits actors whose role is in the given set. A missing
// actor is an authentication failure; a present actor with the wrong role is
// a distinguishable authorization failure.
func RequireRoles(errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc {
	allowed := NewRoleSet(roles...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			actor, ok := ActorFromRouterContext(ctx)
			if !ok {
				return errorHandler(ctx, ErrMissingCredential)
			}

			if !allowed.Contains(actor.Role) {
				err := errors.Wrap(ErrForbidden, errors.CategoryAuthz, "Insufficient role for this operation").
					WithCode(errors.CodeForbidden).
					WithMetadata(map[string]any{
						"role":    actor.Role.String(),
						"allowed": allowed.Roles(),
					})
				return errorHandler(ctx, err)
			}

			return ctx.Next()
		}
	}
}

// tokenValidatorAdapter bridges the auth token service to the middleware
// without an import cycle.
type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
