package auth

import (
	"context"
	"reflect"
)

// Auther is the default Authenticator implementation.
type Auther struct {
	provider        IdentityProvider
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and issues a signed token. Issuance is
// stateless: no session record is created server side.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrIdentityNotFound
	}

	if err := ensureIdentityActive(identity); err != nil {
		s.logger.Warn("Login blocked for inactive identity", "identifier", identifier)
		return "", err
	}

	return s.tokenService.Generate(identity)
}

// Impersonate issues a token for the identifier without a password check.
// It is reachable only through the admin gated support route.
func (s *Auther) Impersonate(ctx context.Context, identifier string) (string, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Error("Impersonate find identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Impersonate identity is nil")
		return "", ErrIdentityNotFound
	}

	if err := ensureIdentityActive(identity); err != nil {
		s.logger.Warn("Impersonation blocked for inactive identity", "identifier", identifier)
		return "", err
	}

	return s.tokenService.Generate(identity)
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

// SessionFromToken validates the raw token and decodes it into a Session.
func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

type activeAwareIdentity interface {
	IsActive() bool
}

// ensureIdentityActive rejects identities whose store record is deactivated.
// Identities that do not expose the flag pass through.
func ensureIdentityActive(identity Identity) error {
	if identity == nil {
		return ErrIdentityNotFound
	}

	if aa, ok := identity.(activeAwareIdentity); ok && !aa.IsActive() {
		return ErrIdentityInactive
	}

	return nil
}
