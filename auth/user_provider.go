package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// UserTracker is the store surface the provider needs to verify credentials.
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider resolves identities against the user store.
type UserProvider struct {
	store  UserTracker
	logger Logger
}

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown identifiers and wrong passwords are indistinguishable to
// the caller.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier loads an identity without a credential check.
func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if !user.Active {
		return ErrIdentityInactive
	}

	if !user.Role.IsValid() {
		return errors.New("user has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": user.Role, "user_id": user.ID.String()})
	}

	return nil
}

// IsOutsideThresholdPeriod reports whether the reference time is older than
// the given duration expression, e.g. "24h".
func IsOutsideThresholdPeriod(reference time.Time, period string) (bool, error) {
	window, err := time.ParseDuration(period)
	if err != nil {
		return false, err
	}
	return time.Since(reference) > window, nil
}
