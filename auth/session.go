package auth

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded view of a validated token.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Role           string     `json:"role,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

// sessionFromAuthClaims converts validated claims into a SessionObject.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	session := &SessionObject{
		UserID: claims.UserID(),
		Role:   claims.Role(),
	}

	if jc, ok := claims.(*JWTClaims); ok {
		session.Issuer = jc.RegisteredClaims.Issuer
		session.Audience = jc.RegisteredClaims.Audience
	}

	if iat := claims.IssuedAt(); !iat.IsZero() {
		session.IssuedAt = &iat
	}

	if exp := claims.Expires(); !exp.IsZero() {
		session.ExpirationDate = &exp
	}

	return session, nil
}
