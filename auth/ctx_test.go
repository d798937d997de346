package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saudelab/clinica-api/auth"
)

func TestActorContextRoundTrip(t *testing.T) {
	actor := &auth.ActorContext{
		ID:    "user-123",
		Email: "maria@clinica.local",
		Name:  "Maria Souza",
		Role:  auth.RoleMedico,
	}

	ctx := auth.WithActorContext(context.Background(), actor)

	got, ok := auth.ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, actor, got)
}

func TestActorFromContextMissing(t *testing.T) {
	got, ok := auth.ActorFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &auth.JWTClaims{UID: "user-123", UserRole: "ADMIN"}

	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-123", got.UserID())
	assert.Equal(t, "ADMIN", got.Role())
}

func TestClaimsContextMissing(t *testing.T) {
	got, ok := auth.GetClaims(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}
