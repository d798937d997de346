package auth_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saudelab/clinica-api/auth"
)

// controllerContext feeds a JSON body to a handler and records its response.
type controllerContext struct {
	routerContext
	body   []byte
	status int
	out    map[string]any
}

func (c *controllerContext) Bind(v any) error {
	return json.Unmarshal(c.body, v)
}

func (c *controllerContext) Context() context.Context {
	return context.Background()
}

func (c *controllerContext) JSON(code int, v any) error {
	c.status = code
	if m, ok := v.(map[string]any); ok {
		c.out = m
	}
	return nil
}

func TestRegistrationCreate(t *testing.T) {
	newController := func(repo auth.RepositoryManager) *auth.AuthController {
		return auth.NewAuthController(
			auth.WithAuthRepo(repo),
			auth.WithAuthAuther(auth.NewAuthenticator(new(MockIdentityProvider), testConfig{})),
		)
	}

	t.Run("derives the user id from the email", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		controller := newController(repo)

		ctx := &controllerContext{
			body: []byte(`{"email":"maria@clinica.local","password":"s3creta","name":"Maria Souza"}`),
		}

		require.NoError(t, controller.RegistrationCreate(ctx))
		assert.Equal(t, router.StatusCreated, ctx.status)

		expected, err := hashid.NewUUID("maria@clinica.local")
		require.NoError(t, err)

		record, err := repo.Users().GetByIdentifier(context.Background(), "maria@clinica.local")
		require.NoError(t, err)
		assert.Equal(t, expected, record.ID)

		public, ok := ctx.out["user"].(auth.PublicUser)
		require.True(t, ok)
		assert.Equal(t, expected.String(), public.ID)
		assert.Equal(t, auth.RolePaciente, public.Role)
	})

	t.Run("reports every invalid field without touching the store", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		controller := newController(repo)

		ctx := &controllerContext{
			body: []byte(`{"email":"not-an-email","password":"short"}`),
		}

		require.NoError(t, controller.RegistrationCreate(ctx))
		assert.Equal(t, router.StatusBadRequest, ctx.status)

		fields, ok := ctx.out["errors"].(map[string]string)
		require.True(t, ok)
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "name")
	})
}

func TestUsersControllerCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := auth.NewRepositoryManager(db)
	controller := auth.NewUsersController(auth.WithUsersRepo(repo))

	ctx := &controllerContext{
		body: []byte(`{"email":"medica@clinica.local","password":"s3creta","name":"Dra. Ana","role":"MEDICO"}`),
	}

	require.NoError(t, controller.Create(ctx))
	assert.Equal(t, router.StatusCreated, ctx.status)

	expected, err := hashid.NewUUID("medica@clinica.local")
	require.NoError(t, err)

	record, err := repo.Users().GetByIdentifier(context.Background(), "medica@clinica.local")
	require.NoError(t, err)
	assert.Equal(t, expected, record.ID)
	assert.Equal(t, auth.RoleMedico, record.Role)
}
