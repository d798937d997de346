package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/saudelab/clinica-api/auth"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxIdleConns(1000)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

func registerMessage(email string) auth.RegisterUserMessage {
	return auth.RegisterUserMessage{
		Name:     "Maria Souza",
		Email:    email,
		Phone:    "+55 11 91234-5678",
		Password: "s3creta",
	}
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a user with hashed password and defaults", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		var record *auth.User
		msg := registerMessage("maria@clinica.local")
		msg.OnResponse = func(u *auth.User) { record = u }

		err := handler.Execute(ctx, msg)
		require.NoError(t, err)
		require.NotNil(t, record)

		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, auth.RolePaciente, record.Role)
		assert.True(t, record.Active)
		assert.NotEqual(t, "s3creta", record.PasswordHash)
		assert.NoError(t, auth.ComparePasswordAndHash("s3creta", record.PasswordHash))
	})

	t.Run("honors an explicit role", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		var record *auth.User
		msg := registerMessage("medica@clinica.local")
		msg.Role = "MEDICO"
		msg.OnResponse = func(u *auth.User) { record = u }

		err := handler.Execute(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleMedico, record.Role)
	})

	t.Run("rejects a role outside the enumeration", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		msg := registerMessage("x@clinica.local")
		msg.Role = "SUPERUSER"

		err := handler.Execute(ctx, msg)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})

	t.Run("rejects an empty password before touching the store", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		msg := registerMessage("y@clinica.local")
		msg.Password = ""

		err := handler.Execute(ctx, msg)
		require.Error(t, err)

		_, lookupErr := repo.Users().GetByIdentifier(ctx, "y@clinica.local")
		assert.Error(t, lookupErr)
	})

	t.Run("second registration with the same email fails", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		err := handler.Execute(ctx, registerMessage("dup@clinica.local"))
		require.NoError(t, err)

		err = handler.Execute(ctx, registerMessage("dup@clinica.local"))
		require.Error(t, err)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryConflict, richErr.Category)
	})

	t.Run("hashid gives a deterministic id for the email", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewRepositoryManager(db)
		handler := auth.NewRegisterUserHandler(repo)

		var first *auth.User
		msg := registerMessage("stable@clinica.local")
		msg.UseHashid = true
		msg.OnResponse = func(u *auth.User) { first = u }

		require.NoError(t, handler.Execute(ctx, msg))
		require.NotNil(t, first)
		assert.NotEqual(t, uuid.Nil, first.ID)

		found, err := repo.Users().GetByIdentifier(ctx, first.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "stable@clinica.local", found.Email)
	})
}

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, db *bun.DB, email string) (*auth.User, auth.Users) {
		t.Helper()
		users := auth.NewUsersRepository(db)
		hash, err := auth.HashPassword("s3creta")
		require.NoError(t, err)

		record, err := users.Register(ctx, &auth.User{
			Name:         "Paciente Teste",
			Email:        email,
			PasswordHash: hash,
		})
		require.NoError(t, err)
		return record, users
	}

	t.Run("finds by email and by id", func(t *testing.T) {
		db := setupTestDB(t)
		record, users := seed(t, db, "find@clinica.local")

		byEmail, err := users.GetByIdentifier(ctx, "find@clinica.local")
		require.NoError(t, err)
		assert.Equal(t, record.ID, byEmail.ID)

		byID, err := users.GetByIdentifier(ctx, record.ID.String())
		require.NoError(t, err)
		assert.Equal(t, record.Email, byID.Email)
	})

	t.Run("unknown identifier is a not found error", func(t *testing.T) {
		db := setupTestDB(t)
		users := auth.NewUsersRepository(db)

		_, err := users.GetByIdentifier(ctx, "missing@clinica.local")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("set active flips the flag without deleting the row", func(t *testing.T) {
		db := setupTestDB(t)
		record, users := seed(t, db, "toggle@clinica.local")

		updated, err := users.SetActive(ctx, record.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.Active)

		found, err := users.GetByIdentifier(ctx, record.ID.String())
		require.NoError(t, err)
		assert.False(t, found.Active)

		updated, err = users.SetActive(ctx, record.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.Active)
	})

	t.Run("set active on an unknown id is a not found error", func(t *testing.T) {
		db := setupTestDB(t)
		users := auth.NewUsersRepository(db)

		_, err := users.SetActive(ctx, uuid.New(), false)
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("tracks failed and successful logins", func(t *testing.T) {
		db := setupTestDB(t)
		record, users := seed(t, db, "attempts@clinica.local")

		require.NoError(t, users.TrackAttemptedLogin(ctx, record))

		found, err := users.GetByIdentifier(ctx, record.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 1, found.LoginAttempts)
		assert.NotNil(t, found.LoginAttemptAt)

		require.NoError(t, users.TrackSuccessfulLogin(ctx, found))

		found, err = users.GetByIdentifier(ctx, record.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 0, found.LoginAttempts)
		assert.Nil(t, found.LoginAttemptAt)
		assert.NotNil(t, found.LoggedInAt)
	})

	t.Run("lists users", func(t *testing.T) {
		db := setupTestDB(t)
		_, users := seed(t, db, "one@clinica.local")

		hash, err := auth.HashPassword("s3creta")
		require.NoError(t, err)
		_, err = users.Register(ctx, &auth.User{
			Name:         "Outro",
			Email:        "two@clinica.local",
			PasswordHash: hash,
		})
		require.NoError(t, err)

		records, err := users.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}
