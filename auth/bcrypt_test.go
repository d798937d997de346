package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saudelab/clinica-api/auth"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := auth.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  nil,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  auth.ErrMismatchedHashAndPassword,
		},
		{
			name:     "Garbage hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  auth.ErrMismatchedHashAndPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	a, err := auth.HashPassword("same-password")
	assert.NoError(t, err)

	b, err := auth.HashPassword("same-password")
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
}
