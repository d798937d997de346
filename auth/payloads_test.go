package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saudelab/clinica-api/auth"
)

func validRegisterPayload() auth.RegisterPayload {
	return auth.RegisterPayload{
		Email:    "maria@clinica.local",
		Password: "s3creta",
		Name:     "Maria Souza",
		Phone:    "+55 11 91234-5678",
		Role:     "MEDICO",
	}
}

func TestRegisterPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.RegisterPayload)
		failing []string
	}{
		{
			name:   "valid payload",
			mutate: func(p *auth.RegisterPayload) {},
		},
		{
			name:    "missing email",
			mutate:  func(p *auth.RegisterPayload) { p.Email = "" },
			failing: []string{"email"},
		},
		{
			name:    "malformed email",
			mutate:  func(p *auth.RegisterPayload) { p.Email = "not-an-email" },
			failing: []string{"email"},
		},
		{
			name:    "password below minimum length",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "12345" },
			failing: []string{"password"},
		},
		{
			name:    "missing password",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "" },
			failing: []string{"password"},
		},
		{
			name:    "missing name",
			mutate:  func(p *auth.RegisterPayload) { p.Name = "" },
			failing: []string{"name"},
		},
		{
			name:    "role outside the enumeration",
			mutate:  func(p *auth.RegisterPayload) { p.Role = "SUPERUSER" },
			failing: []string{"role"},
		},
		{
			name:    "lowercase role is rejected",
			mutate:  func(p *auth.RegisterPayload) { p.Role = "medico" },
			failing: []string{"role"},
		},
		{
			name:   "role may be omitted",
			mutate: func(p *auth.RegisterPayload) { p.Role = "" },
		},
		{
			name:   "phone may be omitted",
			mutate: func(p *auth.RegisterPayload) { p.Phone = "" },
		},
		{
			name:    "invalid phone number",
			mutate:  func(p *auth.RegisterPayload) { p.Phone = "not-a-phone" },
			failing: []string{"phone_number"},
		},
		{
			name: "all fields invalid reports every field",
			mutate: func(p *auth.RegisterPayload) {
				p.Email = "nope"
				p.Password = "123"
				p.Name = ""
			},
			failing: []string{"email", "password", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRegisterPayload()
			tt.mutate(&payload)

			err := payload.Validate()

			if len(tt.failing) == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)

			fields := auth.FormatValidationErrorToMap(err)
			for _, field := range tt.failing {
				assert.Contains(t, fields, field)
			}
		})
	}
}

func TestLoginPayloadValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		payload := auth.LoginPayload{Email: "maria@clinica.local", Password: "s3creta"}
		assert.NoError(t, payload.Validate())
		assert.Equal(t, "maria@clinica.local", payload.GetIdentifier())
		assert.Equal(t, "s3creta", payload.GetPassword())
	})

	t.Run("missing everything", func(t *testing.T) {
		payload := auth.LoginPayload{}
		err := payload.Validate()
		assert.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})
}

func TestUpdateUserPayloadValidate(t *testing.T) {
	t.Run("empty payload is a no-op update", func(t *testing.T) {
		payload := auth.UpdateUserPayload{}
		assert.NoError(t, payload.Validate())
	})

	t.Run("role change must stay inside the enumeration", func(t *testing.T) {
		payload := auth.UpdateUserPayload{Role: "OWNER"}
		err := payload.Validate()
		assert.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "role")
	})

	t.Run("valid role change", func(t *testing.T) {
		payload := auth.UpdateUserPayload{Role: "ADMIN"}
		assert.NoError(t, payload.Validate())
	})
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		out := auth.FormatValidationErrorToMap(nil)
		assert.Empty(t, out)
	})

	t.Run("non validation error", func(t *testing.T) {
		out := auth.FormatValidationErrorToMap(assert.AnError)
		assert.Contains(t, out, "payload")
	})
}
