package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse phone numbers that are not in
// international format.
var DefaultPhoneRegion = "BR"

// RegisterPayload is the registration request body.
type RegisterPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Role     string `form:"role" json:"role"`
}

// Validate runs every rule and reports all failing fields, not just the
// first. There are no side effects on failure.
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidPhoneNumber(DefaultPhoneRegion))),
		validation.Field(&r.Role,
			validation.In(
				string(RoleAdmin),
				string(RoleMedico),
				string(RolePaciente),
			).Error("must be one of ADMIN, MEDICO, PACIENTE"),
		),
	)
}

// LoginPayload is the login request body.
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginPayload) GetIdentifier() string {
	return r.Email
}

// GetPassword returns the password
func (r LoginPayload) GetPassword() string {
	return r.Password
}

// Validate runs validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

// UpdateUserPayload is the admin-only user update body. Zero valued fields
// are left untouched. Role changes ride this payload on purpose: the update
// route is the one place role mutation is allowed.
type UpdateUserPayload struct {
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone_number" json:"phone_number"`
	Role  string `form:"role" json:"role"`
}

// Validate runs validation rules
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidPhoneNumber(DefaultPhoneRegion))),
		validation.Field(&r.Role,
			validation.In(
				string(RoleAdmin),
				string(RoleMedico),
				string(RolePaciente),
			).Error("must be one of ADMIN, MEDICO, PACIENTE"),
		),
	)
}

// ImpersonatePayload identifies the account to impersonate.
type ImpersonatePayload struct {
	Email string `form:"email" json:"email"`
}

// Validate runs validation rules
func (r ImpersonatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ValidPhoneNumber validates optional phone fields against the given
// default region. Empty values pass; presence is enforced separately.
func ValidPhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return errors.New("must be a valid phone number")
		}
		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field → reason map for API responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
