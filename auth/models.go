package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The password hash is never serialized outward.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Active         bool       `bun:"active,notnull,default:true" json:"active"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// PublicUser is the outward representation used by API responses.
type PublicUser struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Phone  string   `json:"phone_number,omitempty"`
	Role   UserRole `json:"role"`
	Active bool     `json:"active"`
}

// Public maps the record to its outward representation.
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:     u.ID.String(),
		Email:  u.Email,
		Name:   u.Name,
		Phone:  u.Phone,
		Role:   u.Role,
		Active: u.Active,
	}
}

// prepareUserDefaults normalizes a record before insertion. New users start
// active; a missing role falls back to DefaultRole.
func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = DefaultRole
	}
	record.Active = true
}
