package domain

import (
	"errors"
	"time"
)

// Role is the closed set of authorization levels an account can hold.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrDuplicateUsername = errors.New("username already exists")
var ErrDuplicateEmail = errors.New("email already exists")
var ErrInvalidRole = errors.New("invalid role")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")

// ParseRole converts a raw string into a Role, rejecting anything outside
// the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

// Authority returns the granted-authority token for the role. The mapping is
// one-to-one: the role name is the sole authority.
func (r Role) Authority() string {
	return string(r)
}

// Account is the persisted user record. ID is assigned by the repository on
// first save and never changes afterwards. Username and email are unique
// across all accounts under case-insensitive comparison.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdatePayload carries a partial update. A nil field means "do not change".
// Password is plaintext on the way in and is hashed before it ever reaches
// an Account.
type UpdatePayload struct {
	Username *string
	Email    *string
	Password *string
}

// Empty reports whether the payload changes nothing.
func (p UpdatePayload) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil
}

// Identity is the read-only authentication-facing view of an Account. It is
// derived, never persisted, so the account model stays decoupled from what
// the authentication layer expects.
type Identity struct {
	Username              string
	PasswordHash          string
	Authority             string
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
}

// NewIdentity derives the authentication view from a persisted account.
// Expiry and locking are not modeled, so the status flags are always true.
func NewIdentity(a Account) Identity {
	return Identity{
		Username:              a.Username,
		PasswordHash:          a.PasswordHash,
		Authority:             a.Role.Authority(),
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}
