package handler

import "github.com/accounthq/accounts-api/internal/core/domain"

type createAccountRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=ADMIN USER"`
}

// updateAccountRequest is a partial update: nil means "leave unchanged".
type updateAccountRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

func (r updateAccountRequest) payload() domain.UpdatePayload {
	return domain.UpdatePayload{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}
