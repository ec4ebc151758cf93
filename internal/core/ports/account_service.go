package ports

import (
	"context"

	"github.com/accounthq/accounts-api/internal/core/domain"
)

// CreateAccountInput is the caller-supplied material for a new account.
// Password is plaintext; it is hashed before persistence.
type CreateAccountInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// AccountService is the account lifecycle contract exposed to the HTTP layer
// and, via LoadIdentity, to the authentication layer.
type AccountService interface {
	Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateByID(ctx context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error)
	UpdateByUsername(ctx context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error)
	LoadIdentity(ctx context.Context, username string) (*domain.Identity, error)
}
