package ports

import (
	"context"

	"github.com/accounthq/accounts-api/internal/core/domain"
)

// AccountRepository defines the persistence capability the account service
// depends on. Username and email matching is case-insensitive everywhere.
//
// Implementations must return domain.ErrAccountNotFound on lookup misses and
// translate storage-level uniqueness violations into
// domain.ErrDuplicateUsername / domain.ErrDuplicateEmail.
type AccountRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindAll(ctx context.Context) ([]domain.Account, error)
	// Save inserts the account when its ID is zero, assigning a fresh id,
	// and replaces the stored record otherwise. The stored record is returned.
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// DeleteByID removes the account and returns domain.ErrAccountNotFound
	// when no record with that id exists.
	DeleteByID(ctx context.Context, id int64) error
}
