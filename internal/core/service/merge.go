package service

import (
	"time"

	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

// mergeAccount applies a partial update onto an existing account and returns
// the result as a new value; the input account is never mutated. Fields left
// nil in the payload are copied unchanged. A present password is hashed
// through the hasher before it lands in PasswordHash. ID, Role and CreatedAt
// are outside the reach of a merge.
func mergeAccount(existing domain.Account, payload domain.UpdatePayload, hasher ports.PasswordHasher) (domain.Account, error) {
	merged := existing

	if payload.Username != nil {
		merged.Username = *payload.Username
	}
	if payload.Email != nil {
		merged.Email = *payload.Email
	}
	if payload.Password != nil {
		hash, err := hasher.Hash(*payload.Password)
		if err != nil {
			return domain.Account{}, err
		}
		merged.PasswordHash = hash
	}

	merged.UpdatedAt = time.Now().UTC()
	return merged, nil
}
