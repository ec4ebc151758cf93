package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accounthq/accounts-api/internal/api/metrics"
	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

// AccountService implements the account lifecycle: uniqueness-checked
// creation, lookups, partial updates, deletion, and identity derivation for
// the authentication layer. It holds no state between calls; the repository
// owns the durable copy.
//
// The service-level uniqueness checks are a fast path only. The repository's
// unique constraints are the authoritative backstop for the non-atomic
// check-then-write sequence; the optional KeyLocker narrows the race window
// across replicas.
type AccountService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
	locks  ports.KeyLocker
	logger zerolog.Logger
}

// NewAccountService wires an AccountService. locks may be nil, in which case
// no per-key locking is performed.
func NewAccountService(repo ports.AccountRepository, hasher ports.PasswordHasher, locks ports.KeyLocker, logger zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, locks: locks, logger: logger}
}

// Create persists a new account after checking that the username, then the
// email, is not already taken (case-insensitive). The email is never checked
// when the username already collides. On success the stored record, with its
// assigned id, is returned.
func (s *AccountService) Create(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	role, err := domain.ParseRole(string(input.Role))
	if err != nil {
		return nil, err
	}

	unlock := s.lockKeys(ctx, input.Username, input.Email)
	defer unlock()

	if err := s.checkUniqueness(ctx, input.Username, input.Email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Save(ctx, account)
	if err != nil {
		s.countConflict(err)
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create account")
		return nil, err
	}

	metrics.AccountsCreatedTotal.Inc()
	s.logger.Info().Int64("id", created.ID).Str("username", created.Username).Str("role", string(created.Role)).Msg("account created")
	return created, nil
}

// List returns every account. No filtering or pagination is offered.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.FindAll(ctx)
}

// Delete removes the account by id. A missing id reports
// domain.ErrAccountNotFound, so deleting twice fails the second time.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	metrics.AccountsDeletedTotal.Inc()
	s.logger.Info().Int64("id", id).Msg("account deleted")
	return nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

// UpdateByID merges the payload into the account found by id and persists the
// result. Uniqueness of the merged username/email is re-validated excluding
// the record's own id, so an unchanged field never conflicts with itself.
func (s *AccountService) UpdateByID(ctx context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, existing, payload)
}

// UpdateByUsername behaves exactly like UpdateByID, keyed by the current
// (pre-update) username, matched case-insensitively. Both update paths share
// one uniqueness policy.
func (s *AccountService) UpdateByUsername(ctx context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error) {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, existing, payload)
}

// LoadIdentity returns the authentication-facing view of the account with the
// given username.
func (s *AccountService) LoadIdentity(ctx context.Context, username string) (*domain.Identity, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.IdentityLoadsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}
	metrics.IdentityLoadsTotal.WithLabelValues("ok").Inc()
	identity := domain.NewIdentity(*account)
	return &identity, nil
}

// applyUpdate runs the shared merge-validate-persist path. An empty payload
// is a no-op that returns the current record without a write.
func (s *AccountService) applyUpdate(ctx context.Context, existing *domain.Account, payload domain.UpdatePayload) (*domain.Account, error) {
	if payload.Empty() {
		return existing, nil
	}

	merged, err := mergeAccount(*existing, payload, s.hasher)
	if err != nil {
		return nil, err
	}

	unlock := s.lockKeys(ctx, merged.Username, merged.Email)
	defer unlock()

	if err := s.checkUniqueness(ctx, merged.Username, merged.Email, merged.ID); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, &merged)
	if err != nil {
		s.countConflict(err)
		s.logger.Error().Err(err).Int64("id", merged.ID).Msg("failed to update account")
		return nil, err
	}

	metrics.AccountsUpdatedTotal.Inc()
	s.logger.Info().Int64("id", saved.ID).Str("username", saved.Username).Msg("account updated")
	return saved, nil
}

// checkUniqueness enforces the username-first collision policy: when the
// username is taken the email is never checked. excludeID > 0 exempts the
// record's own id so updates do not self-conflict.
func (s *AccountService) checkUniqueness(ctx context.Context, username, email string, excludeID int64) error {
	taken, err := s.usernameTaken(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		metrics.UniquenessConflictsTotal.WithLabelValues("username").Inc()
		return domain.ErrDuplicateUsername
	}

	taken, err = s.emailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		metrics.UniquenessConflictsTotal.WithLabelValues("email").Inc()
		return domain.ErrDuplicateEmail
	}
	return nil
}

func (s *AccountService) usernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	if excludeID == 0 {
		return s.repo.ExistsByUsername(ctx, username)
	}
	holder, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return holder.ID != excludeID, nil
}

func (s *AccountService) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	if excludeID == 0 {
		return s.repo.ExistsByEmail(ctx, email)
	}
	holder, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return holder.ID != excludeID, nil
}

// countConflict attributes uniqueness violations surfaced by the repository's
// unique constraints (the lost-race case) to the same conflict counters as
// the fast-path checks.
func (s *AccountService) countConflict(err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		metrics.UniquenessConflictsTotal.WithLabelValues("username").Inc()
	case errors.Is(err, domain.ErrDuplicateEmail):
		metrics.UniquenessConflictsTotal.WithLabelValues("email").Inc()
	}
}

// lockKeys acquires per-key locks on the lowercased username/email. Lock
// failures are logged and tolerated: the repository's unique constraints
// still hold the line.
func (s *AccountService) lockKeys(ctx context.Context, username, email string) ports.UnlockFunc {
	if s.locks == nil {
		return func() {}
	}
	unlock, err := s.locks.Lock(ctx, strings.ToLower(username), strings.ToLower(email))
	if err != nil {
		s.logger.Warn().Err(err).Msg("key lock unavailable, relying on unique constraints")
		return func() {}
	}
	return unlock
}
