package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

// routerStubService backs the router test with two fixed accounts: an admin
// and a regular user.
type routerStubService struct {
	admin domain.Account
	user  domain.Account
}

func (s *routerStubService) Create(_ context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	if strings.EqualFold(input.Username, s.admin.Username) || strings.EqualFold(input.Username, s.user.Username) {
		return nil, domain.ErrDuplicateUsername
	}
	account := domain.Account{ID: 99, Username: input.Username, Email: input.Email, Role: input.Role}
	return &account, nil
}

func (s *routerStubService) List(context.Context) ([]domain.Account, error) {
	return []domain.Account{s.admin, s.user}, nil
}

func (s *routerStubService) Delete(_ context.Context, id int64) error {
	if id == s.user.ID {
		return nil
	}
	return domain.ErrAccountNotFound
}

func (s *routerStubService) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	switch id {
	case s.admin.ID:
		a := s.admin
		return &a, nil
	case s.user.ID:
		a := s.user
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (s *routerStubService) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	switch {
	case strings.EqualFold(username, s.admin.Username):
		a := s.admin
		return &a, nil
	case strings.EqualFold(username, s.user.Username):
		a := s.user
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (s *routerStubService) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	if strings.EqualFold(email, s.admin.Email) {
		a := s.admin
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (s *routerStubService) UpdateByID(_ context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error) {
	return s.GetByID(context.Background(), id)
}

func (s *routerStubService) UpdateByUsername(_ context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error) {
	return s.GetByUsername(context.Background(), username)
}

func (s *routerStubService) LoadIdentity(ctx context.Context, username string) (*domain.Identity, error) {
	account, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	identity := domain.NewIdentity(*account)
	return &identity, nil
}

type routerStubHasher struct{}

func (routerStubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (routerStubHasher) Verify(plaintext, hash string) bool    { return hash == "hashed:"+plaintext }

// TestRouter exercises the wired router end to end: authentication, RBAC and
// the centralized error mapping. The router registers Prometheus collectors
// with the default registry, so it is built exactly once.
func TestRouter(t *testing.T) {
	stub := &routerStubService{
		admin: domain.Account{ID: 1, Username: "root", Email: "root@example.com", PasswordHash: "hashed:rootpass1", Role: domain.RoleAdmin},
		user:  domain.Account{ID: 2, Username: "alice", Email: "alice@example.com", PasswordHash: "hashed:alicepass1", Role: domain.RoleUser},
	}
	e := NewRouter(RouterConfig{
		Accounts:  stub,
		Hasher:    routerStubHasher{},
		JWTSecret: "jwt-secret",
		Logger:    zerolog.Nop(),
	})

	do := func(method, path, body string, auth func(*http.Request)) *httptest.ResponseRecorder {
		t.Helper()
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		if auth != nil {
			auth(req)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	asAdmin := func(r *http.Request) { r.SetBasicAuth("root", "rootpass1") }
	asUser := func(r *http.Request) { r.SetBasicAuth("alice", "alicepass1") }

	t.Run("liveness is public", func(t *testing.T) {
		if rec := do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("accounts require authentication", func(t *testing.T) {
		if rec := do(http.MethodGet, "/accounts/1", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("list is admin only", func(t *testing.T) {
		if rec := do(http.MethodGet, "/accounts", "", asUser); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		rec := do(http.MethodGet, "/accounts", "", asAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var accounts []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil || len(accounts) != 2 {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("delete is admin only", func(t *testing.T) {
		if rec := do(http.MethodDelete, "/accounts/2", "", asUser); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if rec := do(http.MethodDelete, "/accounts/2", "", asAdmin); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec := do(http.MethodDelete, "/accounts/999", "", asAdmin); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("missing account maps to 404", func(t *testing.T) {
		rec := do(http.MethodGet, "/accounts/999", "", asUser)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		var body map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"] != "account not found" {
			t.Fatalf("unexpected envelope: %s", rec.Body.String())
		}
	})

	t.Run("duplicate username maps to 409", func(t *testing.T) {
		rec := do(http.MethodPost, "/accounts",
			`{"username":"alice","email":"new@example.com","password":"password1","role":"USER"}`, asUser)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("create succeeds", func(t *testing.T) {
		rec := do(http.MethodPost, "/accounts",
			`{"username":"carol","email":"carol@example.com","password":"password1","role":"USER"}`, asUser)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid payload maps to 400", func(t *testing.T) {
		rec := do(http.MethodPost, "/accounts",
			`{"username":"carol","email":"not-an-email","password":"password1","role":"USER"}`, asUser)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
