package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

type stubAccountService struct {
	createFn           func(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error)
	listFn             func(ctx context.Context) ([]domain.Account, error)
	deleteFn           func(ctx context.Context, id int64) error
	getByIDFn          func(ctx context.Context, id int64) (*domain.Account, error)
	getByUsernameFn    func(ctx context.Context, username string) (*domain.Account, error)
	getByEmailFn       func(ctx context.Context, email string) (*domain.Account, error)
	updateByIDFn       func(ctx context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error)
	updateByUsernameFn func(ctx context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error)
}

func (s *stubAccountService) Create(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}
func (s *stubAccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.listFn(ctx)
}
func (s *stubAccountService) Delete(ctx context.Context, id int64) error { return s.deleteFn(ctx, id) }
func (s *stubAccountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubAccountService) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *stubAccountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *stubAccountService) UpdateByID(ctx context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error) {
	return s.updateByIDFn(ctx, id, payload)
}
func (s *stubAccountService) UpdateByUsername(ctx context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error) {
	return s.updateByUsernameFn(ctx, username, payload)
}
func (s *stubAccountService) LoadIdentity(ctx context.Context, username string) (*domain.Identity, error) {
	return nil, domain.ErrAccountNotFound
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAccountHandler_Create_Success(t *testing.T) {
	stub := &stubAccountService{
		createFn: func(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
			if input.Username != "alice" || input.Email != "alice@example.com" || input.Role != domain.RoleUser {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.Account{ID: 1, Username: input.Username, Email: input.Email, Role: input.Role}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/accounts",
		`{"username":"alice","email":"alice@example.com","password":"password1","role":"USER"}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["role"] != "USER" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["passwordHash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestAccountHandler_Create_DuplicateUsernamePropagates(t *testing.T) {
	stub := &stubAccountService{
		createFn: func(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/accounts",
		`{"username":"alice","email":"alice@example.com","password":"password1","role":"USER"}`)

	if err := h.Create(c); err != domain.ErrDuplicateUsername {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAccountHandler_Create_RejectsInvalidBody(t *testing.T) {
	stub := &stubAccountService{
		createFn: func(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewAccountHandler(stub)

	cases := map[string]string{
		"not json":     `not-json`,
		"missing role": `{"username":"alice","email":"alice@example.com","password":"password1"}`,
		"bad role":     `{"username":"alice","email":"alice@example.com","password":"password1","role":"ROOT"}`,
		"bad email":    `{"username":"alice","email":"nope","password":"password1","role":"USER"}`,
		"short pass":   `{"username":"alice","email":"alice@example.com","password":"x","role":"USER"}`,
	}
	for name, body := range cases {
		c, _ := newTestContext(t, http.MethodPost, "/accounts", body)
		err := h.Create(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", name, err)
		}
	}
}

func TestAccountHandler_GetByID(t *testing.T) {
	stub := &stubAccountService{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Account, error) {
			if id != 42 {
				t.Fatalf("unexpected id: %d", id)
			}
			return &domain.Account{ID: 42, Username: "alice"}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/accounts/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.GetByID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_GetByID_BadID(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	for _, bad := range []string{"abc", "-1", "0"} {
		c, _ := newTestContext(t, http.MethodGet, "/accounts/"+bad, "")
		c.SetParamNames("id")
		c.SetParamValues(bad)

		err := h.GetByID(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %v", bad, err)
		}
	}
}

func TestAccountHandler_GetByUsername_NotFoundPropagates(t *testing.T) {
	stub := &stubAccountService{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/accounts/username/ghost", "")
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	if err := h.GetByUsername(c); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountHandler_UpdateByID_PartialPayload(t *testing.T) {
	stub := &stubAccountService{
		updateByIDFn: func(ctx context.Context, id int64, payload domain.UpdatePayload) (*domain.Account, error) {
			if id != 7 {
				t.Fatalf("unexpected id: %d", id)
			}
			if payload.Email == nil || *payload.Email != "new@example.com" {
				t.Fatalf("email not carried: %+v", payload)
			}
			if payload.Username != nil || payload.Password != nil {
				t.Fatalf("absent fields must stay nil: %+v", payload)
			}
			return &domain.Account{ID: 7, Username: "alice", Email: *payload.Email}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodPut, "/accounts/7", `{"email":"new@example.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.UpdateByID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_UpdateByUsername(t *testing.T) {
	stub := &stubAccountService{
		updateByUsernameFn: func(ctx context.Context, username string, payload domain.UpdatePayload) (*domain.Account, error) {
			if username != "alice" {
				t.Fatalf("unexpected username: %s", username)
			}
			return &domain.Account{ID: 1, Username: *payload.Username}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodPut, "/accounts/username/alice", `{"username":"alicia"}`)
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := h.UpdateByUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Delete(t *testing.T) {
	stub := &stubAccountService{
		deleteFn: func(ctx context.Context, id int64) error {
			if id != 5 {
				t.Fatalf("unexpected id: %d", id)
			}
			return nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodDelete, "/accounts/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAccountHandler_List(t *testing.T) {
	stub := &stubAccountService{
		listFn: func(ctx context.Context) ([]domain.Account, error) {
			return nil, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/accounts", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}
