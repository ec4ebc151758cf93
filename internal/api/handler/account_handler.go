package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
)

// AccountHandler exposes the account lifecycle over HTTP. It binds and
// validates requests and leaves error-to-status mapping to the centralized
// HTTP error handler.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create registers a new account.
//
// @Summary      Create an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      createAccountRequest  true  "Account details"
// @Success      201   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /accounts [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.Create(c.Request().Context(), ports.CreateAccountInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, account)
}

// List returns every account. Admin only; no pagination is offered.
//
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   domain.Account
// @Failure      403  {object}  map[string]string
// @Router       /accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accounts.List(c.Request().Context())
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return c.JSON(http.StatusOK, accounts)
}

// GetByID returns one account by its numeric id.
//
// @Summary      Get account by id
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account id"
// @Success      200  {object}  domain.Account
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetByID(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// GetByUsername returns one account by username, matched case-insensitively.
//
// @Summary      Get account by username
// @Tags         accounts
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  domain.Account
// @Failure      404       {object}  map[string]string
// @Router       /accounts/username/{username} [get]
func (h *AccountHandler) GetByUsername(c echo.Context) error {
	account, err := h.accounts.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// GetByEmail returns one account by email, matched case-insensitively.
//
// @Summary      Get account by email
// @Tags         accounts
// @Produce      json
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  domain.Account
// @Failure      404    {object}  map[string]string
// @Router       /accounts/email/{email} [get]
func (h *AccountHandler) GetByEmail(c echo.Context) error {
	account, err := h.accounts.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateByID applies a partial update to the account with the given id.
//
// @Summary      Update account by id
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "Account id"
// @Param        body  body      updateAccountRequest  true  "Fields to change"
// @Success      200   {object}  domain.Account
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /accounts/{id} [put]
func (h *AccountHandler) UpdateByID(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.UpdateByID(c.Request().Context(), id, req.payload())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateByUsername applies a partial update to the account holding the given
// (pre-update) username.
//
// @Summary      Update account by username
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        username  path      string                true  "Current username"
// @Param        body      body      updateAccountRequest  true  "Fields to change"
// @Success      200       {object}  domain.Account
// @Failure      404       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /accounts/username/{username} [put]
func (h *AccountHandler) UpdateByUsername(c echo.Context) error {
	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.UpdateByUsername(c.Request().Context(), c.Param("username"), req.payload())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Delete removes the account by id. Admin only. Deleting a missing id
// reports 404.
//
// @Summary      Delete account
// @Tags         accounts
// @Param        id  path  int  true  "Account id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func accountID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	return id, nil
}
