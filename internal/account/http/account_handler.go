// Package http provides HTTP handlers for account management operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/account/http/dto"
	accountUseCase "github.com/allisson/ledger/internal/account/usecase"
	"github.com/allisson/ledger/internal/httputil"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUseCase accountUseCase.UseCase
	logger         *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUseCase accountUseCase.UseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

// CreateHandler creates a new account.
// POST /v1/accounts - Returns 201 Created.
func (h *AccountHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	account, err := h.accountUseCase.CreateAccount(c.Request.Context(), dto.ToCreateAccountInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// GetHandler retrieves an account by id.
// GET /v1/accounts/:id - Returns 200 OK.
func (h *AccountHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid account id"), h.logger)
		return
	}

	account, err := h.accountUseCase.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// ListHandler retrieves a client's accounts with pagination.
// GET /v1/accounts?client_id=...&offset=0&limit=50
func (h *AccountHandler) ListHandler(c *gin.Context) {
	clientID, err := uuid.Parse(c.Query("client_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("client_id is required and must be a valid UUID"), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	accounts, err := h.accountUseCase.ListAccountsByClient(c.Request.Context(), clientID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListAccountsResponse(accounts, offset, limit))
}

// UpdateHandler updates an existing account.
// PUT /v1/accounts/:id - Returns 200 OK.
func (h *AccountHandler) UpdateHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid account id"), h.logger)
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	account, err := h.accountUseCase.UpdateAccount(c.Request.Context(), id, dto.ToUpdateAccountInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// DeleteHandler removes an account.
// DELETE /v1/accounts/:id - Returns 204 No Content.
func (h *AccountHandler) DeleteHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid account id"), h.logger)
		return
	}

	if err := h.accountUseCase.DeleteAccount(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
