// Package http provides HTTP handlers for client management operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/client/http/dto"
	clientUseCase "github.com/allisson/ledger/internal/client/usecase"
	"github.com/allisson/ledger/internal/httputil"
)

// ClientHandler handles client-related HTTP requests.
type ClientHandler struct {
	clientUseCase clientUseCase.UseCase
	logger        *slog.Logger
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientUseCase clientUseCase.UseCase, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		clientUseCase: clientUseCase,
		logger:        logger,
	}
}

// CreateHandler creates a new client.
// POST /v1/clients - Returns 201 Created with the client representation.
func (h *ClientHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	client, err := h.clientUseCase.CreateClient(c.Request.Context(), dto.ToCreateClientInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToClientResponse(client))
}

// GetHandler retrieves a client by id.
// GET /v1/clients/:id - Returns 200 OK.
func (h *ClientHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid client id"), h.logger)
		return
	}

	client, err := h.clientUseCase.GetClientByID(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

// ListHandler retrieves clients with pagination, or a single client by email
// when the email query parameter is present.
// GET /v1/clients?offset=0&limit=50 or GET /v1/clients?email=a@b.com
func (h *ClientHandler) ListHandler(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		client, err := h.clientUseCase.GetClientByEmail(c.Request.Context(), email)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.ToClientResponse(client))
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	clients, err := h.clientUseCase.ListClients(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListClientsResponse(clients, offset, limit))
}

// UpdateHandler updates an existing client.
// PUT /v1/clients/:id - Returns 200 OK.
func (h *ClientHandler) UpdateHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid client id"), h.logger)
		return
	}

	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	client, err := h.clientUseCase.UpdateClient(c.Request.Context(), id, dto.ToUpdateClientInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

// DeleteHandler removes a client.
// DELETE /v1/clients/:id - Returns 204 No Content.
func (h *ClientHandler) DeleteHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid client id"), h.logger)
		return
	}

	if err := h.clientUseCase.DeleteClient(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
