package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/dto"
	"github.com/surya021104/bug-tracker/internal/service"
)

type APIKeyHandler struct {
	service service.APIKeyService
}

func NewAPIKeyHandler(service service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

// List returns every key with its usage over the trailing hour. Full keys
// are never listed.
func (h *APIKeyHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	keys, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list api keys", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list API keys"})
		return
	}

	c.JSON(http.StatusOK, keys)
}

func (h *APIKeyHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generated, err := h.service.Generate(ctx, service.GenerateKeyParams{
		AppName:     req.AppName,
		Environment: req.Environment,
		RateLimit:   req.RateLimit,
		Owner:       req.Owner,
		WebhookURL:  req.WebhookURL,
	})
	switch {
	case errors.Is(err, service.ErrAppNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "App name is required"})
		return
	case errors.Is(err, service.ErrInvalidEnvironment):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid environment"})
		return
	case err != nil:
		slog.ErrorContext(ctx, "failed to generate api key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate API key"})
		return
	}

	key := generated.APIKey
	c.JSON(http.StatusCreated, dto.GenerateKeyResponse{
		Success:     true,
		APIKey:      generated.Key,
		Preview:     key.Preview,
		AppName:     key.AppName,
		AppID:       key.AppID,
		Environment: key.Environment,
		RateLimit:   key.RateLimit,
		CreatedAt:   key.CreatedAt,
		Message:     "Save this key securely - you won't see it again!",
	})
}

func (h *APIKeyHandler) Toggle(c *gin.Context) {
	ctx := c.Request.Context()

	keyID, ok := parseKeyID(c)
	if !ok {
		return
	}

	key, err := h.service.Toggle(ctx, keyID)
	if errors.Is(err, service.ErrAPIKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to toggle api key", "error", err, "key_id", keyID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle API key"})
		return
	}

	message := "API key disabled"
	if key.IsActive {
		message = "API key enabled"
	}
	c.JSON(http.StatusOK, dto.ToggleKeyResponse{Success: true, IsActive: key.IsActive, Message: message})
}

func (h *APIKeyHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	keyID, ok := parseKeyID(c)
	if !ok {
		return
	}

	err := h.service.Delete(ctx, keyID)
	if errors.Is(err, service.ErrAPIKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete api key", "error", err, "key_id", keyID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "API key deleted"})
}

func parseKeyID(c *gin.Context) (int64, bool) {
	keyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return 0, false
	}
	return keyID, true
}
