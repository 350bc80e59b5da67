package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/dto"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
)

const apiKeyHeader = "x-api-key"

type IngestHandler struct {
	service service.IngestService
}

func NewIngestHandler(service service.IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// Ingest accepts one raw signal as the request body.
func (h *IngestHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var signal model.RawSignal
	if err := c.ShouldBindJSON(&signal); err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signal must be a JSON object"})
		return
	}

	result, err := h.service.Ingest(ctx, service.IngestRequest{
		Signal: signal,
		APIKey: c.GetHeader(apiKeyHeader),
	})
	switch {
	case errors.Is(err, service.ErrInvalidAPIKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	case err != nil:
		slog.ErrorContext(ctx, "failed to ingest signal", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, dto.IngestResponse{
		Status: string(result.Status),
		BugID:  result.BugID,
	})
}
