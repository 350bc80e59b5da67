package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/dto"
	"github.com/surya021104/bug-tracker/internal/service"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plain text description is required"})
		return
	}

	report, err := h.service.Generate(ctx, req.PlainTextDescription)
	if errors.Is(err, service.ErrDescriptionNeeded) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plain text description is required"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate report", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate AI report"})
		return
	}

	c.JSON(http.StatusOK, dto.GenerateReportResponse{Report: report})
}
