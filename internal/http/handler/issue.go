package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/dto"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

type IssueHandler struct {
	service service.IssueService
}

func NewIssueHandler(service service.IssueService) *IssueHandler {
	return &IssueHandler{service: service}
}

func (h *IssueHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ListIssuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issues, err := h.service.List(ctx, store.IssueFilter{
		AppID:   q.AppID,
		AppName: q.AppName,
		Status:  model.Status(q.Status),
		Limit:   q.Limit,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list issues", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	issue, err := h.service.Get(ctx, c.Param("id"))
	if errors.Is(err, service.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get issue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get issue"})
		return
	}

	c.JSON(http.StatusOK, issue)
}

// Create files a manual issue. A title match increments the existing issue.
func (h *IssueHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title required"})
		return
	}

	result, err := h.service.Create(ctx, service.ManualIssue{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		CreatedBy:   req.CreatedBy,
		Category:    req.Type,
		AppName:     req.AppName,
		Steps:       req.Steps,
		Expected:    req.Expected,
		Actual:      req.Actual,
		Browser:     req.Browser,
		Environment: req.Environment,
	})
	if errors.Is(err, service.ErrTitleRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title required"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to create issue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, dto.IssueResponse{
		Success:   true,
		Issue:     result.Issue,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}

func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	issue, err := h.service.UpdateStatus(ctx, c.Param("id"), req.Status, req.CurrentUser)
	switch {
	case errors.Is(err, service.ErrStatusRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	case errors.Is(err, service.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	case err != nil:
		slog.ErrorContext(ctx, "failed to update status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, dto.IssueResponse{Success: true, Issue: issue})
}

func (h *IssueHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	bugID := c.Param("id")

	_, err := h.service.Delete(ctx, bugID)
	if errors.Is(err, service.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete issue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	c.JSON(http.StatusOK, dto.DeleteIssueResponse{Success: true, Message: "Issue deleted", ID: bugID})
}
