package router

import (
	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/handler"
)

// APIKeyRouter mounts key administration. The group carries the admin guard.
func APIKeyRouter(rg *gin.RouterGroup, h *handler.APIKeyHandler) {
	rg.GET("", h.List)
	rg.POST("/generate", h.Generate)
	rg.PUT("/:id/toggle", h.Toggle)
	rg.DELETE("/:id", h.Delete)
}
