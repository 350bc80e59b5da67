package router

import (
	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/handler"
)

func BugRouter(rg *gin.RouterGroup, ingest *handler.IngestHandler, reports *handler.ReportHandler) {
	rg.POST("/ingest", ingest.Ingest)
	rg.POST("/generate-report", reports.Generate)
}
