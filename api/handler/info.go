package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/llm"
	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
)

// Health returns a handler for GET /api/v1/health.
func Health(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health())
	}
}

// Models returns a handler for GET /api/v1/models.
func Models() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.ModelsResponse{Models: llm.Catalog()})
	}
}

// Logs returns a handler for GET /api/v1/logs.
func Logs(log *logbuf.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := log.Logs(c.Request.Context())
		if entries == nil {
			entries = []string{}
		}
		c.JSON(http.StatusOK, models.LogsResponse{Count: len(entries), Entries: entries})
	}
}

// ClearLogs returns a handler for DELETE /api/v1/logs.
func ClearLogs(log *logbuf.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Clear(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
}
