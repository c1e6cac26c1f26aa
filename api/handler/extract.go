package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/models"
)

// Extract returns a handler for POST /api/v1/extract.
func Extract(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		resp, err := svc.Extract(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// YouTube returns a handler for POST /api/v1/youtube.
func YouTube(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.YouTubeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		resp, err := svc.YouTube(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Generate returns a handler for POST /api/v1/generate.
func Generate(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		resp, err := svc.Generate(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
