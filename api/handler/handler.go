// Package handler implements the HTTP endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/models"
)

// Service is the operation layer behind the endpoints.
type Service interface {
	Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error)
	YouTube(ctx context.Context, req *models.YouTubeRequest) (*models.YouTubeResponse, error)
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error)
	Health() models.HealthResponse
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
	})
}

// respondError maps an APIError to the correct HTTP status code and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error) {
	apiErr, ok := err.(*models.APIError)
	if !ok {
		apiErr = models.NewAPIError(models.CodeOf(err, models.ErrCodeInternal), err.Error(), err)
	}
	c.JSON(statusFor(apiErr.Code), models.ErrorResponse{Error: apiErr.ToDetail()})
}

// statusFor translates error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeNavigation, models.ErrCodeLLMFailure:
		return http.StatusBadGateway
	case models.ErrCodeInvalidInput, models.ErrCodeUnknownModel, models.ErrCodeNotVideo:
		return http.StatusBadRequest
	case models.ErrCodeNoTranscript:
		return http.StatusNotFound
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized, models.ErrCodeLLMAuthFailure:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
