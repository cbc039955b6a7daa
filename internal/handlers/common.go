package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/services"
	"github.com/studypath/practice-engine/internal/validator"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler provides common request plumbing for all handlers.
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// requireUserID reads the caller identity propagated by the gateway. There is
// no auth layer in this service; identity headers are trusted upstream.
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Missing X-User-ID header",
		})
	}
	return userID
}

func (h *BaseHandler) deviceID(c *gin.Context) string {
	return c.GetHeader("X-Device-ID")
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
			Details: err.Error(),
		})
	case services.IsForbidden(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	case services.IsDuplicateAnswer(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Question already answered in this session",
		})
	case services.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Operation not allowed in current session state",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnsupportedImportFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported import file format",
			Details: err.Error(),
		})
	case services.IsInsufficientQuestions(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Not enough questions available for the requested session",
		})
	case services.IsStorageUnavailable(err):
		h.logger.Error("storage unavailable",
			"path", c.Request.URL.Path,
			"error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Storage temporarily unavailable",
		})
	default:
		h.logger.Error("unexpected service error",
			"path", c.Request.URL.Path,
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
