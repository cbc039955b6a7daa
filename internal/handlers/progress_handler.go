package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/repositories"
	"github.com/studypath/practice-engine/internal/services"
)

type ProgressHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewProgressHandler(analyticsService services.AnalyticsService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetProgress lists the caller's per-topic proficiency aggregates.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	progress, err := h.analyticsService.Progress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetRecommendedTopics returns the weakest topics, up to the count query
// parameter (default 3).
func (h *ProgressHandler) GetRecommendedTopics(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	n := h.parseIntQuery(c, "count", 3)
	topics, err := h.analyticsService.RecommendedTopics(c.Request.Context(), userID, n)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GetProfile returns the caller's lifetime stats and streak.
func (h *ProgressHandler) GetProfile(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	profile, err := h.analyticsService.Profile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetResponseHistory queries the caller's response ledger, optionally bounded
// by topic and an RFC 3339 from/to window.
func (h *ProgressHandler) GetResponseHistory(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := repositories.ResponseRangeFilters{UserID: userID}
	if topic := c.Query("topic"); topic != "" {
		filters.Topic = &topic
	}
	from, ok := h.parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.parseTimeQuery(c, "to")
	if !ok {
		return
	}
	filters.From = from
	filters.To = to

	responses, err := h.analyticsService.ResponseHistory(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses)
}

// parseTimeQuery parses an optional RFC 3339 query parameter. The zero time
// means unbounded.
func (h *ProgressHandler) parseTimeQuery(c *gin.Context, param string) (time.Time, bool) {
	valueStr := c.Query(param)
	if valueStr == "" {
		return time.Time{}, true
	}
	value, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param + " timestamp, expected RFC 3339",
			Details: err.Error(),
		})
		return time.Time{}, false
	}
	return value, true
}
