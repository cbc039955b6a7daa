package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/services"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// CreateSession starts a new session, or resumes the open practice session
// for this user and device if one exists.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.UserID = userID
	if req.DeviceID == "" {
		req.DeviceID = h.deviceID(c)
	}

	snapshot, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}

// GetSession retrieves a session snapshot for results/review.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	snapshot, err := h.sessionService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetCurrentSession returns the open session of the given type on this device.
func (h *SessionHandler) GetCurrentSession(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	sessionType := models.SessionType(c.DefaultQuery("type", string(models.SessionPractice)))
	if !sessionType.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid session type",
		})
		return
	}

	snapshot, err := h.sessionService.Current(c.Request.Context(), userID, h.deviceID(c), sessionType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SubmitAnswer records the answer to the session's current question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	response, err := h.sessionService.Answer(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// AdvanceSession moves to the next question, completing the session when the
// answered question was the last one.
func (h *SessionHandler) AdvanceSession(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	snapshot, err := h.sessionService.Advance(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// CompleteSession finalizes the session. Safe to call more than once.
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	snapshot, err := h.sessionService.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
