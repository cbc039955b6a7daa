package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/services"
)

type HandlerManager struct {
	sessionHandler  *SessionHandler
	questionHandler *QuestionHandler
	progressHandler *ProgressHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	questionService services.QuestionService,
	importService services.ImportService,
	analyticsService services.AnalyticsService,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:  NewSessionHandler(sessionService, logger),
		questionHandler: NewQuestionHandler(questionService, importService, logger),
		progressHandler: NewProgressHandler(analyticsService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "practice-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/current", hm.sessionHandler.GetCurrentSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/advance", hm.sessionHandler.AdvanceSession)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
		}

		progress := v1.Group("/progress")
		{
			progress.GET("", hm.progressHandler.GetProgress)
			progress.GET("/recommendations", hm.progressHandler.GetRecommendedTopics)
		}

		v1.GET("/profile", hm.progressHandler.GetProfile)
		v1.GET("/responses", hm.progressHandler.GetResponseHistory)
	}
}
