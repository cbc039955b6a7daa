package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"github.com/studypath/practice-engine/internal/services"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importService   services.ImportService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importService services.ImportService,
	logger *slog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importService:   importService,
	}
}

// ListQuestions lists questions with optional topic/difficulty filters.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := repositories.QuestionFilters{
		Limit: h.parseIntQuery(c, "limit", 50),
	}
	if topics, ok := c.GetQueryArray("topic"); ok {
		filters.Topics = topics
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.Difficulty(difficulty)
		if !d.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid difficulty",
			})
			return
		}
		filters.Difficulty = &d
	}

	questions, err := h.questionService.Find(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestion retrieves a question by ID.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ImportQuestions ingests a CSV or XLSX question file uploaded as multipart
// form data under the "file" field.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	summary, err := h.importService.ImportFromFile(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("question import finished",
		"filename", fileHeader.Filename,
		"created", summary.Created,
		"duplicates", summary.Duplicates,
		"rejected", summary.Rejected)

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Import finished",
		Data:    summary,
	})
}
