package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"github.com/studypath/practice-engine/internal/validator"
)

// QuestionService is the read-mostly question store plus the batch-ingest
// surface fed by the import collaborator.
type QuestionService interface {
	Find(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	Ingest(ctx context.Context, batch []models.ImportedQuestion) (*IngestSummary, error)
}

type IngestSummary struct {
	TotalRows  int      `json:"total_rows"`
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Rejected   int      `json:"rejected"`
	CreatedIDs []string `json:"created_ids"`
	Errors     []string `json:"errors,omitempty"`
}

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) Find(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, error) {
	questions, err := s.repo.Questions().List(ctx, filters)
	if err != nil {
		return nil, storageErr("failed to list questions", err)
	}
	// An empty result is a valid answer, never an error.
	return questions, nil
}

func (s *questionService) Get(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.Questions().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("failed to get question", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

// Ingest applies the dedup contract: no two questions with identical text
// coexist. Duplicate and invalid rows are counted, not fatal.
func (s *questionService) Ingest(ctx context.Context, batch []models.ImportedQuestion) (*IngestSummary, error) {
	summary := &IngestSummary{TotalRows: len(batch)}

	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		for i, row := range batch {
			if err := s.validator.Validate(row); err != nil {
				summary.Rejected++
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}

			exists, err := tx.Questions().ExistsByText(ctx, row.Text)
			if err != nil {
				return err
			}
			if exists {
				summary.Duplicates++
				continue
			}

			question := &models.Question{
				ID:            uuid.NewString(),
				Text:          row.Text,
				OptionA:       row.OptionA,
				OptionB:       row.OptionB,
				OptionC:       row.OptionC,
				OptionD:       row.OptionD,
				OptionE:       row.OptionE,
				CorrectOption: row.CorrectOption,
				Topic:         row.Topic,
				Difficulty:    row.Difficulty,
			}
			if err := tx.Questions().Create(ctx, question); err != nil {
				return err
			}
			summary.Created++
			summary.CreatedIDs = append(summary.CreatedIDs, question.ID)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("failed to ingest questions", err)
	}

	s.logger.Info("ingested question batch",
		"total", summary.TotalRows,
		"created", summary.Created,
		"duplicates", summary.Duplicates,
		"rejected", summary.Rejected)
	return summary, nil
}
