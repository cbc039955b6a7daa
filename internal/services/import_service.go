package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/xuri/excelize/v2"
)

// ImportService adapts delimited files into ImportedQuestion batches and
// feeds them through the question store's ingest contract. Row columns:
// text, option A..E, correct option, topic, difficulty.
type ImportService interface {
	ImportFromFile(ctx context.Context, r io.Reader, filename string) (*IngestSummary, error)
	ImportFromCSV(ctx context.Context, r io.Reader) (*IngestSummary, error)
	ImportFromExcel(ctx context.Context, r io.Reader) (*IngestSummary, error)
}

type importService struct {
	questions QuestionService
	logger    *slog.Logger
}

func NewImportService(questions QuestionService, logger *slog.Logger) ImportService {
	return &importService{
		questions: questions,
		logger:    logger,
	}
}

func (s *importService) ImportFromFile(ctx context.Context, r io.Reader, filename string) (*IngestSummary, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return s.ImportFromCSV(ctx, r)
	case ".xlsx":
		return s.ImportFromExcel(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImportFormat, filepath.Ext(filename))
	}
}

func (s *importService) ImportFromCSV(ctx context.Context, r io.Reader) (*IngestSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return s.questions.Ingest(ctx, rowsToQuestions(rows))
}

func (s *importService) ImportFromExcel(ctx context.Context, r io.Reader) (*IngestSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return s.questions.Ingest(ctx, rowsToQuestions(rows))
}

func rowsToQuestions(rows [][]string) []models.ImportedQuestion {
	batch := make([]models.ImportedQuestion, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		// Skip a header row if present.
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "text") {
			continue
		}
		batch = append(batch, rowToQuestion(row))
	}
	return batch
}

func rowToQuestion(row []string) models.ImportedQuestion {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return models.ImportedQuestion{
		Text:          col(0),
		OptionA:       col(1),
		OptionB:       col(2),
		OptionC:       col(3),
		OptionD:       col(4),
		OptionE:       col(5),
		CorrectOption: models.AnswerOption(strings.ToUpper(col(6))),
		Topic:         col(7),
		Difficulty:    models.Difficulty(strings.ToLower(col(8))),
	}
}
