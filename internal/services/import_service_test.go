package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/repositories/memory"
	"github.com/studypath/practice-engine/internal/validator"
)

func TestImportFromCSV(t *testing.T) {
	store := memory.New()
	questions := NewQuestionService(store, testLogger(), validator.New())
	svc := NewImportService(questions, testLogger())

	csvData := strings.Join([]string{
		"text,option_a,option_b,option_c,option_d,option_e,correct_option,topic,difficulty",
		"What is 2+2?,1,2,3,4,5,D,arithmetic,easy",
		"What is 6/2?,1,2,3,4,5,C,fractions,medium",
		",missing,text,should,be,rejected,A,algebra,easy",
	}, "\n")

	summary, err := svc.ImportFromCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRows) // header skipped
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Rejected)

	count, err := store.Questions().Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestImportFromFileByExtension(t *testing.T) {
	questions := NewQuestionService(memory.New(), testLogger(), validator.New())
	svc := NewImportService(questions, testLogger())

	t.Run("csv extension routes to csv parser", func(t *testing.T) {
		summary, err := svc.ImportFromFile(context.Background(),
			strings.NewReader("What is 1+1?,1,2,3,4,5,B,arithmetic,easy"), "bank.CSV")
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Created)
	})

	t.Run("unknown extension rejected", func(t *testing.T) {
		_, err := svc.ImportFromFile(context.Background(), strings.NewReader(""), "bank.pdf")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedImportFormat)
	})
}
