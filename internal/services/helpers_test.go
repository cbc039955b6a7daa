package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories/memory"
)

func ptr[T any](v T) *T {
	return &v
}

// timeNowFixed is a stable reference instant for deterministic tests.
func timeNowFixed() time.Time {
	return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedQuestion inserts a valid question for the given topic and returns it.
func seedQuestion(t *testing.T, store *memory.Store, topic string, difficulty models.Difficulty) *models.Question {
	t.Helper()
	q := &models.Question{
		ID:            uuid.NewString(),
		Text:          fmt.Sprintf("question %s (%s)", uuid.NewString()[:8], topic),
		OptionA:       "first",
		OptionB:       "second",
		OptionC:       "third",
		OptionD:       "fourth",
		OptionE:       "fifth",
		CorrectOption: models.OptionB,
		Topic:         topic,
		Difficulty:    difficulty,
	}
	require.NoError(t, store.Questions().Create(context.Background(), q))
	return q
}

// seedProgress installs a (user, topic) aggregate with the given accuracy.
func seedProgress(t *testing.T, store *memory.Store, userID, topic string, attempted, correct int) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Progress().Save(context.Background(), &models.TopicProgress{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Topic:              topic,
		QuestionsAttempted: attempted,
		CorrectAnswers:     correct,
		LastPracticed:      &now,
	}))
}
