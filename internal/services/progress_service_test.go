package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories/memory"
)

func TestRecordAnswerAccumulates(t *testing.T) {
	store := memory.New()
	tracker := NewProficiencyTracker(store, testLogger())
	ctx := context.Background()
	now := timeNowFixed()

	_, err := tracker.RecordAnswer(ctx, store, "user-1", "algebra", true, now)
	require.NoError(t, err)
	_, err = tracker.RecordAnswer(ctx, store, "user-1", "algebra", false, now.Add(time.Minute))
	require.NoError(t, err)

	progress, err := store.Progress().GetByUserTopic(ctx, "user-1", "algebra")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 2, progress.QuestionsAttempted)
	assert.Equal(t, 1, progress.CorrectAnswers)
	assert.InDelta(t, 50.0, progress.ProficiencyPercentage(), 0.001)
	require.NotNil(t, progress.LastPracticed)
	assert.True(t, progress.LastPracticed.Equal(now.Add(time.Minute)))
}

func TestProficiencyLevels(t *testing.T) {
	tests := []struct {
		pct  float64
		want models.ProficiencyLevel
	}{
		{0, models.LevelBeginner},
		{19.9, models.LevelBeginner},
		{20, models.LevelDeveloping},
		{39.9, models.LevelDeveloping},
		{40, models.LevelIntermediate},
		{59.9, models.LevelIntermediate},
		{60, models.LevelProficient},
		{79.9, models.LevelProficient},
		{80, models.LevelExpert},
		{100, models.LevelExpert},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, models.LevelForPercentage(tt.pct), "pct %.1f", tt.pct)
	}
}

func TestRecommendOrdersWeakestFirst(t *testing.T) {
	tracker := NewProficiencyTracker(memory.New(), testLogger())
	now := timeNowFixed()
	earlier := now.AddDate(0, 0, -3)

	progress := []*models.TopicProgress{
		{Topic: "geometry", QuestionsAttempted: 10, CorrectAnswers: 9, LastPracticed: &now},
		{Topic: "algebra", QuestionsAttempted: 10, CorrectAnswers: 3, LastPracticed: &now},
		{Topic: "fractions", QuestionsAttempted: 10, CorrectAnswers: 3, LastPracticed: &earlier},
		{Topic: "ratios", QuestionsAttempted: 10, CorrectAnswers: 5, LastPracticed: nil},
	}

	got := tracker.Recommend(progress, 4)
	// Ties at 30% break toward the least recently practiced; a never-practiced
	// topic sorts before any practiced one at the same percentage.
	assert.Equal(t, []string{"fractions", "algebra", "ratios", "geometry"}, got)

	assert.Equal(t, []string{"fractions", "algebra"}, tracker.Recommend(progress, 2))
	assert.Nil(t, tracker.Recommend(nil, 3))
	assert.Nil(t, tracker.Recommend(progress, 0))
}

func TestRecomputeRebuildsFromLedger(t *testing.T) {
	store := memory.New()
	tracker := NewProficiencyTracker(store, testLogger())
	ctx := context.Background()
	now := timeNowFixed()

	qAlg := seedQuestion(t, store, "algebra", models.DifficultyMedium)
	qGeo := seedQuestion(t, store, "geometry", models.DifficultyMedium)

	appendResponse := func(questionID string, correct bool, at time.Time) {
		require.NoError(t, store.Responses().Append(ctx, &models.Response{
			ID:         uuid.NewString(),
			SessionID:  "session-1",
			QuestionID: questionID,
			UserID:     "user-1",
			IsCorrect:  correct,
			Timestamp:  at,
		}))
	}
	appendResponse(qAlg.ID, true, now)
	appendResponse(qAlg.ID, false, now.Add(time.Minute))
	appendResponse(qGeo.ID, true, now.Add(2*time.Minute))

	// A stale aggregate that the rebuild must discard.
	seedProgress(t, store, "user-1", "fractions", 99, 1)

	require.NoError(t, tracker.Recompute(ctx, store, "user-1"))

	progress, err := store.Progress().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, progress, 2)
	byTopic := make(map[string]*models.TopicProgress)
	for _, tp := range progress {
		byTopic[tp.Topic] = tp
	}
	require.Contains(t, byTopic, "algebra")
	require.Contains(t, byTopic, "geometry")
	assert.Equal(t, 2, byTopic["algebra"].QuestionsAttempted)
	assert.Equal(t, 1, byTopic["algebra"].CorrectAnswers)
	assert.Equal(t, 1, byTopic["geometry"].QuestionsAttempted)
	assert.Equal(t, 1, byTopic["geometry"].CorrectAnswers)
}

func TestRecomputeSkipsUnresolvedQuestions(t *testing.T) {
	store := memory.New()
	tracker := NewProficiencyTracker(store, testLogger())
	ctx := context.Background()

	q := seedQuestion(t, store, "algebra", models.DifficultyMedium)
	require.NoError(t, store.Responses().Append(ctx, &models.Response{
		ID:         uuid.NewString(),
		SessionID:  "session-1",
		QuestionID: q.ID,
		UserID:     "user-1",
		IsCorrect:  true,
		Timestamp:  timeNowFixed(),
	}))
	// Response referencing a question that has not synced here yet.
	require.NoError(t, store.Responses().Append(ctx, &models.Response{
		ID:         uuid.NewString(),
		SessionID:  "session-2",
		QuestionID: uuid.NewString(),
		UserID:     "user-1",
		IsCorrect:  true,
		Timestamp:  timeNowFixed(),
	}))

	require.NoError(t, tracker.Recompute(ctx, store, "user-1"))

	progress, err := store.Progress().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "algebra", progress[0].Topic)
	assert.Equal(t, 1, progress[0].QuestionsAttempted)
}
