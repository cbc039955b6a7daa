package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories/memory"
)

func TestBuildSequenceExactCount(t *testing.T) {
	store := memory.New()
	for i := 0; i < 3; i++ {
		seedQuestion(t, store, "algebra", models.DifficultyMedium)
	}
	for i := 0; i < 2; i++ {
		seedQuestion(t, store, "geometry", models.DifficultyMedium)
	}

	selector := NewAdaptiveSelector(testLogger())
	tracker := NewProficiencyTracker(store, testLogger())

	questions, err := selector.BuildSequence(context.Background(), store, tracker, "user-1", 3, nil, nil)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	seen := make(map[string]struct{})
	for _, q := range questions {
		_, dup := seen[q.ID]
		assert.False(t, dup, "question %s selected twice", q.ID)
		seen[q.ID] = struct{}{}
	}
}

func TestBuildSequenceBiasesWeakTopics(t *testing.T) {
	store := memory.New()
	algebra := make(map[string]struct{})
	for i := 0; i < 2; i++ {
		q := seedQuestion(t, store, "algebra", models.DifficultyMedium)
		algebra[q.ID] = struct{}{}
	}
	for i := 0; i < 10; i++ {
		seedQuestion(t, store, "geometry", models.DifficultyMedium)
	}

	// algebra 30% (weak), geometry 90% (strong).
	seedProgress(t, store, "user-1", "algebra", 10, 3)
	seedProgress(t, store, "user-1", "geometry", 10, 9)

	selector := NewAdaptiveSelector(testLogger())
	tracker := NewProficiencyTracker(store, testLogger())

	questions, err := selector.BuildSequence(context.Background(), store, tracker, "user-1", 5, nil, nil)
	require.NoError(t, err)
	require.Len(t, questions, 5)

	// Both algebra questions must be in the draw; the geometry backfill tops
	// up the remainder.
	algebraCount := 0
	for _, q := range questions {
		if _, ok := algebra[q.ID]; ok {
			algebraCount++
		}
	}
	assert.Equal(t, 2, algebraCount)
}

func TestBuildSequenceInsufficientQuestions(t *testing.T) {
	store := memory.New()
	for i := 0; i < 3; i++ {
		seedQuestion(t, store, "algebra", models.DifficultyMedium)
	}

	selector := NewAdaptiveSelector(testLogger())
	tracker := NewProficiencyTracker(store, testLogger())

	_, err := selector.BuildSequence(context.Background(), store, tracker, "user-1", 5, nil, nil)
	require.Error(t, err)
	assert.True(t, IsInsufficientQuestions(err))
}

func TestBuildSequenceRespectsDifficultyFilter(t *testing.T) {
	store := memory.New()
	for i := 0; i < 4; i++ {
		seedQuestion(t, store, "algebra", models.DifficultyHard)
	}
	for i := 0; i < 4; i++ {
		seedQuestion(t, store, "algebra", models.DifficultyEasy)
	}

	selector := NewAdaptiveSelector(testLogger())
	tracker := NewProficiencyTracker(store, testLogger())

	hard := models.DifficultyHard
	questions, err := selector.BuildSequence(context.Background(), store, tracker, "user-1", 4, []string{"algebra"}, &hard)
	require.NoError(t, err)
	require.Len(t, questions, 4)
	for _, q := range questions {
		assert.Equal(t, models.DifficultyHard, q.Difficulty)
	}
}

func TestBuildSequencePrefersLeastRecentlyAttempted(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	fresh := seedQuestion(t, store, "algebra", models.DifficultyMedium)
	stale := seedQuestion(t, store, "algebra", models.DifficultyMedium)
	recent := seedQuestion(t, store, "algebra", models.DifficultyMedium)

	base := timeNowFixed()
	require.NoError(t, store.Questions().RecordAttempt(ctx, stale.ID, true, base.AddDate(0, 0, -30)))
	require.NoError(t, store.Questions().RecordAttempt(ctx, recent.ID, true, base))

	selector := NewAdaptiveSelector(testLogger())
	tracker := NewProficiencyTracker(store, testLogger())

	questions, err := selector.BuildSequence(ctx, store, tracker, "user-1", 2, []string{"algebra"}, nil)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	ids := map[string]struct{}{questions[0].ID: {}, questions[1].ID: {}}
	assert.Contains(t, ids, fresh.ID, "never-attempted question should be drawn first")
	assert.Contains(t, ids, stale.ID, "least recently attempted question should be drawn")
	assert.NotContains(t, ids, recent.ID)
}
