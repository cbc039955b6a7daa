package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
)

// Topics at or above this proficiency are excluded from the weak set.
const weakTopicThreshold = 70.0

// AdaptiveSelector builds the ordered question sequence for a new session,
// biased toward the learner's weak topics.
type AdaptiveSelector struct {
	logger *slog.Logger
}

func NewAdaptiveSelector(logger *slog.Logger) *AdaptiveSelector {
	return &AdaptiveSelector{logger: logger}
}

// BuildSequence returns exactly n distinct questions or fails with
// ErrInsufficientQuestions. A shorter sequence is never returned silently.
func (s *AdaptiveSelector) BuildSequence(ctx context.Context, repo repositories.Repository, tracker ProficiencyTracker, userID string, n int, topics []string, difficulty *models.Difficulty) ([]*models.Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d questions", ErrInsufficientQuestions, n)
	}

	restricted := topics
	if len(restricted) == 0 {
		weak, err := s.weakTopics(ctx, repo, tracker, userID)
		if err != nil {
			return nil, err
		}
		restricted = weak
	}

	// Primary draw: weak topics (or the caller's filter), least recently
	// attempted first.
	selected, err := repo.Questions().List(ctx, repositories.QuestionFilters{
		Topics:     restricted,
		Difficulty: difficulty,
		Limit:      n,
	})
	if err != nil {
		return nil, storageErr("failed to draw questions", err)
	}

	// Backfill from the unrestricted store until n is reached or the store is
	// exhausted.
	if len(selected) < n {
		exclude := make([]string, 0, len(selected))
		for _, q := range selected {
			exclude = append(exclude, q.ID)
		}
		backfill, err := repo.Questions().List(ctx, repositories.QuestionFilters{
			ExcludeIDs: exclude,
			Limit:      n - len(selected),
		})
		if err != nil {
			return nil, storageErr("failed to backfill questions", err)
		}
		selected = append(selected, backfill...)
	}

	if len(selected) < n {
		return nil, fmt.Errorf("%w: requested %d, store supplied %d", ErrInsufficientQuestions, n, len(selected))
	}

	// Uniform shuffle so topic blocks are not contiguous.
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	s.logger.Debug("built question sequence",
		"user_id", userID,
		"count", len(selected),
		"restricted_topics", len(restricted))
	return selected, nil
}

// weakTopics returns the user's topics below the proficiency threshold,
// weakest first. An empty result means the draw is unrestricted.
func (s *AdaptiveSelector) weakTopics(ctx context.Context, repo repositories.Repository, tracker ProficiencyTracker, userID string) ([]string, error) {
	progress, err := repo.Progress().ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("failed to load topic progress", err)
	}

	below := make([]*models.TopicProgress, 0, len(progress))
	for _, tp := range progress {
		if tp.ProficiencyPercentage() < weakTopicThreshold {
			below = append(below, tp)
		}
	}
	return tracker.Recommend(below, len(below)), nil
}
