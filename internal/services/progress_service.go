package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
)

// ProficiencyTracker maintains the per (user, topic) aggregates.
type ProficiencyTracker interface {
	// RecordAnswer increments the aggregate for one ledger entry. It must be
	// called exactly once per locally-created Response, inside the same
	// transaction as the ledger append; repo is the tx-bound repository.
	RecordAnswer(ctx context.Context, repo repositories.Repository, userID, topic string, isCorrect bool, now time.Time) (*models.TopicProgress, error)

	// Recommend returns up to n topics sorted weakest first, ties broken by
	// least recently practiced.
	Recommend(progress []*models.TopicProgress, n int) []string

	// Recompute rebuilds every aggregate for the user from a consistent
	// snapshot of the response ledger. Used after sync merges, where
	// incremental adjustment cannot be trusted.
	Recompute(ctx context.Context, repo repositories.Repository, userID string) error

	ListByUser(ctx context.Context, userID string) ([]*models.TopicProgress, error)
}

type proficiencyTracker struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewProficiencyTracker(repo repositories.Repository, logger *slog.Logger) ProficiencyTracker {
	return &proficiencyTracker{
		repo:   repo,
		logger: logger,
	}
}

func (t *proficiencyTracker) RecordAnswer(ctx context.Context, repo repositories.Repository, userID, topic string, isCorrect bool, now time.Time) (*models.TopicProgress, error) {
	progress, err := repo.Progress().GetByUserTopic(ctx, userID, topic)
	if err != nil {
		return nil, storageErr("failed to load topic progress", err)
	}
	if progress == nil {
		progress = &models.TopicProgress{
			ID:     uuid.NewString(),
			UserID: userID,
			Topic:  topic,
		}
	}

	progress.QuestionsAttempted++
	if isCorrect {
		progress.CorrectAnswers++
	}
	progress.LastPracticed = &now

	if err := repo.Progress().Save(ctx, progress); err != nil {
		return nil, storageErr("failed to save topic progress", err)
	}
	return progress, nil
}

func (t *proficiencyTracker) Recommend(progress []*models.TopicProgress, n int) []string {
	if n <= 0 || len(progress) == 0 {
		return nil
	}

	sorted := make([]*models.TopicProgress, len(progress))
	copy(sorted, progress)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].ProficiencyPercentage(), sorted[j].ProficiencyPercentage()
		if pi != pj {
			return pi < pj
		}
		return lessRecentlyPracticed(sorted[i].LastPracticed, sorted[j].LastPracticed)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	topics := make([]string, 0, n)
	for _, tp := range sorted[:n] {
		topics = append(topics, tp.Topic)
	}
	return topics
}

// lessRecentlyPracticed orders nil (never practiced) before any timestamp.
func lessRecentlyPracticed(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func (t *proficiencyTracker) Recompute(ctx context.Context, repo repositories.Repository, userID string) error {
	responses, err := repo.Responses().ByUser(ctx, userID)
	if err != nil {
		return storageErr("failed to snapshot response ledger", err)
	}

	// Resolve topics through the question catalogue. Responses whose question
	// has not synced yet cannot contribute to a topic and are skipped until
	// the question arrives.
	ids := make([]string, 0, len(responses))
	seen := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		if _, ok := seen[r.QuestionID]; ok {
			continue
		}
		seen[r.QuestionID] = struct{}{}
		ids = append(ids, r.QuestionID)
	}
	questions, err := repo.Questions().GetByIDs(ctx, ids)
	if err != nil {
		return storageErr("failed to resolve questions for recompute", err)
	}
	topicByQuestion := make(map[string]string, len(questions))
	for _, q := range questions {
		topicByQuestion[q.ID] = q.Topic
	}

	byTopic := make(map[string]*models.TopicProgress)
	skipped := 0
	for _, r := range responses {
		topic, ok := topicByQuestion[r.QuestionID]
		if !ok {
			skipped++
			continue
		}
		tp := byTopic[topic]
		if tp == nil {
			tp = &models.TopicProgress{
				ID:     uuid.NewString(),
				UserID: userID,
				Topic:  topic,
			}
			byTopic[topic] = tp
		}
		tp.QuestionsAttempted++
		if r.IsCorrect {
			tp.CorrectAnswers++
		}
		ts := r.Timestamp
		if tp.LastPracticed == nil || ts.After(*tp.LastPracticed) {
			tp.LastPracticed = &ts
		}
	}

	rebuilt := make([]*models.TopicProgress, 0, len(byTopic))
	for _, tp := range byTopic {
		rebuilt = append(rebuilt, tp)
	}
	sort.Slice(rebuilt, func(i, j int) bool { return rebuilt[i].Topic < rebuilt[j].Topic })

	if err := repo.Progress().ReplaceForUser(ctx, userID, rebuilt); err != nil {
		return storageErr("failed to replace topic progress", err)
	}

	// Pulled responses bypass the incremental attempt counters on the
	// question rows, so the touched questions get their rollups rebuilt from
	// the ledger too.
	if err := repo.Questions().RebuildAttempts(ctx, ids); err != nil {
		return storageErr("failed to rebuild question attempt counters", err)
	}

	if skipped > 0 {
		t.logger.Warn("recompute skipped responses with unresolved questions",
			"user_id", userID,
			"skipped", skipped)
	}
	t.logger.Info("recomputed topic progress",
		"user_id", userID,
		"topics", len(rebuilt),
		"responses", len(responses))
	return nil
}

func (t *proficiencyTracker) ListByUser(ctx context.Context, userID string) ([]*models.TopicProgress, error) {
	list, err := t.repo.Progress().ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("failed to list topic progress", err)
	}
	return list, nil
}
