package services

import (
	"context"
	"log/slog"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
)

// AnalyticsService is the read surface for review screens: proficiency,
// profile, and ledger history queries.
type AnalyticsService interface {
	Progress(ctx context.Context, userID string) ([]*models.TopicProgress, error)
	RecommendedTopics(ctx context.Context, userID string, n int) ([]string, error)
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	ResponseHistory(ctx context.Context, filters repositories.ResponseRangeFilters) ([]*models.Response, error)
}

type analyticsService struct {
	repo    repositories.Repository
	tracker ProficiencyTracker
	logger  *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, tracker ProficiencyTracker, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:    repo,
		tracker: tracker,
		logger:  logger,
	}
}

func (s *analyticsService) Progress(ctx context.Context, userID string) ([]*models.TopicProgress, error) {
	return s.tracker.ListByUser(ctx, userID)
}

func (s *analyticsService) RecommendedTopics(ctx context.Context, userID string, n int) ([]string, error) {
	progress, err := s.tracker.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.tracker.Recommend(progress, n), nil
}

func (s *analyticsService) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.repo.Profiles().GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr("failed to get user profile", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *analyticsService) ResponseHistory(ctx context.Context, filters repositories.ResponseRangeFilters) ([]*models.Response, error) {
	responses, err := s.repo.Responses().InRange(ctx, filters)
	if err != nil {
		return nil, storageErr("failed to query response history", err)
	}
	return responses, nil
}
