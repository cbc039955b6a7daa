package gormdb

import (
	"context"
	"time"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"gorm.io/gorm"
)

type responseGorm struct {
	db *gorm.DB
}

func (r *responseGorm) Append(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *responseGorm) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *responseGorm) BySession(ctx context.Context, sessionID string) ([]*models.Response, error) {
	var responses []*models.Response
	// Timestamp order, not ordinal: after a merge both devices' entries for
	// the same session carry overlapping ordinals.
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").Order("ordinal ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseGorm) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *responseGorm) HasResponse(ctx context.Context, sessionID, questionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *responseGorm) ByUser(ctx context.Context, userID string) ([]*models.Response, error) {
	var responses []*models.Response
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseGorm) InRange(ctx context.Context, filters repositories.ResponseRangeFilters) ([]*models.Response, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("responses.user_id = ?", filters.UserID)

	// Zero bounds mean unbounded.
	if !filters.From.IsZero() {
		query = query.Where("responses.timestamp >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("responses.timestamp <= ?", filters.To)
	}

	if filters.Topic != nil {
		query = query.
			Joins("JOIN questions ON questions.id = responses.question_id").
			Where("questions.topic = ?", *filters.Topic)
	}

	var responses []*models.Response
	if err := query.Order("responses.timestamp ASC").Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseGorm) ListUnsynced(ctx context.Context, userID string) ([]*models.Response, error) {
	var responses []*models.Response
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND synced_at IS NULL", userID).
		Order("timestamp ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseGorm) MarkSynced(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("id IN ?", ids).
		Update("synced_at", at).Error
}
