package gormdb

import (
	"context"
	"errors"

	"github.com/studypath/practice-engine/internal/models"
	"gorm.io/gorm"
)

type sessionGorm struct {
	db *gorm.DB
}

func (s *sessionGorm) Create(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *sessionGorm) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *sessionGorm) Update(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s *sessionGorm) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *sessionGorm) GetOpenSession(ctx context.Context, userID, deviceID string, sessionType models.SessionType) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND device_id = ? AND session_type = ? AND completed = ?",
			userID, deviceID, sessionType, false).
		Order("start_time DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *sessionGorm) ListDirty(ctx context.Context, userID string) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND revision > pushed_revision", userID).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
