package gormdb

import (
	"context"
	"errors"

	"github.com/studypath/practice-engine/internal/models"
	"gorm.io/gorm"
)

type progressGorm struct {
	db *gorm.DB
}

func (p *progressGorm) GetByUserTopic(ctx context.Context, userID, topic string) (*models.TopicProgress, error) {
	var progress models.TopicProgress
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
		First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

func (p *progressGorm) Save(ctx context.Context, progress *models.TopicProgress) error {
	return p.db.WithContext(ctx).Save(progress).Error
}

func (p *progressGorm) ListByUser(ctx context.Context, userID string) ([]*models.TopicProgress, error) {
	var list []*models.TopicProgress
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (p *progressGorm) ReplaceForUser(ctx context.Context, userID string, progress []*models.TopicProgress) error {
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.TopicProgress{}).Error; err != nil {
		return err
	}
	if len(progress) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Create(progress).Error
}
