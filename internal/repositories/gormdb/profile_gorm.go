package gormdb

import (
	"context"
	"errors"

	"github.com/studypath/practice-engine/internal/models"
	"gorm.io/gorm"
)

type profileGorm struct {
	db *gorm.DB
}

func (p *profileGorm) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := p.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (p *profileGorm) GetOrCreate(ctx context.Context, id string) (*models.UserProfile, error) {
	profile, err := p.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	profile = &models.UserProfile{ID: id, Revision: 1}
	if err := p.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *profileGorm) Update(ctx context.Context, profile *models.UserProfile) error {
	return p.db.WithContext(ctx).Save(profile).Error
}

func (p *profileGorm) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
