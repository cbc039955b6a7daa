package gormdb

import (
	"context"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New wraps a gorm handle (sqlite on device, postgres server-side) in the
// Repository interface.
func New(db *gorm.DB) repositories.Repository {
	return &repository{db: db}
}

func (r *repository) Questions() repositories.QuestionRepository {
	return &questionGorm{db: r.db}
}

func (r *repository) Sessions() repositories.SessionRepository {
	return &sessionGorm{db: r.db}
}

func (r *repository) Responses() repositories.ResponseRepository {
	return &responseGorm{db: r.db}
}

func (r *repository) Progress() repositories.ProgressRepository {
	return &progressGorm{db: r.db}
}

func (r *repository) Profiles() repositories.ProfileRepository {
	return &profileGorm{db: r.db}
}

func (r *repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// AutoMigrate creates or updates the five entity tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Question{},
		&models.Session{},
		&models.Response{},
		&models.TopicProgress{},
		&models.UserProfile{},
	)
}
