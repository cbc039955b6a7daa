package gormdb

import (
	"context"
	"errors"
	"time"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"gorm.io/gorm"
)

type questionGorm struct {
	db *gorm.DB
}

func (q *questionGorm) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q *questionGorm) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(questions).Error
}

func (q *questionGorm) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &question, nil
}

func (q *questionGorm) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []*models.Question
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *questionGorm) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, error) {
	query := q.db.WithContext(ctx).Model(&models.Question{})

	if len(filters.Topics) > 0 {
		query = query.Where("topic IN ?", filters.Topics)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if len(filters.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filters.ExcludeIDs)
	}

	// Never-attempted first, then least recently attempted.
	query = query.Order("last_attempted IS NOT NULL").Order("last_attempted ASC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *questionGorm) Count(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&models.Question{}).Count(&count).Error
	return count, err
}

func (q *questionGorm) ExistsByText(ctx context.Context, text string) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("text = ?", text).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q *questionGorm) RecordAttempt(ctx context.Context, id string, correct bool, at time.Time) error {
	updates := map[string]interface{}{
		"times_attempted": gorm.Expr("times_attempted + 1"),
		"last_attempted":  at,
	}
	if correct {
		updates["times_correct"] = gorm.Expr("times_correct + 1")
	}
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (q *questionGorm) RebuildAttempts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	// Correlated subqueries over the full ledger, so attempts from every user
	// count, not just the one being reconciled.
	return q.db.WithContext(ctx).Exec(`
		UPDATE questions SET
			times_attempted = (SELECT COUNT(*) FROM responses WHERE responses.question_id = questions.id),
			times_correct = (SELECT COUNT(*) FROM responses WHERE responses.question_id = questions.id AND responses.is_correct),
			last_attempted = (SELECT MAX(timestamp) FROM responses WHERE responses.question_id = questions.id)
		WHERE questions.id IN ?`, ids).Error
}

func (q *questionGorm) UpdateCorrectOption(ctx context.Context, id string, option models.AnswerOption) error {
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Update("correct_option", option).Error
}
