package models

import "time"

// UserProfile carries lifetime totals and the activity streak. The id is the
// opaque stable identity supplied by the identity collaborator; this core
// never authenticates. Totals and streak mutate only at session completion.
type UserProfile struct {
	ID          string `json:"id" gorm:"primaryKey;size:255"`
	DisplayName string `json:"display_name" gorm:"size:100"`

	Streak                 int        `json:"streak" gorm:"default:0"`
	TotalQuestionsAnswered int        `json:"total_questions_answered" gorm:"default:0"`
	TotalCorrectAnswers    int        `json:"total_correct_answers" gorm:"default:0"`
	LastActive             *time.Time `json:"last_active"`

	Revision       int64 `json:"revision" gorm:"default:1"`
	PushedRevision int64 `json:"-" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (p *UserProfile) Touch() {
	p.Revision++
}

func (p *UserProfile) Dirty() bool {
	return p.Revision > p.PushedRevision
}
