package models

import "time"

// Response is one answered question within a session. The ledger is
// append-only: a response is never mutated after creation, and IsCorrect is
// frozen at append time so a later correction of the question's answer key
// cannot rewrite history.
type Response struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	SessionID  string `json:"session_id" gorm:"not null;size:36;index"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;index"`
	UserID     string `json:"user_id" gorm:"not null;size:255;index"`

	SelectedOption      AnswerOption `json:"selected_option" gorm:"not null;size:1"`
	IsCorrect           bool         `json:"is_correct" gorm:"not null"`
	Ordinal             int          `json:"ordinal" gorm:"not null"`
	Timestamp           time.Time    `json:"timestamp" gorm:"not null;index"`
	ResponseTimeSeconds float64      `json:"response_time_seconds" gorm:"default:0"`

	// SyncedAt is set once the remote store has acknowledged this entry.
	SyncedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}
