package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionType string

const (
	SessionPractice       SessionType = "practice"
	SessionFullTest       SessionType = "full_test"
	SessionTopicReview    SessionType = "topic_review"
	SessionDailyChallenge SessionType = "daily_challenge"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionPractice, SessionFullTest, SessionTopicReview, SessionDailyChallenge:
		return true
	}
	return false
}

// Session is one bounded practice/test attempt. The id is assigned locally at
// creation so sessions created offline merge without renumbering. Revision is
// a monotonic local counter bumped on every mutation; PushedRevision tracks
// what the remote store has acknowledged.
type Session struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	UserID      string      `json:"user_id" gorm:"not null;size:255;index"`
	DeviceID    string      `json:"device_id" gorm:"not null;size:128;index"`
	SessionType SessionType `json:"session_type" gorm:"not null;size:20;index"`

	Topics     datatypes.JSONSlice[string] `json:"topics"`
	Difficulty *Difficulty                 `json:"difficulty" gorm:"size:10"`

	// Ordered question sequence materialized at creation, fixed thereafter.
	QuestionIDs  datatypes.JSONSlice[string] `json:"question_ids" gorm:"not null"`
	CurrentIndex int                         `json:"current_index" gorm:"default:0"`

	TotalQuestions int `json:"total_questions" gorm:"not null"`
	CorrectAnswers int `json:"correct_answers" gorm:"default:0"`

	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds int        `json:"duration_seconds" gorm:"default:0"`
	Completed       bool       `json:"completed" gorm:"default:false;index"`

	Revision       int64 `json:"revision" gorm:"default:1"`
	PushedRevision int64 `json:"-" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// CurrentQuestionID returns the question under the cursor. ok is false once
// the cursor has no question to point at (empty or exhausted sequence).
func (s *Session) CurrentQuestionID() (string, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return "", false
	}
	return s.QuestionIDs[s.CurrentIndex], true
}

// OnLastQuestion reports whether the cursor sits on the final question.
func (s *Session) OnLastQuestion() bool {
	return s.CurrentIndex == len(s.QuestionIDs)-1
}

// Touch bumps the local revision counter. Every mutation that will be synced
// must call this inside the same transaction.
func (s *Session) Touch() {
	s.Revision++
}

// Dirty reports whether the session has local mutations the remote store has
// not acknowledged yet.
func (s *Session) Dirty() bool {
	return s.Revision > s.PushedRevision
}
