package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventResponseRecorded EventType = "practice.response.recorded"
	EventSessionCompleted EventType = "practice.session.completed"
	EventSyncReconciled   EventType = "practice.sync.reconciled"
)

const (
	eventSource  = "practice-engine"
	eventVersion = "1.0"
)

// Event is the envelope published for the analytics and notification
// collaborators.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type ResponseRecordedEvent struct {
	ResponseID string  `json:"response_id"`
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	UserID     string  `json:"user_id"`
	Topic      string  `json:"topic"`
	IsCorrect  bool    `json:"is_correct"`
	TimeTaken  float64 `json:"time_taken_seconds"`
}

type SessionCompletedEvent struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	SessionType     string `json:"session_type"`
	TotalQuestions  int    `json:"total_questions"`
	CorrectAnswers  int    `json:"correct_answers"`
	DurationSeconds int    `json:"duration_seconds"`
}

type SyncReconciledEvent struct {
	UserID          string `json:"user_id"`
	PushedResponses int    `json:"pushed_responses"`
	PulledResponses int    `json:"pulled_responses"`
	PushedSessions  int    `json:"pushed_sessions"`
	PulledSessions  int    `json:"pulled_sessions"`
	Conflicts       int    `json:"conflicts"`
	Recomputed      bool   `json:"recomputed"`
}
