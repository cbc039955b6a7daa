package models

import (
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type AnswerOption string

const (
	OptionA AnswerOption = "A"
	OptionB AnswerOption = "B"
	OptionC AnswerOption = "C"
	OptionD AnswerOption = "D"
	OptionE AnswerOption = "E"
)

func (o AnswerOption) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD, OptionE:
		return true
	}
	return false
}

// Question is immutable once imported, except for the rollup fields which
// cache what the response ledger implies (attempt counts, last seen).
type Question struct {
	ID            string       `json:"id" gorm:"primaryKey;size:36"`
	Text          string       `json:"text" gorm:"not null;type:text" validate:"required"`
	OptionA       string       `json:"option_a" gorm:"not null" validate:"required"`
	OptionB       string       `json:"option_b" gorm:"not null" validate:"required"`
	OptionC       string       `json:"option_c" gorm:"not null" validate:"required"`
	OptionD       string       `json:"option_d" gorm:"not null" validate:"required"`
	OptionE       string       `json:"option_e" gorm:"not null" validate:"required"`
	CorrectOption AnswerOption `json:"correct_option" gorm:"not null;size:1" validate:"required,oneof=A B C D E"`
	Topic         string       `json:"topic" gorm:"not null;size:100;index" validate:"required,max=100"`
	Difficulty    Difficulty   `json:"difficulty" gorm:"not null;size:10;index" validate:"required,oneof=easy medium hard"`

	// Rollup cache derived from the response ledger. Never authoritative.
	TimesAttempted int        `json:"times_attempted" gorm:"default:0"`
	TimesCorrect   int        `json:"times_correct" gorm:"default:0"`
	LastAttempted  *time.Time `json:"last_attempted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// IsCorrect reports whether the given option matches the answer key.
func (q *Question) IsCorrect(selected AnswerOption) bool {
	return selected == q.CorrectOption
}

// ImportedQuestion is the batch-import contract supplied by the question
// import collaborator. Parsing correctness is the producer's problem; the
// store only enforces the text-dedup contract on ingest.
type ImportedQuestion struct {
	Text          string       `json:"text" validate:"required"`
	OptionA       string       `json:"option_a" validate:"required"`
	OptionB       string       `json:"option_b" validate:"required"`
	OptionC       string       `json:"option_c" validate:"required"`
	OptionD       string       `json:"option_d" validate:"required"`
	OptionE       string       `json:"option_e" validate:"required"`
	CorrectOption AnswerOption `json:"correct_option" validate:"required,oneof=A B C D E"`
	Topic         string       `json:"topic" validate:"required,max=100"`
	Difficulty    Difficulty   `json:"difficulty" validate:"required,oneof=easy medium hard"`
}
