package models

import "time"

type ProficiencyLevel string

const (
	LevelBeginner     ProficiencyLevel = "beginner"
	LevelDeveloping   ProficiencyLevel = "developing"
	LevelIntermediate ProficiencyLevel = "intermediate"
	LevelProficient   ProficiencyLevel = "proficient"
	LevelExpert       ProficiencyLevel = "expert"
)

// LevelForPercentage classifies a proficiency percentage into a step level.
func LevelForPercentage(pct float64) ProficiencyLevel {
	switch {
	case pct < 20:
		return LevelBeginner
	case pct < 40:
		return LevelDeveloping
	case pct < 60:
		return LevelIntermediate
	case pct < 80:
		return LevelProficient
	default:
		return LevelExpert
	}
}

// TopicProgress is the per (user, topic) aggregate derived from the response
// ledger. The counters are maintained incrementally per answer and rebuilt
// from scratch after a sync merge; percentage and level are computed on read.
type TopicProgress struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_progress_user_topic"`
	Topic  string `json:"topic" gorm:"not null;size:100;uniqueIndex:idx_progress_user_topic"`

	QuestionsAttempted int        `json:"questions_attempted" gorm:"default:0"`
	CorrectAnswers     int        `json:"correct_answers" gorm:"default:0"`
	LastPracticed      *time.Time `json:"last_practiced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TopicProgress) TableName() string {
	return "topic_progress"
}

// ProficiencyPercentage is correct/attempted as a percentage, 0 when nothing
// has been attempted.
func (tp *TopicProgress) ProficiencyPercentage() float64 {
	if tp.QuestionsAttempted == 0 {
		return 0
	}
	return float64(tp.CorrectAnswers) / float64(tp.QuestionsAttempted) * 100
}

func (tp *TopicProgress) Level() ProficiencyLevel {
	return LevelForPercentage(tp.ProficiencyPercentage())
}
