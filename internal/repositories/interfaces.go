package repositories

import (
	"context"
	"time"

	"github.com/studypath/practice-engine/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// QuestionFilters is a pure conjunction: an absent filter imposes no
// constraint. Results are ordered least-recently-attempted first, with
// never-attempted questions sorting before everything else.
type QuestionFilters struct {
	Topics     []string           `json:"topics"`
	Difficulty *models.Difficulty `json:"difficulty"`
	ExcludeIDs []string           `json:"exclude_ids"`
	Limit      int                `json:"limit"`
}

type ResponseRangeFilters struct {
	UserID string     `json:"user_id"`
	Topic  *string    `json:"topic"`
	From   time.Time  `json:"from"`
	To     time.Time  `json:"to"`
}

// ===== ENTITY REPOSITORIES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, error)
	Count(ctx context.Context) (int64, error)
	ExistsByText(ctx context.Context, text string) (bool, error)

	// RecordAttempt maintains the rollup cache on the question row.
	RecordAttempt(ctx context.Context, id string, correct bool, at time.Time) error

	// RebuildAttempts recomputes the rollup cache for the given questions
	// from the response ledger. Pulled responses bypass RecordAttempt, so the
	// post-merge recompute pass calls this to bring the cache back in line
	// with what the ledger implies.
	RebuildAttempts(ctx context.Context, ids []string) error

	// UpdateCorrectOption supports re-import corrections of the answer key.
	// Historical responses are unaffected by design.
	UpdateCorrectOption(ctx context.Context, id string, option models.AnswerOption) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)

	// GetOpenSession returns the single not-yet-completed session of the given
	// type for (user, device), or nil when there is none.
	GetOpenSession(ctx context.Context, userID, deviceID string, sessionType models.SessionType) (*models.Session, error)

	// ListDirty returns sessions whose revision is ahead of what the remote
	// store has acknowledged.
	ListDirty(ctx context.Context, userID string) ([]*models.Session, error)
}

type ResponseRepository interface {
	// Append inserts a ledger entry. The ledger never edits or removes rows.
	Append(ctx context.Context, response *models.Response) error

	Exists(ctx context.Context, id string) (bool, error)
	BySession(ctx context.Context, sessionID string) ([]*models.Response, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	HasResponse(ctx context.Context, sessionID, questionID string) (bool, error)
	ByUser(ctx context.Context, userID string) ([]*models.Response, error)
	InRange(ctx context.Context, filters ResponseRangeFilters) ([]*models.Response, error)

	ListUnsynced(ctx context.Context, userID string) ([]*models.Response, error)
	MarkSynced(ctx context.Context, ids []string, at time.Time) error
}

type ProgressRepository interface {
	GetByUserTopic(ctx context.Context, userID, topic string) (*models.TopicProgress, error)
	Save(ctx context.Context, progress *models.TopicProgress) error
	ListByUser(ctx context.Context, userID string) ([]*models.TopicProgress, error)

	// ReplaceForUser swaps the user's whole aggregate set in one statement
	// pair; used by the post-merge recompute pass.
	ReplaceForUser(ctx context.Context, userID string, progress []*models.TopicProgress) error
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
	GetOrCreate(ctx context.Context, id string) (*models.UserProfile, error)
	Update(ctx context.Context, profile *models.UserProfile) error
	ListIDs(ctx context.Context) ([]string, error)
}

// ===== UMBRELLA =====

// Repository bundles the entity repositories. WithTx runs fn against a
// transaction-bound Repository; everything fn touches commits atomically or
// not at all.
type Repository interface {
	Questions() QuestionRepository
	Sessions() SessionRepository
	Responses() ResponseRepository
	Progress() ProgressRepository
	Profiles() ProfileRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}
