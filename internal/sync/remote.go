package sync

import (
	"context"
	"errors"

	"github.com/studypath/practice-engine/internal/models"
)

// ErrRemoteUnavailable marks transient remote-store failures. The coordinator
// retries these with backoff; they never propagate to foreground operations.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// RemoteStore is the authoritative copy the coordinator reconciles against.
// All records are keyed by the globally-unique id assigned at local creation,
// so offline-created records merge without renumbering. Responses are
// set-inserted (present or absent, never updated); Session and UserProfile
// are last-write-wins by their revision counter.
type RemoteStore interface {
	// PutResponse inserts the ledger entry if absent. Re-putting an existing
	// id is a no-op, which makes pushes safely repeatable.
	PutResponse(ctx context.Context, response *models.Response) error
	ListResponses(ctx context.Context, userID string) ([]*models.Response, error)

	GetSession(ctx context.Context, id string) (*models.Session, error)
	PutSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context, userID string) ([]*models.Session, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	PutProfile(ctx context.Context, profile *models.UserProfile) error
}
