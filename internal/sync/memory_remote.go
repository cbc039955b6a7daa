package sync

import (
	"context"
	stdsync "sync"

	"github.com/studypath/practice-engine/internal/models"
)

// MemoryRemoteStore is an in-process RemoteStore. It backs tests and serves
// as the reference semantics for real backends: responses are set-inserted,
// sessions and profiles are plain key-value puts.
type MemoryRemoteStore struct {
	mu        stdsync.Mutex
	responses map[string]*models.Response
	sessions  map[string]*models.Session
	profiles  map[string]*models.UserProfile

	// Unavailable makes every call fail with ErrRemoteUnavailable, to
	// exercise the coordinator's retry path.
	Unavailable bool
}

func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{
		responses: make(map[string]*models.Response),
		sessions:  make(map[string]*models.Session),
		profiles:  make(map[string]*models.UserProfile),
	}
}

func (m *MemoryRemoteStore) PutResponse(ctx context.Context, response *models.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrRemoteUnavailable
	}
	if _, exists := m.responses[response.ID]; exists {
		return nil
	}
	clone := *response
	m.responses[response.ID] = &clone
	return nil
}

func (m *MemoryRemoteStore) ListResponses(ctx context.Context, userID string) ([]*models.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, ErrRemoteUnavailable
	}
	var out []*models.Response
	for _, r := range m.responses {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MemoryRemoteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, ErrRemoteUnavailable
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (m *MemoryRemoteStore) PutSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrRemoteUnavailable
	}
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *MemoryRemoteStore) ListSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, ErrRemoteUnavailable
	}
	var out []*models.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MemoryRemoteStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return nil, ErrRemoteUnavailable
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryRemoteStore) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrRemoteUnavailable
	}
	clone := *profile
	m.profiles[profile.ID] = &clone
	return nil
}

// ResponseCount reports how many ledger entries the remote holds.
func (m *MemoryRemoteStore) ResponseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}
