// Package memory provides an in-process Repository. It backs unit tests and
// ad-hoc tooling where a database is overkill. WithTx is not transactional:
// writes apply immediately, so it is unsuitable for code that relies on
// rollback.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
)

type Store struct {
	mu sync.Mutex

	questions     map[string]*models.Question
	questionOrder []string
	sessions      map[string]*models.Session
	responses     []*models.Response
	progress      map[string]*models.TopicProgress
	profiles      map[string]*models.UserProfile
}

var _ repositories.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		questions: make(map[string]*models.Question),
		sessions:  make(map[string]*models.Session),
		progress:  make(map[string]*models.TopicProgress),
		profiles:  make(map[string]*models.UserProfile),
	}
}

func (s *Store) Questions() repositories.QuestionRepository { return (*questionStore)(s) }
func (s *Store) Sessions() repositories.SessionRepository   { return (*sessionStore)(s) }
func (s *Store) Responses() repositories.ResponseRepository { return (*responseStore)(s) }
func (s *Store) Progress() repositories.ProgressRepository  { return (*progressStore)(s) }
func (s *Store) Profiles() repositories.ProfileRepository   { return (*profileStore)(s) }

func (s *Store) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(s)
}

func progressKey(userID, topic string) string {
	return userID + "\x00" + topic
}

// ===== QUESTIONS =====

type questionStore Store

func (s *questionStore) Create(ctx context.Context, question *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *question
	s.questions[question.ID] = &clone
	s.questionOrder = append(s.questionOrder, question.ID)
	return nil
}

func (s *questionStore) CreateBatch(ctx context.Context, questions []*models.Question) error {
	for _, q := range questions {
		if err := s.Create(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *questionStore) GetByID(ctx context.Context, id string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	clone := *q
	return &clone, nil
}

func (s *questionStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			clone := *q
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *questionStore) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topicSet := make(map[string]struct{}, len(filters.Topics))
	for _, t := range filters.Topics {
		topicSet[t] = struct{}{}
	}
	excluded := make(map[string]struct{}, len(filters.ExcludeIDs))
	for _, id := range filters.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var out []*models.Question
	for _, id := range s.questionOrder {
		q := s.questions[id]
		if len(topicSet) > 0 {
			if _, ok := topicSet[q.Topic]; !ok {
				continue
			}
		}
		if filters.Difficulty != nil && q.Difficulty != *filters.Difficulty {
			continue
		}
		if _, ok := excluded[q.ID]; ok {
			continue
		}
		clone := *q
		out = append(out, &clone)
	}

	// Never-attempted first, then least recently attempted.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastAttempted, out[j].LastAttempted
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})

	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *questionStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.questions)), nil
}

func (s *questionStore) ExistsByText(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (s *questionStore) RecordAttempt(ctx context.Context, id string, correct bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil
	}
	q.TimesAttempted++
	if correct {
		q.TimesCorrect++
	}
	t := at
	q.LastAttempted = &t
	return nil
}

func (s *questionStore) RebuildAttempts(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		q, ok := s.questions[id]
		if !ok {
			continue
		}
		q.TimesAttempted = 0
		q.TimesCorrect = 0
		q.LastAttempted = nil
		for _, r := range s.responses {
			if r.QuestionID != id {
				continue
			}
			q.TimesAttempted++
			if r.IsCorrect {
				q.TimesCorrect++
			}
			if q.LastAttempted == nil || r.Timestamp.After(*q.LastAttempted) {
				t := r.Timestamp
				q.LastAttempted = &t
			}
		}
	}
	return nil
}

func (s *questionStore) UpdateCorrectOption(ctx context.Context, id string, option models.AnswerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.questions[id]; ok {
		q.CorrectOption = option
	}
	return nil
}

// ===== SESSIONS =====

type sessionStore Store

func (s *sessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *sessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (s *sessionStore) Update(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *sessionStore) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			clone := *session
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *sessionStore) GetOpenSession(ctx context.Context, userID, deviceID string, sessionType models.SessionType) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.UserID == userID && session.DeviceID == deviceID &&
			session.SessionType == sessionType && !session.Completed {
			clone := *session
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *sessionStore) ListDirty(ctx context.Context, userID string) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.Dirty() {
			clone := *session
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ===== RESPONSES =====

type responseStore Store

func (s *responseStore) Append(ctx context.Context, response *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *response
	s.responses = append(s.responses, &clone)
	return nil
}

func (s *responseStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *responseStore) BySession(ctx context.Context, sessionID string) ([]*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Response
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			clone := *r
			out = append(out, &clone)
		}
	}
	// Timestamp order, not ordinal: after a merge both devices' entries for
	// the same session carry overlapping ordinals.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out, nil
}

func (s *responseStore) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (s *responseStore) HasResponse(ctx context.Context, sessionID, questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.SessionID == sessionID && r.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *responseStore) ByUser(ctx context.Context, userID string) ([]*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Response
	for _, r := range s.responses {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *responseStore) InRange(ctx context.Context, filters repositories.ResponseRangeFilters) ([]*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Response
	for _, r := range s.responses {
		if r.UserID != filters.UserID {
			continue
		}
		if !filters.From.IsZero() && r.Timestamp.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && r.Timestamp.After(filters.To) {
			continue
		}
		if filters.Topic != nil {
			q, ok := s.questions[r.QuestionID]
			if !ok || q.Topic != *filters.Topic {
				continue
			}
		}
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *responseStore) ListUnsynced(ctx context.Context, userID string) ([]*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Response
	for _, r := range s.responses {
		if r.UserID == userID && r.SyncedAt == nil {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *responseStore) MarkSynced(ctx context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	for _, r := range s.responses {
		if _, ok := idSet[r.ID]; ok {
			t := at
			r.SyncedAt = &t
		}
	}
	return nil
}

// ===== TOPIC PROGRESS =====

type progressStore Store

func (s *progressStore) GetByUserTopic(ctx context.Context, userID, topic string) (*models.TopicProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tp, ok := s.progress[progressKey(userID, topic)]
	if !ok {
		return nil, nil
	}
	clone := *tp
	return &clone, nil
}

func (s *progressStore) Save(ctx context.Context, progress *models.TopicProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *progress
	s.progress[progressKey(progress.UserID, progress.Topic)] = &clone
	return nil
}

func (s *progressStore) ListByUser(ctx context.Context, userID string) ([]*models.TopicProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TopicProgress
	for _, tp := range s.progress {
		if tp.UserID == userID {
			clone := *tp
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

func (s *progressStore) ReplaceForUser(ctx context.Context, userID string, progress []*models.TopicProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, tp := range s.progress {
		if tp.UserID == userID {
			delete(s.progress, key)
		}
	}
	for _, tp := range progress {
		clone := *tp
		s.progress[progressKey(tp.UserID, tp.Topic)] = &clone
	}
	return nil
}

// ===== PROFILES =====

type profileStore Store

func (s *profileStore) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (s *profileStore) GetOrCreate(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		clone := *p
		return &clone, nil
	}
	p := &models.UserProfile{ID: id, Revision: 1}
	s.profiles[id] = p
	clone := *p
	return &clone, nil
}

func (s *profileStore) Update(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *profile
	s.profiles[profile.ID] = &clone
	return nil
}

func (s *profileStore) ListIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
