package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypath/practice-engine/internal/events"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories/memory"
	"github.com/studypath/practice-engine/internal/validator"
)

type sessionFixture struct {
	store     *memory.Store
	service   *sessionService
	publisher *events.MockEventPublisher
	clock     time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := memory.New()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	tracker := NewProficiencyTracker(store, logger)
	selector := NewAdaptiveSelector(logger)

	svc := NewSessionService(store, selector, tracker, publisher, logger, validator.New()).(*sessionService)

	f := &sessionFixture{
		store:     store,
		service:   svc,
		publisher: publisher,
		clock:     timeNowFixed(),
	}
	svc.now = func() time.Time { return f.clock }
	return f
}

func (f *sessionFixture) createSession(t *testing.T, userID string, total int) *SessionSnapshot {
	t.Helper()
	snapshot, err := f.service.Create(context.Background(), &CreateSessionRequest{
		UserID:         userID,
		DeviceID:       "device-1",
		SessionType:    models.SessionPractice,
		TotalQuestions: total,
	})
	require.NoError(t, err)
	return snapshot
}

// answerCurrent answers the session's current question, correctly or not.
func (f *sessionFixture) answerCurrent(t *testing.T, sessionID, userID string, correct bool) *models.Response {
	t.Helper()
	ctx := context.Background()

	session, err := f.store.Sessions().GetByID(ctx, sessionID)
	require.NoError(t, err)
	questionID, ok := session.CurrentQuestionID()
	require.True(t, ok)
	question, err := f.store.Questions().GetByID(ctx, questionID)
	require.NoError(t, err)

	selected := question.CorrectOption
	if !correct {
		if selected == models.OptionA {
			selected = models.OptionB
		} else {
			selected = models.OptionA
		}
	}

	response, err := f.service.Answer(ctx, sessionID, userID, &AnswerRequest{
		SelectedOption:      selected,
		ResponseTimeSeconds: 4.2,
	})
	require.NoError(t, err)
	return response
}

func TestCreateSessionResumesOpenPractice(t *testing.T) {
	f := newSessionFixture(t)
	for i := 0; i < 5; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	first := f.createSession(t, "user-1", 3)
	second := f.createSession(t, "user-1", 3)

	assert.Equal(t, first.Session.ID, second.Session.ID, "open practice session should be resumed, not duplicated")
}

func TestAnswerRecordsLedgerAndProgress(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 3)
	response := f.answerCurrent(t, snap.Session.ID, "user-1", true)

	assert.True(t, response.IsCorrect)
	assert.Equal(t, 0, response.Ordinal)

	session, err := f.store.Sessions().GetByID(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CorrectAnswers)

	progress, err := f.store.Progress().GetByUserTopic(ctx, "user-1", "algebra")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 1, progress.QuestionsAttempted)
	assert.Equal(t, 1, progress.CorrectAnswers)

	question, err := f.store.Questions().GetByID(ctx, response.QuestionID)
	require.NoError(t, err)
	assert.Equal(t, 1, question.TimesAttempted)
	require.NotNil(t, question.LastAttempted)
}

func TestDuplicateAnswerRejectedWithoutSideEffects(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 3)
	f.answerCurrent(t, snap.Session.ID, "user-1", true)

	_, err := f.service.Answer(ctx, snap.Session.ID, "user-1", &AnswerRequest{
		SelectedOption: models.OptionA,
	})
	require.Error(t, err)
	assert.True(t, IsDuplicateAnswer(err))

	// The rejection must leave the session untouched.
	session, err := f.store.Sessions().GetByID(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CorrectAnswers)
	count, err := f.store.Responses().CountBySession(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	f := newSessionFixture(t)
	for i := 0; i < 3; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 3)
	_, err := f.service.Advance(context.Background(), snap.Session.ID, "user-1")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestAdvanceOnLastQuestionCompletes(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 2)
	sessionID := snap.Session.ID

	f.answerCurrent(t, sessionID, "user-1", true)
	mid, err := f.service.Advance(ctx, sessionID, "user-1")
	require.NoError(t, err)
	assert.False(t, mid.Session.Completed)
	assert.Equal(t, 1, mid.Session.CurrentIndex)

	f.answerCurrent(t, sessionID, "user-1", false)
	final, err := f.service.Advance(ctx, sessionID, "user-1")
	require.NoError(t, err)
	assert.True(t, final.Session.Completed)
	require.NotNil(t, final.Session.EndTime)
}

func TestCompleteUpdatesTotalsAndStreak(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	// Day 1: 10 questions, 7 correct.
	snap := f.createSession(t, "user-1", 10)
	for i := 0; i < 10; i++ {
		f.answerCurrent(t, snap.Session.ID, "user-1", i < 7)
		if i < 9 {
			_, err := f.service.Advance(ctx, snap.Session.ID, "user-1")
			require.NoError(t, err)
		}
	}
	result, err := f.service.Complete(ctx, snap.Session.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, result.Session.Completed)
	assert.Equal(t, 7, result.Session.CorrectAnswers)

	profile, err := f.store.Profiles().GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, profile.TotalQuestionsAnswered)
	assert.Equal(t, 7, profile.TotalCorrectAnswers)
	assert.Equal(t, 1, profile.Streak)

	// Day 2: completing another session increments the streak.
	f.clock = f.clock.AddDate(0, 0, 1)
	snap2 := f.createSession(t, "user-1", 2)
	f.answerCurrent(t, snap2.Session.ID, "user-1", true)
	_, err = f.service.Complete(ctx, snap2.Session.ID, "user-1")
	require.NoError(t, err)

	profile, err = f.store.Profiles().GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.Streak)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 2)
	f.answerCurrent(t, snap.Session.ID, "user-1", true)

	first, err := f.service.Complete(ctx, snap.Session.ID, "user-1")
	require.NoError(t, err)
	second, err := f.service.Complete(ctx, snap.Session.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.Session.EndTime, second.Session.EndTime)

	// Totals and streak applied once.
	profile, err := f.store.Profiles().GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalQuestionsAnswered)
	assert.Equal(t, 1, profile.Streak)

	// Only one completion event.
	completed := 0
	for _, e := range f.publisher.PublishedEvents() {
		if e.Type == events.EventSessionCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestAnswerOnCompletedSessionRejected(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 2)
	f.answerCurrent(t, snap.Session.ID, "user-1", true)
	_, err := f.service.Complete(ctx, snap.Session.ID, "user-1")
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, snap.Session.ID, "user-1", &AnswerRequest{
		SelectedOption: models.OptionA,
	})
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestAnswerKeyCorrectionDoesNotRewriteLedger(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 2)
	response := f.answerCurrent(t, snap.Session.ID, "user-1", true)
	assert.True(t, response.IsCorrect)

	// Correct the answer key afterwards; the recorded response stays as graded.
	require.NoError(t, f.store.Questions().UpdateCorrectOption(ctx, response.QuestionID, models.OptionE))

	stored, err := f.store.Responses().BySession(ctx, snap.Session.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsCorrect)
}

func TestSessionOwnership(t *testing.T) {
	f := newSessionFixture(t)
	for i := 0; i < 2; i++ {
		seedQuestion(t, f.store, "algebra", models.DifficultyMedium)
	}

	snap := f.createSession(t, "user-1", 2)

	_, err := f.service.Get(context.Background(), snap.Session.ID, "user-2")
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
}

func TestCreateSessionValidation(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.Create(context.Background(), &CreateSessionRequest{
		UserID:      "user-1",
		DeviceID:    "device-1",
		SessionType: "marathon",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
