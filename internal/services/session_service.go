package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studypath/practice-engine/internal/events"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"github.com/studypath/practice-engine/internal/validator"
	"gorm.io/datatypes"
)

// SessionService drives the lifecycle of one practice/test attempt:
// Created -> InProgress -> Completed. Callers are assumed to serialize
// access to one open session (single UI interaction at a time); the sync
// coordinator may touch the same storage concurrently, which is why every
// transition commits as one transaction.
type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest) (*SessionSnapshot, error)
	Answer(ctx context.Context, sessionID, userID string, req *AnswerRequest) (*models.Response, error)
	Advance(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error)
	Complete(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error)
	Get(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error)
	Current(ctx context.Context, userID, deviceID string, sessionType models.SessionType) (*SessionSnapshot, error)
}

type CreateSessionRequest struct {
	UserID         string             `json:"user_id" validate:"required"`
	DeviceID       string             `json:"device_id" validate:"required"`
	SessionType    models.SessionType `json:"session_type" validate:"required,session_type"`
	Topics         []string           `json:"topics"`
	Difficulty     *models.Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	TotalQuestions int                `json:"total_questions" validate:"required,min=1,max=200"`
}

type AnswerRequest struct {
	SelectedOption      models.AnswerOption `json:"selected_option" validate:"required,answer_option"`
	ResponseTimeSeconds float64             `json:"response_time_seconds" validate:"min=0"`
}

// SessionSnapshot is the read model handed to results/review consumers.
type SessionSnapshot struct {
	Session         *models.Session    `json:"session"`
	Responses       []*models.Response `json:"responses"`
	CurrentQuestion *models.Question   `json:"current_question,omitempty"`
}

type sessionService struct {
	repo      repositories.Repository
	selector  *AdaptiveSelector
	tracker   ProficiencyTracker
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewSessionService(
	repo repositories.Repository,
	selector *AdaptiveSelector,
	tracker ProficiencyTracker,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) SessionService {
	return &sessionService{
		repo:      repo,
		selector:  selector,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (*SessionSnapshot, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// One open practice session per (user, device): resume instead of
	// fragmenting responses across ad-hoc sessions.
	if req.SessionType == models.SessionPractice {
		open, err := s.repo.Sessions().GetOpenSession(ctx, req.UserID, req.DeviceID, models.SessionPractice)
		if err != nil {
			return nil, storageErr("failed to check for open session", err)
		}
		if open != nil {
			s.logger.Info("resuming open practice session",
				"session_id", open.ID,
				"user_id", req.UserID)
			return s.snapshot(ctx, s.repo, open)
		}
	}

	questions, err := s.selector.BuildSequence(ctx, s.repo, s.tracker, req.UserID, req.TotalQuestions, req.Topics, req.Difficulty)
	if err != nil {
		return nil, err
	}

	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	session := &models.Session{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		DeviceID:       req.DeviceID,
		SessionType:    req.SessionType,
		Topics:         datatypes.NewJSONSlice(req.Topics),
		Difficulty:     req.Difficulty,
		QuestionIDs:    datatypes.NewJSONSlice(questionIDs),
		TotalQuestions: req.TotalQuestions,
		StartTime:      s.now(),
		Revision:       1,
	}

	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Profiles().GetOrCreate(ctx, req.UserID); err != nil {
			return err
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, storageErr("failed to create session", err)
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"user_id", req.UserID,
		"session_type", req.SessionType,
		"total_questions", req.TotalQuestions)

	return &SessionSnapshot{Session: session, CurrentQuestion: questions[0]}, nil
}

func (s *sessionService) Answer(ctx context.Context, sessionID, userID string, req *AnswerRequest) (*models.Response, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	var response *models.Response
	var topic string

	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		session, err := s.loadOwned(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Completed {
			return fmt.Errorf("%w: answer on completed session", ErrInvalidTransition)
		}

		questionID, ok := session.CurrentQuestionID()
		if !ok {
			return fmt.Errorf("%w: session has no current question", ErrInvalidTransition)
		}

		answered, err := tx.Responses().HasResponse(ctx, sessionID, questionID)
		if err != nil {
			return storageErr("failed to check existing response", err)
		}
		if answered {
			return ErrDuplicateAnswer
		}

		question, err := tx.Questions().GetByID(ctx, questionID)
		if err != nil {
			return storageErr("failed to load question", err)
		}
		if question == nil {
			return ErrQuestionNotFound
		}
		topic = question.Topic

		count, err := tx.Responses().CountBySession(ctx, sessionID)
		if err != nil {
			return storageErr("failed to count responses", err)
		}

		// isCorrect is derived here once and frozen; later answer-key
		// corrections must not rewrite the ledger.
		response = &models.Response{
			ID:                  uuid.NewString(),
			SessionID:           sessionID,
			QuestionID:          questionID,
			UserID:              userID,
			SelectedOption:      req.SelectedOption,
			IsCorrect:           question.IsCorrect(req.SelectedOption),
			Ordinal:             int(count),
			Timestamp:           now,
			ResponseTimeSeconds: req.ResponseTimeSeconds,
		}
		if err := tx.Responses().Append(ctx, response); err != nil {
			return storageErr("failed to append response", err)
		}

		if response.IsCorrect {
			session.CorrectAnswers++
		}
		session.Touch()
		if err := tx.Sessions().Update(ctx, session); err != nil {
			return storageErr("failed to update session", err)
		}

		if _, err := s.tracker.RecordAnswer(ctx, tx, userID, question.Topic, response.IsCorrect, now); err != nil {
			return err
		}

		return tx.Questions().RecordAttempt(ctx, questionID, response.IsCorrect, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventResponseRecorded, events.ResponseRecordedEvent{
		ResponseID: response.ID,
		SessionID:  sessionID,
		QuestionID: response.QuestionID,
		UserID:     userID,
		Topic:      topic,
		IsCorrect:  response.IsCorrect,
		TimeTaken:  response.ResponseTimeSeconds,
	}))

	return response, nil
}

func (s *sessionService) Advance(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error) {
	var result *SessionSnapshot

	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		session, err := s.loadOwned(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Completed {
			return fmt.Errorf("%w: advance on completed session", ErrInvalidTransition)
		}

		questionID, ok := session.CurrentQuestionID()
		if !ok {
			return fmt.Errorf("%w: session has no current question", ErrInvalidTransition)
		}

		answered, err := tx.Responses().HasResponse(ctx, sessionID, questionID)
		if err != nil {
			return storageErr("failed to check current response", err)
		}
		if !answered {
			// A learner cannot skip without answering.
			return fmt.Errorf("%w: current question not yet answered", ErrInvalidTransition)
		}

		if session.OnLastQuestion() {
			if err := s.completeTx(ctx, tx, session); err != nil {
				return err
			}
		} else {
			session.CurrentIndex++
			session.Touch()
			if err := tx.Sessions().Update(ctx, session); err != nil {
				return storageErr("failed to advance session", err)
			}
		}

		result, err = s.snapshot(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Session.Completed {
		s.publishCompleted(ctx, result.Session)
	}
	return result, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error) {
	var result *SessionSnapshot
	var completedNow bool

	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		session, err := s.loadOwned(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}

		// Idempotent: a UI finish action and a lifecycle background
		// transition may race to call this.
		if !session.Completed {
			if err := s.completeTx(ctx, tx, session); err != nil {
				return err
			}
			completedNow = true
		}

		result, err = s.snapshot(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	if completedNow {
		s.publishCompleted(ctx, result.Session)
	}
	return result, nil
}

// completeTx applies the completion effects in the caller's transaction:
// session end state, lifetime totals, and the streak update, all or nothing.
// The caller must have checked that the session is not yet completed, which
// also guarantees the streak function runs at most once per completion.
func (s *sessionService) completeTx(ctx context.Context, tx repositories.Repository, session *models.Session) error {
	now := s.now()

	session.EndTime = &now
	session.Completed = true
	session.DurationSeconds = int(now.Sub(session.StartTime).Seconds())
	session.Touch()
	if err := tx.Sessions().Update(ctx, session); err != nil {
		return storageErr("failed to complete session", err)
	}

	profile, err := tx.Profiles().GetOrCreate(ctx, session.UserID)
	if err != nil {
		return storageErr("failed to load user profile", err)
	}
	profile.TotalQuestionsAnswered += session.TotalQuestions
	profile.TotalCorrectAnswers += session.CorrectAnswers
	profile.Streak = NextStreak(profile.Streak, profile.LastActive, now)
	profile.LastActive = &now
	profile.Touch()
	if err := tx.Profiles().Update(ctx, profile); err != nil {
		return storageErr("failed to update user profile", err)
	}

	s.logger.Info("session completed",
		"session_id", session.ID,
		"user_id", session.UserID,
		"correct", session.CorrectAnswers,
		"total", session.TotalQuestions,
		"streak", profile.Streak)
	return nil
}

func (s *sessionService) Get(ctx context.Context, sessionID, userID string) (*SessionSnapshot, error) {
	session, err := s.loadOwned(ctx, s.repo, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, s.repo, session)
}

func (s *sessionService) Current(ctx context.Context, userID, deviceID string, sessionType models.SessionType) (*SessionSnapshot, error) {
	session, err := s.repo.Sessions().GetOpenSession(ctx, userID, deviceID, sessionType)
	if err != nil {
		return nil, storageErr("failed to look up open session", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.snapshot(ctx, s.repo, session)
}

func (s *sessionService) loadOwned(ctx context.Context, repo repositories.Repository, sessionID, userID string) (*models.Session, error) {
	session, err := repo.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, storageErr("failed to get session", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}
	return session, nil
}

func (s *sessionService) snapshot(ctx context.Context, repo repositories.Repository, session *models.Session) (*SessionSnapshot, error) {
	responses, err := repo.Responses().BySession(ctx, session.ID)
	if err != nil {
		return nil, storageErr("failed to load responses", err)
	}

	snap := &SessionSnapshot{Session: session, Responses: responses}
	if !session.Completed {
		if questionID, ok := session.CurrentQuestionID(); ok {
			question, err := repo.Questions().GetByID(ctx, questionID)
			if err != nil {
				return nil, storageErr("failed to load current question", err)
			}
			snap.CurrentQuestion = question
		}
	}
	return snap, nil
}

func (s *sessionService) publishCompleted(ctx context.Context, session *models.Session) {
	s.publish(ctx, events.NewEvent(events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:       session.ID,
		UserID:          session.UserID,
		SessionType:     string(session.SessionType),
		TotalQuestions:  session.TotalQuestions,
		CorrectAnswers:  session.CorrectAnswers,
		DurationSeconds: session.DurationSeconds,
	}))
}

// publish is best-effort; event delivery must never fail a foreground
// operation.
func (s *sessionService) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}
