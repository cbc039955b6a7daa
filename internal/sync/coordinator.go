package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/studypath/practice-engine/internal/events"
	"github.com/studypath/practice-engine/internal/models"
	"github.com/studypath/practice-engine/internal/repositories"
	"github.com/studypath/practice-engine/internal/services"
)

// Report summarizes one reconciliation pass for a user.
type Report struct {
	UserID          string
	PushedResponses int
	PulledResponses int
	PushedSessions  int
	PulledSessions  int
	PushedProfile   bool
	PulledProfile   bool
	Conflicts       int
	Recomputed      bool
}

// Coordinator reconciles local state with the remote store. It runs as a
// background task, never blocks the session state machine, and never rolls
// back local state: failures are logged and retried with backoff.
type Coordinator struct {
	repo      repositories.Repository
	remote    RemoteStore
	tracker   services.ProficiencyTracker
	publisher events.EventPublisher
	logger    *slog.Logger

	interval   time.Duration
	maxElapsed time.Duration
}

func NewCoordinator(
	repo repositories.Repository,
	remote RemoteStore,
	tracker services.ProficiencyTracker,
	publisher events.EventPublisher,
	logger *slog.Logger,
	interval time.Duration,
	maxElapsed time.Duration,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		remote:     remote,
		tracker:    tracker,
		publisher:  publisher,
		logger:     logger,
		interval:   interval,
		maxElapsed: maxElapsed,
	}
}

// Run loops until the context is cancelled, reconciling on every tick. One
// failing pass retries with exponential backoff before yielding to the next
// tick.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("sync coordinator started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.syncWithRetry(ctx)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sync coordinator stopped")
			return
		case <-ticker.C:
			c.syncWithRetry(ctx)
		}
	}
}

func (c *Coordinator) syncWithRetry(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed

	err := backoff.Retry(func() error {
		return c.SyncAll(ctx)
	}, backoff.WithContext(bo, ctx))
	if err != nil && ctx.Err() == nil {
		c.logger.Error("sync pass gave up until next tick", "error", err)
	}
}

// SyncAll reconciles every locally-known user.
func (c *Coordinator) SyncAll(ctx context.Context) error {
	userIDs, err := c.repo.Profiles().ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local users: %w", err)
	}
	for _, userID := range userIDs {
		report, err := c.SyncUser(ctx, userID)
		if err != nil {
			return err
		}
		c.publishReport(ctx, report)
	}
	return nil
}

// SyncUser runs one full push/pull/reconcile pass for a user.
func (c *Coordinator) SyncUser(ctx context.Context, userID string) (*Report, error) {
	report := &Report{UserID: userID}

	if err := c.pushResponses(ctx, userID, report); err != nil {
		return nil, err
	}
	if err := c.pullResponses(ctx, userID, report); err != nil {
		return nil, err
	}
	if err := c.syncSessions(ctx, userID, report); err != nil {
		return nil, err
	}
	if err := c.syncProfile(ctx, userID, report); err != nil {
		return nil, err
	}

	// Merged ledgers invalidate incremental aggregates: rebuild from a
	// consistent snapshot rather than adjusting in place.
	if report.PulledResponses > 0 || report.Conflicts > 0 {
		err := c.repo.WithTx(ctx, func(tx repositories.Repository) error {
			return c.tracker.Recompute(ctx, tx, userID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to recompute progress after merge: %w", err)
		}
		report.Recomputed = true
	}

	c.logger.Info("sync pass finished",
		"user_id", userID,
		"pushed_responses", report.PushedResponses,
		"pulled_responses", report.PulledResponses,
		"pushed_sessions", report.PushedSessions,
		"pulled_sessions", report.PulledSessions,
		"conflicts", report.Conflicts,
		"recomputed", report.Recomputed)
	return report, nil
}

// pushResponses sends every ledger entry the remote has not acknowledged.
// Remote writes are set-insertions, so a retry after a half-failed pass is
// harmless.
func (c *Coordinator) pushResponses(ctx context.Context, userID string, report *Report) error {
	unsynced, err := c.repo.Responses().ListUnsynced(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list unsynced responses: %w", err)
	}

	pushed := make([]string, 0, len(unsynced))
	for _, response := range unsynced {
		if err := c.remote.PutResponse(ctx, response); err != nil {
			// Mark what made it before surfacing the failure.
			if markErr := c.repo.Responses().MarkSynced(ctx, pushed, time.Now()); markErr != nil {
				c.logger.Error("failed to mark pushed responses", "error", markErr)
			}
			report.PushedResponses = len(pushed)
			return fmt.Errorf("failed to push response %s: %w", response.ID, err)
		}
		pushed = append(pushed, response.ID)
	}

	if err := c.repo.Responses().MarkSynced(ctx, pushed, time.Now()); err != nil {
		return fmt.Errorf("failed to mark responses synced: %w", err)
	}
	report.PushedResponses = len(pushed)
	return nil
}

// pullResponses inserts remote ledger entries that are absent locally. They
// bypass the answer() path: progress is rebuilt by the recompute pass, never
// incremented twice.
func (c *Coordinator) pullResponses(ctx context.Context, userID string, report *Report) error {
	remote, err := c.remote.ListResponses(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list remote responses: %w", err)
	}

	now := time.Now()
	return c.repo.WithTx(ctx, func(tx repositories.Repository) error {
		for _, response := range remote {
			exists, err := tx.Responses().Exists(ctx, response.ID)
			if err != nil {
				return fmt.Errorf("failed to check response %s: %w", response.ID, err)
			}
			if exists {
				continue
			}
			response.SyncedAt = &now
			if err := tx.Responses().Append(ctx, response); err != nil {
				return fmt.Errorf("failed to insert pulled response %s: %w", response.ID, err)
			}
			report.PulledResponses++
		}
		return nil
	})
}

func (c *Coordinator) syncSessions(ctx context.Context, userID string, report *Report) error {
	remoteSessions, err := c.remote.ListSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list remote sessions: %w", err)
	}
	remoteByID := make(map[string]*models.Session, len(remoteSessions))
	for _, rs := range remoteSessions {
		remoteByID[rs.ID] = rs
	}

	dirty, err := c.repo.Sessions().ListDirty(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list dirty sessions: %w", err)
	}
	handled := make(map[string]struct{}, len(dirty))

	for _, local := range dirty {
		handled[local.ID] = struct{}{}
		remote := remoteByID[local.ID]

		switch {
		case remote == nil:
			if err := c.pushSession(ctx, local, report); err != nil {
				return err
			}

		case completionConflict(local, remote):
			if err := c.resolveSessionConflict(ctx, local, remote, report); err != nil {
				return err
			}

		case remote.Revision > local.Revision:
			if err := c.adoptSession(ctx, local, remote, report); err != nil {
				return err
			}

		default:
			// Local revision is at or ahead of the remote: last write wins.
			if err := c.pushSession(ctx, local, report); err != nil {
				return err
			}
		}
	}

	for id, remote := range remoteByID {
		if _, ok := handled[id]; ok {
			continue
		}
		local, err := c.repo.Sessions().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", id, err)
		}
		if local == nil {
			remote.PushedRevision = remote.Revision
			if err := c.repo.Sessions().Create(ctx, remote); err != nil {
				return fmt.Errorf("failed to insert pulled session %s: %w", id, err)
			}
			report.PulledSessions++
			continue
		}
		if remote.Revision > local.Revision {
			if err := c.adoptSession(ctx, local, remote, report); err != nil {
				return err
			}
		}
	}
	return nil
}

// pushSession uploads the local copy and records the acknowledged revision.
// The coordinator never pushes a revision lower than what the remote holds;
// callers check that before getting here.
func (c *Coordinator) pushSession(ctx context.Context, session *models.Session, report *Report) error {
	if err := c.remote.PutSession(ctx, session); err != nil {
		return fmt.Errorf("failed to push session %s: %w", session.ID, err)
	}
	session.PushedRevision = session.Revision
	if err := c.repo.Sessions().Update(ctx, session); err != nil {
		return fmt.Errorf("failed to record pushed session %s: %w", session.ID, err)
	}
	report.PushedSessions++
	return nil
}

// adoptSession overwrites the local copy with the newer remote one.
func (c *Coordinator) adoptSession(ctx context.Context, local, remote *models.Session, report *Report) error {
	remote.PushedRevision = remote.Revision
	remote.CreatedAt = local.CreatedAt
	if err := c.repo.Sessions().Update(ctx, remote); err != nil {
		return fmt.Errorf("failed to adopt remote session %s: %w", remote.ID, err)
	}
	report.PulledSessions++
	return nil
}

// completionConflict detects the same session completed independently on two
// devices while offline.
func completionConflict(local, remote *models.Session) bool {
	if !local.Completed || !remote.Completed {
		return false
	}
	if local.EndTime == nil || remote.EndTime == nil {
		return false
	}
	return !local.EndTime.Equal(*remote.EndTime) ||
		local.CorrectAnswers != remote.CorrectAnswers
}

// resolveSessionConflict applies the policy from the sync protocol: the copy
// with the later endTime is canonical for the session's completed fields,
// with the higher revision breaking an exact endTime tie. Both devices'
// responses stay in the ledger (the union is already merged by the response
// push/pull), and topic progress is fully recomputed afterwards.
func (c *Coordinator) resolveSessionConflict(ctx context.Context, local, remote *models.Session, report *Report) error {
	winner := local
	if remote.EndTime.After(*local.EndTime) ||
		(remote.EndTime.Equal(*local.EndTime) && remote.Revision > local.Revision) {
		winner = remote
	}

	merged := *winner
	if remote.Revision > local.Revision {
		merged.Revision = remote.Revision + 1
	} else {
		merged.Revision = local.Revision + 1
	}
	merged.PushedRevision = merged.Revision
	merged.CreatedAt = local.CreatedAt

	if err := c.remote.PutSession(ctx, &merged); err != nil {
		return fmt.Errorf("failed to push reconciled session %s: %w", merged.ID, err)
	}
	if err := c.repo.Sessions().Update(ctx, &merged); err != nil {
		return fmt.Errorf("failed to store reconciled session %s: %w", merged.ID, err)
	}

	c.logger.Warn("resolved session completion conflict",
		"session_id", merged.ID,
		"winner_end_time", merged.EndTime,
		"correct_answers", merged.CorrectAnswers)
	report.Conflicts++
	return nil
}

func (c *Coordinator) syncProfile(ctx context.Context, userID string, report *Report) error {
	local, err := c.repo.Profiles().GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load local profile: %w", err)
	}
	remote, err := c.remote.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load remote profile: %w", err)
	}

	switch {
	case remote != nil && remote.Revision > local.Revision:
		remote.PushedRevision = remote.Revision
		remote.CreatedAt = local.CreatedAt
		if err := c.repo.Profiles().Update(ctx, remote); err != nil {
			return fmt.Errorf("failed to adopt remote profile: %w", err)
		}
		report.PulledProfile = true

	case local.Dirty() || remote == nil:
		if err := c.remote.PutProfile(ctx, local); err != nil {
			return fmt.Errorf("failed to push profile: %w", err)
		}
		local.PushedRevision = local.Revision
		if err := c.repo.Profiles().Update(ctx, local); err != nil {
			return fmt.Errorf("failed to record pushed profile: %w", err)
		}
		report.PushedProfile = true
	}
	return nil
}

func (c *Coordinator) publishReport(ctx context.Context, report *Report) {
	event := events.NewEvent(events.EventSyncReconciled, events.SyncReconciledEvent{
		UserID:          report.UserID,
		PushedResponses: report.PushedResponses,
		PulledResponses: report.PulledResponses,
		PushedSessions:  report.PushedSessions,
		PulledSessions:  report.PulledSessions,
		Conflicts:       report.Conflicts,
		Recomputed:      report.Recomputed,
	})
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Error("failed to publish sync event", "error", err)
	}
}
