// Package session handles start/end bookkeeping for learning sessions.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// Store is the durable backend for session rows.
type Store interface {
	Create(ctx context.Context, session *models.LearningSession) error
	GetByID(ctx context.Context, id string) (*models.LearningSession, error)
	Update(ctx context.Context, session *models.LearningSession) error
}

// Tracker owns LearningSession state. A session is open until EndSession
// succeeds; if the process dies first it stays open indefinitely and
// analytics treats it as censored data.
type Tracker struct {
	store Store
	log   *zap.SugaredLogger
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store, log *zap.SugaredLogger) *Tracker {
	return &Tracker{store: store, log: log}
}

// StartSession creates a new session with zeroed counters and returns its id.
func (t *Tracker) StartSession(ctx context.Context, userID string) (string, error) {
	session := &models.LearningSession{
		UserID:    userID,
		StartTime: time.Now(),
	}
	if err := t.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return session.ID, nil
}

// EndSession closes the session exactly once, setting end time and computed
// duration. Ending an unknown or already-ended session is a no-op; this never
// returns an error for those cases.
func (t *Tracker) EndSession(ctx context.Context, sessionID string) {
	session, err := t.store.GetByID(ctx, sessionID)
	if err != nil {
		t.log.Warnw("failed to look up session", "sessionId", sessionID, "error", err)
		return
	}
	if session == nil || session.Ended() {
		return
	}

	now := time.Now()
	session.EndTime = &now
	session.Duration = now.Sub(session.StartTime)
	if err := t.store.Update(ctx, session); err != nil {
		t.log.Warnw("failed to close session", "sessionId", sessionID, "error", err)
	}
}

// RecordCompletion bumps the session's completed-level counter.
func (t *Tracker) RecordCompletion(ctx context.Context, sessionID string) {
	t.bump(ctx, sessionID, func(s *models.LearningSession) { s.LevelsCompleted++ })
}

// RecordAnswer bumps the correct or wrong answer counter.
func (t *Tracker) RecordAnswer(ctx context.Context, sessionID string, correct bool) {
	t.bump(ctx, sessionID, func(s *models.LearningSession) {
		if correct {
			s.CorrectAnswers++
		} else {
			s.WrongAnswers++
		}
	})
}

func (t *Tracker) bump(ctx context.Context, sessionID string, apply func(*models.LearningSession)) {
	session, err := t.store.GetByID(ctx, sessionID)
	if err != nil || session == nil {
		if err != nil {
			t.log.Warnw("failed to look up session", "sessionId", sessionID, "error", err)
		}
		return
	}
	apply(session)
	if err := t.store.Update(ctx, session); err != nil {
		t.log.Warnw("failed to update session counters", "sessionId", sessionID, "error", err)
	}
}
