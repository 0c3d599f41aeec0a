// Package progress tracks per-user, per-course results: best achieved stars
// per level and the unlock cursor. Gameplay must never block on persistence,
// so write failures are logged and play continues on in-memory state.
package progress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// Store is the durable backend the ledger writes through.
type Store interface {
	UpsertRecord(ctx context.Context, record *models.ProgressRecord) error
	GetRecord(ctx context.Context, id string) (*models.ProgressRecord, error)
	GetRecordsByUser(ctx context.Context, userID, courseID string) ([]models.ProgressRecord, error)
	GetCursor(ctx context.Context, userID, courseID string) (*models.CourseProgressCursor, error)
	UpsertCursor(ctx context.Context, cursor *models.CourseProgressCursor) error
}

// Ledger owns ProgressRecord and CourseProgressCursor state.
type Ledger struct {
	store Store
	log   *zap.SugaredLogger
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store, log *zap.SugaredLogger) *Ledger {
	return &Ledger{store: store, log: log}
}

// RecordAttempt upserts the progress record at {user}-{course}-{level}. Stars
// are monotonic: the stored value is the max of the existing record and the
// new result, regardless of call order. Persistence failures are logged as
// warnings and never propagated.
func (l *Ledger) RecordAttempt(ctx context.Context, userID, courseID string, levelID, starsEarned, attempts int, timeSpent time.Duration) *models.ProgressRecord {
	id := models.ProgressID(userID, courseID, levelID)

	record := &models.ProgressRecord{
		ID:          id,
		UserID:      userID,
		CourseID:    courseID,
		LevelID:     levelID,
		Stars:       starsEarned,
		Attempts:    attempts,
		TimeSpent:   timeSpent,
		CompletedAt: time.Now(),
	}

	existing, err := l.store.GetRecord(ctx, id)
	if err != nil {
		l.log.Warnw("failed to read progress record, keeping new result", "id", id, "error", err)
	} else if existing != nil && existing.Stars > record.Stars {
		record.Stars = existing.Stars
	}

	if err := l.store.UpsertRecord(ctx, record); err != nil {
		l.log.Warnw("failed to persist progress record", "id", id, "error", err)
	}
	return record
}

// AdvanceCursor merges the earned stars into the cursor's levelStars and
// advances currentLevel by exactly one, but only when the completed level is
// the cursor itself. Replaying a cleared level or completing a level ahead of
// the cursor leaves currentLevel untouched.
func (l *Ledger) AdvanceCursor(ctx context.Context, userID, courseID string, levelID, starsEarned int) *models.CourseProgressCursor {
	cursor := l.GetCursor(ctx, userID, courseID)

	if starsEarned > cursor.LevelStars[levelID] {
		cursor.LevelStars[levelID] = starsEarned
	}
	if levelID == cursor.CurrentLevel {
		cursor.CurrentLevel++
	}

	if err := l.store.UpsertCursor(ctx, cursor); err != nil {
		l.log.Warnw("failed to persist progress cursor",
			"userId", userID, "courseId", courseID, "error", err)
	}
	return cursor
}

// GetCursor returns the cursor for (user, course), falling back to the
// initial cursor when none is stored or the read fails.
func (l *Ledger) GetCursor(ctx context.Context, userID, courseID string) *models.CourseProgressCursor {
	cursor, err := l.store.GetCursor(ctx, userID, courseID)
	if err != nil {
		l.log.Warnw("failed to read progress cursor, starting fresh",
			"userId", userID, "courseId", courseID, "error", err)
	}
	if cursor == nil {
		cursor = models.NewCourseProgressCursor(userID, courseID)
	}
	if cursor.LevelStars == nil {
		cursor.LevelStars = map[int]int{}
	}
	return cursor
}

// IsLevelUnlocked reports whether the level may be selected. The cursor is
// the sole gating mechanism: everything at or below it is playable.
func (l *Ledger) IsLevelUnlocked(cursor *models.CourseProgressCursor, levelID int) bool {
	return levelID <= cursor.CurrentLevel
}

// GetRecords returns the stored records for a user, optionally narrowed to
// one course.
func (l *Ledger) GetRecords(ctx context.Context, userID, courseID string) ([]models.ProgressRecord, error) {
	return l.store.GetRecordsByUser(ctx, userID, courseID)
}
