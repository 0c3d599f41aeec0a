package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/zlearn/pkg/models"
)

// ProgressRepository handles progress records and course cursors.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// UpsertRecord inserts or replaces a progress record at its composite key.
// The ledger decides the values; the repository stores them verbatim.
func (r *ProgressRepository) UpsertRecord(ctx context.Context, record *models.ProgressRecord) error {
	query := `
		INSERT INTO progress_records (id, user_id, course_id, level_id, stars, attempts, time_spent, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			stars = EXCLUDED.stars,
			attempts = EXCLUDED.attempts,
			time_spent = EXCLUDED.time_spent,
			completed_at = EXCLUDED.completed_at
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.CourseID,
		record.LevelID,
		record.Stars,
		record.Attempts,
		record.TimeSpent,
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}
	return nil
}

// GetRecord returns the record at the composite key, or nil if absent.
func (r *ProgressRepository) GetRecord(ctx context.Context, id string) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM progress_records WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}
	return &record, nil
}

// GetRecordsByUser returns all records for a user, optionally narrowed to one
// course.
func (r *ProgressRepository) GetRecordsByUser(ctx context.Context, userID, courseID string) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	var err error
	if courseID != "" {
		err = r.db.SelectContext(ctx, &records,
			"SELECT * FROM progress_records WHERE user_id = $1 AND course_id = $2 ORDER BY level_id ASC",
			userID, courseID)
	} else {
		err = r.db.SelectContext(ctx, &records,
			"SELECT * FROM progress_records WHERE user_id = $1 ORDER BY course_id, level_id ASC",
			userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress records: %w", err)
	}
	return records, nil
}

// GetAllRecords returns every stored progress record.
func (r *ProgressRepository) GetAllRecords(ctx context.Context) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM progress_records ORDER BY user_id, course_id, level_id"); err != nil {
		return nil, fmt.Errorf("failed to get progress records: %w", err)
	}
	return records, nil
}

type cursorRow struct {
	UserID       string `db:"user_id"`
	CourseID     string `db:"course_id"`
	CurrentLevel int    `db:"current_level"`
	LevelStars   string `db:"level_stars"`
}

func (row cursorRow) toCursor() (*models.CourseProgressCursor, error) {
	cursor := &models.CourseProgressCursor{
		UserID:       row.UserID,
		CourseID:     row.CourseID,
		CurrentLevel: row.CurrentLevel,
		LevelStars:   map[int]int{},
	}
	if row.LevelStars != "" {
		if err := json.Unmarshal([]byte(row.LevelStars), &cursor.LevelStars); err != nil {
			return nil, fmt.Errorf("failed to decode level stars: %w", err)
		}
	}
	return cursor, nil
}

// GetCursor returns the cursor for (user, course), or nil if absent.
func (r *ProgressRepository) GetCursor(ctx context.Context, userID, courseID string) (*models.CourseProgressCursor, error) {
	var row cursorRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM progress_cursors WHERE user_id = $1 AND course_id = $2",
		userID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress cursor: %w", err)
	}
	return row.toCursor()
}

// GetAllCursors returns every stored cursor.
func (r *ProgressRepository) GetAllCursors(ctx context.Context) ([]models.CourseProgressCursor, error) {
	var rows []cursorRow
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM progress_cursors ORDER BY user_id, course_id"); err != nil {
		return nil, fmt.Errorf("failed to get progress cursors: %w", err)
	}
	cursors := make([]models.CourseProgressCursor, 0, len(rows))
	for _, row := range rows {
		cursor, err := row.toCursor()
		if err != nil {
			return nil, err
		}
		cursors = append(cursors, *cursor)
	}
	return cursors, nil
}

// UpsertCursor inserts or replaces the cursor for its (user, course) key.
func (r *ProgressRepository) UpsertCursor(ctx context.Context, cursor *models.CourseProgressCursor) error {
	stars, err := json.Marshal(cursor.LevelStars)
	if err != nil {
		return fmt.Errorf("failed to encode level stars: %w", err)
	}
	query := `
		INSERT INTO progress_cursors (user_id, course_id, current_level, level_stars)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			current_level = EXCLUDED.current_level,
			level_stars = EXCLUDED.level_stars
	`
	if _, err := r.db.ExecContext(ctx, query,
		cursor.UserID, cursor.CourseID, cursor.CurrentLevel, string(stars)); err != nil {
		return fmt.Errorf("failed to upsert progress cursor: %w", err)
	}
	return nil
}
