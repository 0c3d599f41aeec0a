package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/zlearn/pkg/models"
)

// SessionRepository handles learning session rows.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session, assigning an id if the caller did not set one.
func (r *SessionRepository) Create(ctx context.Context, session *models.LearningSession) error {
	if session.ID == "" {
		session.ID = "sess_" + uuid.NewString()
	}
	query := `
		INSERT INTO learning_sessions (id, user_id, start_time, end_time, duration, levels_completed, correct_answers, wrong_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.StartTime,
		session.EndTime,
		session.Duration,
		session.LevelsCompleted,
		session.CorrectAnswers,
		session.WrongAnswers,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID returns a session, or nil if not found.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.LearningSession, error) {
	var session models.LearningSession
	err := r.db.GetContext(ctx, &session,
		"SELECT * FROM learning_sessions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// Update replaces the mutable fields of a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.LearningSession) error {
	query := `
		UPDATE learning_sessions SET
			end_time = $1,
			duration = $2,
			levels_completed = $3,
			correct_answers = $4,
			wrong_answers = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		session.EndTime,
		session.Duration,
		session.LevelsCompleted,
		session.CorrectAnswers,
		session.WrongAnswers,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a session by id. Used by the backup importer.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.LearningSession) error {
	query := `
		INSERT INTO learning_sessions (id, user_id, start_time, end_time, duration, levels_completed, correct_answers, wrong_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			duration = EXCLUDED.duration,
			levels_completed = EXCLUDED.levels_completed,
			correct_answers = EXCLUDED.correct_answers,
			wrong_answers = EXCLUDED.wrong_answers
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.StartTime,
		session.EndTime,
		session.Duration,
		session.LevelsCompleted,
		session.CorrectAnswers,
		session.WrongAnswers,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// GetAll returns every stored session in start order.
func (r *SessionRepository) GetAll(ctx context.Context) ([]models.LearningSession, error) {
	var sessions []models.LearningSession
	if err := r.db.SelectContext(ctx, &sessions,
		"SELECT * FROM learning_sessions ORDER BY start_time ASC"); err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}
