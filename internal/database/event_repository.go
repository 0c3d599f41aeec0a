package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/zlearn/pkg/models"
)

// EventRepository handles the append-only analytics event log.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new repository instance.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append stores one event verbatim, assigning a unique id if the caller did
// not set one, and returns the id. Storage errors are surfaced to the caller.
func (r *EventRepository) Append(ctx context.Context, event *models.AnalyticsEvent) (string, error) {
	if event.ID == "" {
		event.ID = "evt_" + uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO analytics_events (id, type, user_id, session_id, timestamp, data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.UserID,
		event.SessionID,
		event.Timestamp,
		event.Data,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append event: %w", err)
	}
	return event.ID, nil
}

// Restore inserts an event that already carries an id, skipping it when that
// id is already stored. Used by the backup importer so re-importing the same
// document is a no-op.
func (r *EventRepository) Restore(ctx context.Context, event *models.AnalyticsEvent) error {
	query := `
		INSERT INTO analytics_events (id, type, user_id, session_id, timestamp, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.UserID,
		event.SessionID,
		event.Timestamp,
		event.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to restore event: %w", err)
	}
	return nil
}

// Query returns all events matching the filter in insertion order. Filter
// fields are conjunctive; zero fields are unconstrained. An unknown event
// type matches nothing and yields an empty result, not an error.
func (r *EventRepository) Query(ctx context.Context, filter models.EventFilter) ([]models.AnalyticsEvent, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Type != "" {
		addCondition("type = $%d", filter.Type)
	}
	if filter.UserID != "" {
		addCondition("user_id = $%d", filter.UserID)
	}
	if !filter.StartTime.IsZero() {
		addCondition("timestamp >= $%d", filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		addCondition("timestamp <= $%d", filter.EndTime)
	}

	query := "SELECT id, type, user_id, session_id, timestamp, data FROM analytics_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq ASC"

	var events []models.AnalyticsEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// Prune deletes all events with a timestamp strictly before the cutoff and
// returns the number deleted.
func (r *EventRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM analytics_events WHERE timestamp < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned events: %w", err)
	}
	return deleted, nil
}
