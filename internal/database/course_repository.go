package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/zlearn/pkg/models"
)

// CourseRepository persists the custom-course collection. Each course is
// stored as one JSON document keyed by course id.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Upsert inserts or replaces a custom course by id.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.CourseConfig) error {
	data, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("failed to encode course: %w", err)
	}
	query := `
		INSERT INTO custom_courses (id, data, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := r.db.ExecContext(ctx, query, course.ID, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}
	return nil
}

// Delete removes a custom course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM custom_courses WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// GetAll returns every stored custom course in load order. A row that fails
// to decode is skipped and reported alongside the good rows so a single
// corrupt document never hides the rest.
func (r *CourseRepository) GetAll(ctx context.Context) ([]models.CourseConfig, []error, error) {
	var rows []struct {
		ID   string `db:"id"`
		Data string `db:"data"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT id, data FROM custom_courses ORDER BY created_at ASC"); err != nil {
		return nil, nil, fmt.Errorf("failed to get custom courses: %w", err)
	}

	courses := make([]models.CourseConfig, 0, len(rows))
	var decodeErrs []error
	for _, row := range rows {
		var course models.CourseConfig
		if err := json.Unmarshal([]byte(row.Data), &course); err != nil {
			decodeErrs = append(decodeErrs, fmt.Errorf("course %s: %w", row.ID, err))
			continue
		}
		courses = append(courses, course)
	}
	return courses, decodeErrs, nil
}
