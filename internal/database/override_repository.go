package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// OverrideRepository persists the config override map as one JSON document.
// Saves always overwrite the full map, never patch it.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new repository instance.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Save overwrites the stored override map.
func (r *OverrideRepository) Save(ctx context.Context, overrides map[string]any) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	query := `
		INSERT INTO config_overrides (id, data, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to save overrides: %w", err)
	}
	return nil
}

// Load returns the stored override map, or an empty map if none was saved.
func (r *OverrideRepository) Load(ctx context.Context) (map[string]any, error) {
	var data string
	err := r.db.GetContext(ctx, &data,
		"SELECT data FROM config_overrides WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	overrides := map[string]any{}
	if err := json.Unmarshal([]byte(data), &overrides); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return overrides, nil
}
