package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DBType selects the storage backend. SQLite is the default; Postgres is an
// escape hatch for hosting the same single-user dataset remotely.
func DBType() string {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return "sqlite"
	}
	return dbType
}

// Connect opens the database and initializes the schema. For SQLite the
// database file lives under dataDir; for Postgres DATABASE_URL is used.
func Connect(dataDir string) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch DBType() {
	case "postgres":
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		db, err = sqlx.Connect("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath := filepath.Join(dataDir, "zlearn.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initializeSchema creates the tables if they don't exist. Every durable
// collection is independently serializable: events, progress records,
// cursors, sessions, custom courses and the config override map.
func initializeSchema(db *sqlx.DB) error {
	seqColumn := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if DBType() == "postgres" {
		seqColumn = "seq BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS analytics_events (
				%s,
				id TEXT UNIQUE NOT NULL,
				type TEXT NOT NULL,
				user_id TEXT NOT NULL,
				session_id TEXT NOT NULL,
				timestamp TIMESTAMP NOT NULL,
				data TEXT NOT NULL DEFAULT '{}'
			)
		`, seqColumn),
		`CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user ON analytics_events(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON analytics_events(timestamp)`,
		`
			CREATE TABLE IF NOT EXISTS progress_records (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				course_id TEXT NOT NULL,
				level_id INTEGER NOT NULL,
				stars INTEGER NOT NULL DEFAULT 0,
				attempts INTEGER NOT NULL DEFAULT 0,
				time_spent BIGINT NOT NULL DEFAULT 0,
				completed_at TIMESTAMP NOT NULL
			)
		`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user ON progress_records(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_course ON progress_records(course_id)`,
		`
			CREATE TABLE IF NOT EXISTS progress_cursors (
				user_id TEXT NOT NULL,
				course_id TEXT NOT NULL,
				current_level INTEGER NOT NULL DEFAULT 1,
				level_stars TEXT NOT NULL DEFAULT '{}',
				PRIMARY KEY (user_id, course_id)
			)
		`,
		`
			CREATE TABLE IF NOT EXISTS learning_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				start_time TIMESTAMP NOT NULL,
				end_time TIMESTAMP,
				duration BIGINT NOT NULL DEFAULT 0,
				levels_completed INTEGER NOT NULL DEFAULT 0,
				correct_answers INTEGER NOT NULL DEFAULT 0,
				wrong_answers INTEGER NOT NULL DEFAULT 0
			)
		`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON learning_sessions(user_id)`,
		`
			CREATE TABLE IF NOT EXISTS custom_courses (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)
		`,
		`
			CREATE TABLE IF NOT EXISTS config_overrides (
				id INTEGER PRIMARY KEY,
				data TEXT NOT NULL DEFAULT '{}',
				updated_at TIMESTAMP NOT NULL
			)
		`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
