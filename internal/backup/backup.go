// Package backup serializes the durable collections to portable JSON
// documents and merges them back in without ever dropping data: course id
// collisions are resolved by renaming, full-state imports upsert by primary
// key so re-importing the same document twice is a no-op.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// ConfigStore is the course registry side of the pipeline.
type ConfigStore interface {
	GetAllCourseConfigs() []*models.CourseConfig
	GetCourseConfig(courseID string) *models.CourseConfig
	SaveCustomCourse(ctx context.Context, course *models.CourseConfig) error
}

// EventStore reads and restores analytics events.
type EventStore interface {
	Query(ctx context.Context, filter models.EventFilter) ([]models.AnalyticsEvent, error)
	Restore(ctx context.Context, event *models.AnalyticsEvent) error
}

// ProgressStore reads and restores progress records and cursors.
type ProgressStore interface {
	GetAllRecords(ctx context.Context) ([]models.ProgressRecord, error)
	UpsertRecord(ctx context.Context, record *models.ProgressRecord) error
	GetAllCursors(ctx context.Context) ([]models.CourseProgressCursor, error)
	UpsertCursor(ctx context.Context, cursor *models.CourseProgressCursor) error
}

// SessionStore reads and restores sessions.
type SessionStore interface {
	GetAll(ctx context.Context) ([]models.LearningSession, error)
	Upsert(ctx context.Context, session *models.LearningSession) error
}

// CourseDocument is the course-only backup format.
type CourseDocument struct {
	ExportedAt string                `json:"exportedAt"`
	Courses    []models.CourseConfig `json:"courses"`
}

// StateDocument is the full-state backup format.
type StateDocument struct {
	ExportedAt string                        `json:"exportedAt"`
	Events     []models.AnalyticsEvent       `json:"events"`
	Progress   []models.ProgressRecord       `json:"progress"`
	Cursors    []models.CourseProgressCursor `json:"cursors"`
	Sessions   []models.LearningSession      `json:"sessions"`
	Courses    []models.CourseConfig         `json:"courses"`
}

// RenameMapping records one collision-resolving rename during import.
type RenameMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ImportReport summarizes a course import.
type ImportReport struct {
	Imported int             `json:"imported"`
	Renamed  []RenameMapping `json:"renamed"`
}

// Pipeline wires the stores together for export and import.
type Pipeline struct {
	config   ConfigStore
	events   EventStore
	progress ProgressStore
	sessions SessionStore
	log      *zap.SugaredLogger
}

// NewPipeline creates a backup pipeline over the given stores.
func NewPipeline(config ConfigStore, events EventStore, progress ProgressStore, sessions SessionStore, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		config:   config,
		events:   events,
		progress: progress,
		sessions: sessions,
		log:      log,
	}
}

// ExportCourses serializes the selected courses, or all registered courses
// when ids is empty, into one portable document.
func (p *Pipeline) ExportCourses(courseIDs []string) ([]byte, error) {
	all := p.config.GetAllCourseConfigs()

	selected := make([]models.CourseConfig, 0, len(all))
	for _, course := range all {
		if len(courseIDs) > 0 && !containsID(courseIDs, course.ID) {
			continue
		}
		selected = append(selected, *course)
	}

	doc := CourseDocument{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Courses:    selected,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode course backup: %w", err)
	}
	return data, nil
}

// ImportCourses merges a course document into the registry. When a course id
// already exists and overrideExisting is false, the imported course is
// renamed (id suffixed with a uniqueness token, display name annotated)
// rather than overwritten or rejected.
func (p *Pipeline) ImportCourses(ctx context.Context, data []byte, overrideExisting bool) (*ImportReport, error) {
	var doc CourseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode course backup: %w", err)
	}

	report := &ImportReport{}
	for i := range doc.Courses {
		course := doc.Courses[i]
		if existing := p.config.GetCourseConfig(course.ID); existing != nil && !overrideExisting {
			originalID := course.ID
			course.ID = fmt.Sprintf("%s-import-%s", course.ID, renameToken())
			course.Metadata.Name = course.Metadata.Name + " (imported copy)"
			report.Renamed = append(report.Renamed, RenameMapping{
				From: originalID, To: course.ID,
			})
			p.log.Infow("renamed imported course to avoid collision",
				"from", originalID, "to", course.ID)
		}
		if err := p.config.SaveCustomCourse(ctx, &course); err != nil {
			return report, fmt.Errorf("failed to import course %s: %w", course.ID, err)
		}
		report.Imported++
	}
	return report, nil
}

// ExportState serializes events, progress records, cursors, sessions and the
// custom-course collection into one document.
func (p *Pipeline) ExportState(ctx context.Context) ([]byte, error) {
	events, err := p.events.Query(ctx, models.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	records, err := p.progress.GetAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	cursors, err := p.progress.GetAllCursors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export cursors: %w", err)
	}
	sessions, err := p.sessions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}

	customCourses := []models.CourseConfig{}
	for _, course := range p.config.GetAllCourseConfigs() {
		if course.IsCustom {
			customCourses = append(customCourses, *course)
		}
	}

	doc := StateDocument{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Events:     events,
		Progress:   records,
		Cursors:    cursors,
		Sessions:   sessions,
		Courses:    customCourses,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state backup: %w", err)
	}
	return data, nil
}

// ImportState upserts every record in the document by its primary key.
// Existing data is never cleared first, so importing the same backup twice
// leaves the collections unchanged on the second pass.
func (p *Pipeline) ImportState(ctx context.Context, data []byte) error {
	var doc StateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode state backup: %w", err)
	}

	for i := range doc.Events {
		if err := p.events.Restore(ctx, &doc.Events[i]); err != nil {
			return err
		}
	}
	for i := range doc.Progress {
		if err := p.progress.UpsertRecord(ctx, &doc.Progress[i]); err != nil {
			return err
		}
	}
	for i := range doc.Cursors {
		if err := p.progress.UpsertCursor(ctx, &doc.Cursors[i]); err != nil {
			return err
		}
	}
	for i := range doc.Sessions {
		if err := p.sessions.Upsert(ctx, &doc.Sessions[i]); err != nil {
			return err
		}
	}
	for i := range doc.Courses {
		if err := p.config.SaveCustomCourse(ctx, &doc.Courses[i]); err != nil {
			return err
		}
	}
	p.log.Infow("state import complete",
		"events", len(doc.Events),
		"progress", len(doc.Progress),
		"cursors", len(doc.Cursors),
		"sessions", len(doc.Sessions),
		"courses", len(doc.Courses))
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func renameToken() string {
	return strings.Split(uuid.NewString(), "-")[0]
}
