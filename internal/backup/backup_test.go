package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// memoryConfig is an in-memory ConfigStore.
type memoryConfig struct {
	order   []string
	courses map[string]*models.CourseConfig
}

func newMemoryConfig() *memoryConfig {
	return &memoryConfig{courses: map[string]*models.CourseConfig{}}
}

func (m *memoryConfig) GetAllCourseConfigs() []*models.CourseConfig {
	out := make([]*models.CourseConfig, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.courses[id])
	}
	return out
}

func (m *memoryConfig) GetCourseConfig(courseID string) *models.CourseConfig {
	return m.courses[courseID]
}

func (m *memoryConfig) SaveCustomCourse(_ context.Context, course *models.CourseConfig) error {
	course.IsCustom = true
	if _, exists := m.courses[course.ID]; !exists {
		m.order = append(m.order, course.ID)
	}
	m.courses[course.ID] = course
	return nil
}

// memoryEvents is an in-memory EventStore keyed by event id.
type memoryEvents struct {
	order  []string
	events map[string]models.AnalyticsEvent
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{events: map[string]models.AnalyticsEvent{}}
}

func (m *memoryEvents) Query(_ context.Context, filter models.EventFilter) ([]models.AnalyticsEvent, error) {
	var out []models.AnalyticsEvent
	for _, id := range m.order {
		if filter.Matches(m.events[id]) {
			out = append(out, m.events[id])
		}
	}
	return out, nil
}

func (m *memoryEvents) Restore(_ context.Context, event *models.AnalyticsEvent) error {
	if _, exists := m.events[event.ID]; exists {
		return nil
	}
	m.order = append(m.order, event.ID)
	m.events[event.ID] = *event
	return nil
}

// memoryProgress is an in-memory ProgressStore.
type memoryProgress struct {
	records map[string]models.ProgressRecord
	cursors map[string]models.CourseProgressCursor
}

func newMemoryProgress() *memoryProgress {
	return &memoryProgress{
		records: map[string]models.ProgressRecord{},
		cursors: map[string]models.CourseProgressCursor{},
	}
}

func (m *memoryProgress) GetAllRecords(_ context.Context) ([]models.ProgressRecord, error) {
	var out []models.ProgressRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryProgress) UpsertRecord(_ context.Context, record *models.ProgressRecord) error {
	m.records[record.ID] = *record
	return nil
}

func (m *memoryProgress) GetAllCursors(_ context.Context) ([]models.CourseProgressCursor, error) {
	var out []models.CourseProgressCursor
	for _, c := range m.cursors {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryProgress) UpsertCursor(_ context.Context, cursor *models.CourseProgressCursor) error {
	m.cursors[cursor.UserID+"/"+cursor.CourseID] = *cursor
	return nil
}

// memorySessions is an in-memory SessionStore.
type memorySessions struct {
	sessions map[string]models.LearningSession
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]models.LearningSession{}}
}

func (m *memorySessions) GetAll(_ context.Context) ([]models.LearningSession, error) {
	var out []models.LearningSession
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memorySessions) Upsert(_ context.Context, session *models.LearningSession) error {
	m.sessions[session.ID] = *session
	return nil
}

func newTestPipeline() (*Pipeline, *memoryConfig, *memoryEvents, *memoryProgress, *memorySessions) {
	config := newMemoryConfig()
	events := newMemoryEvents()
	progress := newMemoryProgress()
	sessions := newMemorySessions()
	pipeline := NewPipeline(config, events, progress, sessions, zap.NewNop().Sugar())
	return pipeline, config, events, progress, sessions
}

func sampleCourse(id, name string) *models.CourseConfig {
	return &models.CourseConfig{
		ID:       id,
		Metadata: models.CourseMetadata{Name: name},
		Settings: models.CourseSettings{Type: models.CourseTypeConcept},
	}
}

func TestExportCoursesSelectsByID(t *testing.T) {
	pipeline, config, _, _, _ := newTestPipeline()
	ctx := context.Background()
	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("a", "A")))
	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("b", "B")))

	data, err := pipeline.ExportCourses([]string{"b"})
	require.NoError(t, err)

	var doc CourseDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Courses, 1)
	assert.Equal(t, "b", doc.Courses[0].ID)
	assert.NotEmpty(t, doc.ExportedAt)
}

func TestImportCoursesRenamesOnCollision(t *testing.T) {
	pipeline, config, _, _, _ := newTestPipeline()
	ctx := context.Background()
	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("go-basics", "Go Basics")))

	doc := CourseDocument{Courses: []models.CourseConfig{
		*sampleCourse("go-basics", "Go Basics"),
		*sampleCourse("fresh", "Fresh"),
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	report, err := pipeline.ImportCourses(ctx, data, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Renamed, 1)

	rename := report.Renamed[0]
	assert.Equal(t, "go-basics", rename.From)
	assert.Contains(t, rename.To, "go-basics-import-")

	imported := config.GetCourseConfig(rename.To)
	require.NotNil(t, imported)
	assert.Equal(t, "Go Basics (imported copy)", imported.Metadata.Name)

	// The original is untouched.
	assert.Equal(t, "Go Basics", config.GetCourseConfig("go-basics").Metadata.Name)
	assert.NotNil(t, config.GetCourseConfig("fresh"))
}

func TestImportCoursesOverrideReplaces(t *testing.T) {
	pipeline, config, _, _, _ := newTestPipeline()
	ctx := context.Background()
	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("go-basics", "Old Name")))

	doc := CourseDocument{Courses: []models.CourseConfig{*sampleCourse("go-basics", "New Name")}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	report, err := pipeline.ImportCourses(ctx, data, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Empty(t, report.Renamed)
	assert.Equal(t, "New Name", config.GetCourseConfig("go-basics").Metadata.Name)
}

func TestStateRoundTripIsIdempotent(t *testing.T) {
	pipeline, config, events, progress, sessions := newTestPipeline()
	ctx := context.Background()

	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("custom", "Custom")))
	require.NoError(t, events.Restore(ctx, &models.AnalyticsEvent{
		ID: "evt_1", Type: models.EventSessionStart, UserID: "u1", SessionID: "s1",
		Timestamp: time.Now(), Data: models.EventPayload{},
	}))
	require.NoError(t, progress.UpsertRecord(ctx, &models.ProgressRecord{
		ID: "u1-custom-1", UserID: "u1", CourseID: "custom", LevelID: 1, Stars: 3,
	}))
	require.NoError(t, progress.UpsertCursor(ctx, &models.CourseProgressCursor{
		UserID: "u1", CourseID: "custom", CurrentLevel: 2, LevelStars: map[int]int{1: 3},
	}))
	require.NoError(t, sessions.Upsert(ctx, &models.LearningSession{ID: "s1", UserID: "u1"}))

	data, err := pipeline.ExportState(ctx)
	require.NoError(t, err)

	// Import into an empty pipeline.
	other, otherConfig, otherEvents, otherProgress, otherSessions := newTestPipeline()
	require.NoError(t, other.ImportState(ctx, data))

	assert.NotNil(t, otherConfig.GetCourseConfig("custom"))
	assert.Len(t, otherEvents.events, 1)
	assert.Equal(t, 3, otherProgress.records["u1-custom-1"].Stars)
	assert.Equal(t, 2, otherProgress.cursors["u1/custom"].CurrentLevel)
	assert.Contains(t, otherSessions.sessions, "s1")

	// Importing the same document again changes nothing.
	require.NoError(t, other.ImportState(ctx, data))
	assert.Len(t, otherEvents.events, 1)
	assert.Len(t, otherProgress.records, 1)
	assert.Len(t, otherSessions.sessions, 1)
}

func TestExportStateOnlyIncludesCustomCourses(t *testing.T) {
	pipeline, config, _, _, _ := newTestPipeline()
	ctx := context.Background()

	builtin := sampleCourse("builtin", "Built In")
	require.NoError(t, config.SaveCustomCourse(ctx, builtin))
	builtin.IsCustom = false
	require.NoError(t, config.SaveCustomCourse(ctx, sampleCourse("mine", "Mine")))

	data, err := pipeline.ExportState(ctx)
	require.NoError(t, err)

	var doc StateDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Courses, 1)
	assert.Equal(t, "mine", doc.Courses[0].ID)
}
