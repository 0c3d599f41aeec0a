package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// memoryOverrides is an in-memory OverrideStore.
type memoryOverrides struct {
	saved map[string]any
	calls int
}

func (m *memoryOverrides) Save(_ context.Context, overrides map[string]any) error {
	m.saved = overrides
	m.calls++
	return nil
}

func (m *memoryOverrides) Load(_ context.Context) (map[string]any, error) {
	if m.saved == nil {
		return map[string]any{}, nil
	}
	return m.saved, nil
}

// memoryCourses is an in-memory CourseStore.
type memoryCourses struct {
	courses map[string]models.CourseConfig
}

func (m *memoryCourses) Upsert(_ context.Context, course *models.CourseConfig) error {
	if m.courses == nil {
		m.courses = map[string]models.CourseConfig{}
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourses) Delete(_ context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *memoryCourses) GetAll(_ context.Context) ([]models.CourseConfig, []error, error) {
	out := make([]models.CourseConfig, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil, nil
}

func newTestStore(t *testing.T) (*Store, *memoryOverrides, *memoryCourses) {
	t.Helper()
	overrides := &memoryOverrides{}
	courses := &memoryCourses{}
	store, err := NewStore(context.Background(), Default(), overrides, courses, zap.NewNop().Sugar())
	require.NoError(t, err)
	return store, overrides, courses
}

func TestGetWalksBaseTree(t *testing.T) {
	store, _, _ := newTestStore(t)

	assert.Equal(t, float64(1000), store.Get("scoring.baseScore"))
	assert.Equal(t, float64(60), store.Get("difficulty.easy.timeLimit"))
	assert.Equal(t, "sequential", store.Get("progression.unlockMode"))
	assert.Nil(t, store.Get("scoring.unknown"))
	assert.Nil(t, store.Get("not.a.path"))
}

func TestOverrideTakesPrecedenceAndPersists(t *testing.T) {
	store, overrides, _ := newTestStore(t)
	ctx := context.Background()

	store.Override(ctx, "scoring.baseScore", 500)
	assert.Equal(t, 500, store.Get("scoring.baseScore"))
	assert.Equal(t, 500, overrides.saved["scoring.baseScore"])
}

func TestResetSingleAndAll(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	store.Override(ctx, "scoring.baseScore", 500)
	store.Override(ctx, "progression.allowReplay", false)

	store.Reset(ctx, "scoring.baseScore")
	assert.Equal(t, float64(1000), store.Get("scoring.baseScore"), "single reset restores the base value")
	assert.Equal(t, false, store.Get("progression.allowReplay"))

	store.Reset(ctx, "")
	assert.Equal(t, true, store.Get("progression.allowReplay"), "full reset clears every override")
}

func TestWatchNotifiesOnExactPath(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	var got []any
	unregister := store.Watch("scoring.baseScore", func(v any) {
		got = append(got, v)
	})

	store.Override(ctx, "scoring.baseScore", 700)
	store.Override(ctx, "scoring.timeBonusMultiplier", 5)
	require.Len(t, got, 1, "only the watched path fires")
	assert.Equal(t, 700, got[0])

	unregister()
	store.Override(ctx, "scoring.baseScore", 900)
	assert.Len(t, got, 1, "unregistered watchers stay silent")
}

func TestOverridesSurviveRestart(t *testing.T) {
	overrides := &memoryOverrides{}
	courses := &memoryCourses{}
	ctx := context.Background()

	first, err := NewStore(ctx, Default(), overrides, courses, zap.NewNop().Sugar())
	require.NoError(t, err)
	first.Override(ctx, "coach.defaultPersona", "drill-sergeant")

	second, err := NewStore(ctx, Default(), overrides, courses, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "drill-sergeant", second.Get("coach.defaultPersona"))
}

func TestGetLevelConfigFallbackChain(t *testing.T) {
	store, _, _ := newTestStore(t)
	limit := 45
	xpBase := 250

	store.RegisterCourseConfig(&models.CourseConfig{
		ID: "go-basics",
		Levels: []models.LevelDefinition{
			{ID: 1, Difficulty: models.DifficultyHard},
			{ID: 2, Difficulty: models.DifficultyHard, Config: &models.LevelConfig{
				TimeLimit: &limit,
				XPBase:    &xpBase,
			}},
		},
	})

	// Level 1 falls back to the hard-tier default and the hard-coded XP.
	settings := store.GetLevelConfig("go-basics", 1)
	assert.Equal(t, 120, settings.TimeLimit)
	assert.Equal(t, 100, settings.XPBase)
	assert.True(t, settings.ShowHints)

	// Level 2 overrides time limit and XP base; the rest still falls back.
	settings = store.GetLevelConfig("go-basics", 2)
	assert.Equal(t, 45, settings.TimeLimit)
	assert.Equal(t, 250, settings.XPBase)
	assert.Equal(t, models.XPBonus{NoHint: 20, FastComplete: 30, FirstTry: 50}, settings.XPBonus)

	// Unknown levels resolve against the easy tier.
	settings = store.GetLevelConfig("go-basics", 99)
	assert.Equal(t, 60, settings.TimeLimit)
}

func TestGetLevelConfigHonorsTierOverride(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.RegisterCourseConfig(&models.CourseConfig{
		ID:     "go-basics",
		Levels: []models.LevelDefinition{{ID: 1, Difficulty: models.DifficultyEasy}},
	})

	store.Override(context.Background(), "difficulty.easy", map[string]any{"timeLimit": float64(30)})
	settings := store.GetLevelConfig("go-basics", 1)
	assert.Equal(t, 30, settings.TimeLimit)
}

func TestStarRulesOverride(t *testing.T) {
	store, _, _ := newTestStore(t)

	rules := store.StarRules()
	assert.Equal(t, StarRules{FirstAttempt: 3, SecondAttempt: 2, ThirdOrMore: 1}, rules)

	store.Override(context.Background(), "scoring.starRules", map[string]any{
		"firstAttempt": float64(5), "secondAttempt": float64(3),
	})
	rules = store.StarRules()
	assert.Equal(t, 5, rules.FirstAttempt)
	assert.Equal(t, 3, rules.SecondAttempt)
	assert.Equal(t, 1, rules.ThirdOrMore, "unspecified fields keep the base value")
}

func TestSaveCustomCourseRegistersAndPersists(t *testing.T) {
	store, _, courses := newTestStore(t)
	ctx := context.Background()

	err := store.SaveCustomCourse(ctx, &models.CourseConfig{
		ID:       "my-course",
		Metadata: models.CourseMetadata{Name: "My Course"},
	})
	require.NoError(t, err)

	registered := store.GetCourseConfig("my-course")
	require.NotNil(t, registered)
	assert.True(t, registered.IsCustom)
	assert.Contains(t, courses.courses, "my-course")
}

func TestDeleteCustomCourse(t *testing.T) {
	store, _, courses := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCustomCourse(ctx, &models.CourseConfig{ID: "doomed"}))
	require.NoError(t, store.DeleteCustomCourse(ctx, "doomed"))

	assert.Nil(t, store.GetCourseConfig("doomed"))
	assert.NotContains(t, courses.courses, "doomed")
	assert.NotContains(t, store.courseOrder, "doomed")
}

func TestLoadedCoursesNormalizeQuestionList(t *testing.T) {
	courses := &memoryCourses{courses: map[string]models.CourseConfig{
		"quiz": {
			ID: "quiz",
			Levels: []models.LevelDefinition{{
				ID: 1,
				Questions: []models.ConceptQuestion{
					*models.NewTrueFalse(models.TrueFalseQuestion{Statement: "first"}),
					*models.NewTrueFalse(models.TrueFalseQuestion{Statement: "second"}),
				},
			}},
		},
	}}

	store, err := NewStore(context.Background(), Default(), &memoryOverrides{}, courses, zap.NewNop().Sugar())
	require.NoError(t, err)

	loaded := store.GetCourseConfig("quiz")
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.Levels[0].Question, "first authored question becomes the singleton")
	assert.Equal(t, "first", loaded.Levels[0].Question.TrueFalse.Statement)
	assert.Nil(t, loaded.Levels[0].Questions)
}

func TestGetCoursesProjectsRegistrationOrder(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.RegisterCourseConfig(&models.CourseConfig{ID: "a", Metadata: models.CourseMetadata{Name: "A"}})
	store.RegisterCourseConfig(&models.CourseConfig{ID: "b", Metadata: models.CourseMetadata{Name: "B"}})

	built := store.GetCourses()
	require.Len(t, built, 2)
	assert.Equal(t, "a", built[0].ID)
	assert.Equal(t, "b", built[1].ID)
}
