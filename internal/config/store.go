package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/zlearn/internal/course"
	"github.com/example/zlearn/pkg/models"
)

// OverrideStore persists the override map as a whole.
type OverrideStore interface {
	Save(ctx context.Context, overrides map[string]any) error
	Load(ctx context.Context) (map[string]any, error)
}

// CourseStore persists the custom-course collection.
type CourseStore interface {
	Upsert(ctx context.Context, course *models.CourseConfig) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]models.CourseConfig, []error, error)
}

// Store resolves layered configuration: user overrides first, then the base
// GameConfig, plus the registry of built-in and custom course definitions.
// It is constructed once at startup and passed to consumers by reference.
type Store struct {
	mu        sync.RWMutex
	base      GameConfig
	baseTree  map[string]any
	overrides map[string]any

	courseOrder []string
	courses     map[string]*models.CourseConfig

	watcherSeq int
	watchers   map[string]map[int]func(any)

	overrideRepo OverrideStore
	courseRepo   CourseStore
	log          *zap.SugaredLogger
}

// NewStore builds a store over the given base config. Persisted overrides and
// custom courses are loaded immediately; malformed persisted data is logged
// and treated as absent, never fatal.
func NewStore(ctx context.Context, base GameConfig, overrideRepo OverrideStore, courseRepo CourseStore, log *zap.SugaredLogger) (*Store, error) {
	tree, err := configTree(base)
	if err != nil {
		return nil, fmt.Errorf("failed to build config tree: %w", err)
	}
	s := &Store{
		base:         base,
		baseTree:     tree,
		overrides:    map[string]any{},
		courses:      map[string]*models.CourseConfig{},
		watchers:     map[string]map[int]func(any){},
		overrideRepo: overrideRepo,
		courseRepo:   courseRepo,
		log:          log,
	}
	s.loadOverrides(ctx)
	s.loadCustomCourses(ctx)
	return s, nil
}

// configTree converts the typed base config into a nested map so dotted-path
// lookups can walk it segment by segment.
func configTree(base GameConfig) (map[string]any, error) {
	data, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Get resolves a dotted path, override-first. Missing paths return nil.
func (s *Store) Get(path string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.overrides[path]; ok {
		return value
	}
	var value any = s.baseTree
	for _, key := range strings.Split(path, ".") {
		node, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value, ok = node[key]
		if !ok {
			return nil
		}
	}
	return value
}

// Override sets an override, persists the full map immediately and notifies
// watchers registered for that exact path.
func (s *Store) Override(ctx context.Context, path string, value any) {
	s.mu.Lock()
	s.overrides[path] = value
	callbacks := make([]func(any), 0, len(s.watchers[path]))
	for _, cb := range s.watchers[path] {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	s.saveOverrides(ctx)
	for _, cb := range callbacks {
		cb(value)
	}
}

// Reset clears one override, or all of them when path is empty, and persists.
func (s *Store) Reset(ctx context.Context, path string) {
	s.mu.Lock()
	if path != "" {
		delete(s.overrides, path)
	} else {
		s.overrides = map[string]any{}
	}
	s.mu.Unlock()
	s.saveOverrides(ctx)
}

// Watch registers a callback for future overrides of the exact path. The
// current value is not replayed. The returned function unregisters it.
func (s *Store) Watch(path string, callback func(any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watcherSeq++
	id := s.watcherSeq
	if s.watchers[path] == nil {
		s.watchers[path] = map[int]func(any){}
	}
	s.watchers[path][id] = callback

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[path], id)
	}
}

// RegisterCourseConfig inserts or overwrites a course definition by id.
func (s *Store) RegisterCourseConfig(course *models.CourseConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(course)
}

func (s *Store) registerLocked(course *models.CourseConfig) {
	if _, exists := s.courses[course.ID]; !exists {
		s.courseOrder = append(s.courseOrder, course.ID)
	}
	s.courses[course.ID] = course
}

// GetCourseConfig returns the registered definition, or nil.
func (s *Store) GetCourseConfig(courseID string) *models.CourseConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courses[courseID]
}

// GetAllCourseConfigs returns definitions in registration order: built-ins
// first, then custom courses in load order.
func (s *Store) GetAllCourseConfigs() []*models.CourseConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	configs := make([]*models.CourseConfig, 0, len(s.courseOrder))
	for _, id := range s.courseOrder {
		configs = append(configs, s.courses[id])
	}
	return configs
}

// GetCourses projects every registered definition through the course builder.
func (s *Store) GetCourses() []*models.Course {
	configs := s.GetAllCourseConfigs()
	courses := make([]*models.Course, 0, len(configs))
	for _, cfg := range configs {
		courses = append(courses, course.Build(cfg))
	}
	return courses
}

// LevelSettings is a fully resolved per-level configuration; no field is ever
// left unset.
type LevelSettings struct {
	TimeLimit   int
	MaxAttempts int
	ShowHints   bool
	HintCost    int
	XPBase      int
	XPBonus     models.XPBonus
}

// Hard-coded fallbacks applied when neither the level nor the difficulty tier
// defines a field.
var fallbackXPBonus = models.XPBonus{NoHint: 20, FastComplete: 30, FirstTry: 50}

const fallbackXPBase = 100

// GetLevelConfig resolves the effective limits for a level. Each field falls
// back independently: explicit level config, then the difficulty-tier default
// from `difficulty.<tier>`, then a hard-coded constant.
func (s *Store) GetLevelConfig(courseID string, levelID int) LevelSettings {
	var level *models.LevelDefinition
	if course := s.GetCourseConfig(courseID); course != nil {
		for i := range course.Levels {
			if course.Levels[i].ID == levelID {
				level = &course.Levels[i]
				break
			}
		}
	}

	tier := models.DifficultyEasy
	if level != nil && level.Difficulty != "" {
		tier = level.Difficulty
	}
	tierDefaults, _ := s.Get("difficulty." + string(tier)).(map[string]any)

	var levelConfig models.LevelConfig
	if level != nil && level.Config != nil {
		levelConfig = *level.Config
	}

	settings := LevelSettings{
		TimeLimit:   0,
		MaxAttempts: 0,
		ShowHints:   true,
		HintCost:    0,
		XPBase:      fallbackXPBase,
		XPBonus:     fallbackXPBonus,
	}
	if limit, ok := intField(tierDefaults, "timeLimit"); ok {
		settings.TimeLimit = limit
	}
	if levelConfig.TimeLimit != nil {
		settings.TimeLimit = *levelConfig.TimeLimit
	}
	if levelConfig.MaxAttempts != nil {
		settings.MaxAttempts = *levelConfig.MaxAttempts
	}
	if levelConfig.ShowHints != nil {
		settings.ShowHints = *levelConfig.ShowHints
	}
	if levelConfig.HintCost != nil {
		settings.HintCost = *levelConfig.HintCost
	}
	if levelConfig.XPBase != nil {
		settings.XPBase = *levelConfig.XPBase
	}
	if levelConfig.XPBonus != nil {
		settings.XPBonus = *levelConfig.XPBonus
	}
	return settings
}

// StarRules returns the effective star rules, honoring an override of the
// whole "scoring.starRules" object.
func (s *Store) StarRules() StarRules {
	rules := s.base.Scoring.StarRules
	if node, ok := s.Get("scoring.starRules").(map[string]any); ok {
		if v, ok := intField(node, "firstAttempt"); ok {
			rules.FirstAttempt = v
		}
		if v, ok := intField(node, "secondAttempt"); ok {
			rules.SecondAttempt = v
		}
		if v, ok := intField(node, "thirdOrMore"); ok {
			rules.ThirdOrMore = v
		}
	}
	return rules
}

func intField(node map[string]any, key string) (int, bool) {
	if node == nil {
		return 0, false
	}
	switch v := node[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// SaveCustomCourse flags the course as custom, registers it and persists it
// to the durable custom-course collection. Custom courses are additive; they
// never replace built-in registrations under other ids.
func (s *Store) SaveCustomCourse(ctx context.Context, course *models.CourseConfig) error {
	course.IsCustom = true
	s.RegisterCourseConfig(course)
	if s.courseRepo == nil {
		return nil
	}
	if err := s.courseRepo.Upsert(ctx, course); err != nil {
		return fmt.Errorf("failed to save custom course: %w", err)
	}
	return nil
}

// DeleteCustomCourse removes the course from the registry and the durable
// collection.
func (s *Store) DeleteCustomCourse(ctx context.Context, courseID string) error {
	s.mu.Lock()
	delete(s.courses, courseID)
	for i, id := range s.courseOrder {
		if id == courseID {
			s.courseOrder = append(s.courseOrder[:i], s.courseOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if s.courseRepo == nil {
		return nil
	}
	if err := s.courseRepo.Delete(ctx, courseID); err != nil {
		return fmt.Errorf("failed to delete custom course: %w", err)
	}
	return nil
}

func (s *Store) loadOverrides(ctx context.Context) {
	if s.overrideRepo == nil {
		return
	}
	overrides, err := s.overrideRepo.Load(ctx)
	if err != nil {
		s.log.Warnw("failed to load config overrides, using defaults", "error", err)
		return
	}
	s.mu.Lock()
	s.overrides = overrides
	s.mu.Unlock()
}

func (s *Store) saveOverrides(ctx context.Context) {
	if s.overrideRepo == nil {
		return
	}
	s.mu.RLock()
	snapshot := make(map[string]any, len(s.overrides))
	for k, v := range s.overrides {
		snapshot[k] = v
	}
	s.mu.RUnlock()
	if err := s.overrideRepo.Save(ctx, snapshot); err != nil {
		s.log.Warnw("failed to persist config overrides", "error", err)
	}
}

func (s *Store) loadCustomCourses(ctx context.Context) {
	if s.courseRepo == nil {
		return
	}
	courses, decodeErrs, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		s.log.Warnw("failed to load custom courses", "error", err)
		return
	}
	for _, decodeErr := range decodeErrs {
		s.log.Warnw("skipping corrupt custom course", "error", decodeErr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range courses {
		c := courses[i]
		normalizeCourseLevels(&c)
		c.IsCustom = true
		s.registerLocked(&c)
	}
}

// normalizeCourseLevels folds the alternate `questions` authoring form into
// the canonical singleton `question` field.
func normalizeCourseLevels(course *models.CourseConfig) {
	for i := range course.Levels {
		lvl := &course.Levels[i]
		if lvl.Question == nil && len(lvl.Questions) > 0 {
			q := lvl.Questions[0]
			lvl.Question = &q
		}
		lvl.Questions = nil
	}
}
