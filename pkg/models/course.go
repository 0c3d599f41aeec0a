package models

import "time"

// CourseType distinguishes timed code challenges from concept quizzes.
type CourseType string

const (
	CourseTypeCode    CourseType = "code"
	CourseTypeConcept CourseType = "concept"
)

// Difficulty is the per-level difficulty tier used for config fallback.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// CourseMetadata describes a course for listing and display.
type CourseMetadata struct {
	Name           string   `json:"name"`
	Icon           string   `json:"icon"`
	Description    string   `json:"description"`
	Author         string   `json:"author,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"` // beginner | intermediate | advanced
	EstimatedTime  string   `json:"estimatedTime,omitempty"`
	TargetAudience []string `json:"targetAudience,omitempty"`
}

// CourseSettings controls how a course plays.
type CourseSettings struct {
	Type                   CourseType `json:"type"`
	QuestionModes          []string   `json:"questionModes,omitempty"`
	DifficultyProgression  string     `json:"difficultyProgression,omitempty"` // uniform | progressive | random
	ShuffleQuestions       bool       `json:"shuffleQuestions,omitempty"`
	AllowSkip              bool       `json:"allowSkip,omitempty"`
}

// MapUnlockCondition gates a map on stars earned in another map.
type MapUnlockCondition struct {
	MapID    int `json:"mapId"`
	MinStars int `json:"minStars"`
}

// MapDefinition is a named grouping of levels within a concept course.
type MapDefinition struct {
	ID              int                 `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	UnlockCondition *MapUnlockCondition `json:"unlockCondition,omitempty"`
	BonusXP         int                 `json:"bonusXP,omitempty"`
}

// XPBonus lists the optional XP bonuses a level can award.
type XPBonus struct {
	NoHint       int `json:"noHint,omitempty"`
	FastComplete int `json:"fastComplete,omitempty"`
	FirstTry     int `json:"firstTry,omitempty"`
}

// LevelConfig holds per-level tunables. Zero-valued fields fall back to the
// difficulty tier defaults and then to hard-coded constants, field by field.
type LevelConfig struct {
	TimeLimit   *int     `json:"timeLimit,omitempty"` // seconds
	MaxAttempts *int     `json:"maxAttempts,omitempty"`
	ShowHints   *bool    `json:"showHints,omitempty"`
	HintCost    *int     `json:"hintCost,omitempty"`
	XPBase      *int     `json:"xpBase,omitempty"`
	XPBonus     *XPBonus `json:"xpBonus,omitempty"`
}

// CoachingConfig holds per-level coach message overrides.
type CoachingConfig struct {
	IntroMessage   string   `json:"introMessage,omitempty"`
	SuccessMessage string   `json:"successMessage,omitempty"`
	FailMessage    string   `json:"failMessage,omitempty"`
	ContextTags    []string `json:"contextTags,omitempty"`
}

// LevelDefinition is one level inside a CourseConfig. IDs are unique within a
// course. MapIndex references a MapDefinition id; an unresolvable reference
// falls back to the map at index 0.
type LevelDefinition struct {
	ID          int              `json:"id"`
	MapIndex    *int             `json:"mapIndex,omitempty"`
	Map         string           `json:"map,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Difficulty  Difficulty       `json:"difficulty,omitempty"`
	Config      *LevelConfig     `json:"config,omitempty"`
	Question    *ConceptQuestion `json:"question"`
	Coaching    *CoachingConfig  `json:"coaching,omitempty"`

	// Questions is an alternate authoring form accepted on import; loaders
	// normalize it into Question (first element wins).
	Questions []ConceptQuestion `json:"questions,omitempty"`

	// Code-challenge fields, used when the course type is "code".
	Task        string   `json:"task,omitempty"`
	StarterCode string   `json:"starterCode,omitempty"`
	Concepts    []string `json:"concepts,omitempty"`
	Hint        string   `json:"hint,omitempty"`
}

// CourseConfig is the versioned raw definition of a course. Built-in courses
// are registered at startup; custom ones are additionally persisted.
type CourseConfig struct {
	ID        string            `json:"id"`
	Version   string            `json:"version"`
	Metadata  CourseMetadata    `json:"metadata"`
	Settings  CourseSettings    `json:"settings"`
	Maps      []MapDefinition   `json:"maps"`
	Levels    []LevelDefinition `json:"levels"`
	Config    map[string]any    `json:"config,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	IsCustom  bool              `json:"isCustom,omitempty"`
}

// ConceptLevel is the runtime projection of a concept-course level. The
// question list holds at most one element; empty means the level has no
// active question.
type ConceptLevel struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        string            `json:"type"` // always "concept"
	Difficulty  Difficulty        `json:"difficulty,omitempty"`
	Map         string            `json:"map,omitempty"`
	Questions   []ConceptQuestion `json:"questions"`
}

// LevelData is the runtime shape of a code-challenge level.
type LevelData struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Task        string   `json:"task"`
	StarterCode string   `json:"starterCode"`
	Concepts    []string `json:"concepts"`
	Hint        string   `json:"hint"`
	TimeLimit   int      `json:"timeLimit"`
}

// MapSummary is a map as presented to the UI, with its level count resolved.
type MapSummary struct {
	ID              int                 `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	LevelCount      int                 `json:"levelCount"`
	UnlockCondition *MapUnlockCondition `json:"unlockCondition,omitempty"`
	BonusXP         int                 `json:"bonusXP,omitempty"`
}

// Course is the read-only runtime projection of a CourseConfig. It is rebuilt
// on demand and never persisted.
type Course struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Icon          string         `json:"icon"`
	Description   string         `json:"description,omitempty"`
	Type          CourseType     `json:"type"`
	ConceptLevels []ConceptLevel `json:"conceptLevels,omitempty"`
	CodeLevels    []LevelData    `json:"codeLevels,omitempty"`
	Maps          []MapSummary   `json:"maps,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	IsCustom      bool           `json:"isCustom,omitempty"`
}

// NewCourseCreatedAt formats a course creation timestamp the way exported
// documents expect it.
func NewCourseCreatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
