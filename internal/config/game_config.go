package config

// StarRules maps attempt counts at the moment of success to star ratings.
type StarRules struct {
	FirstAttempt  int `json:"firstAttempt"`
	SecondAttempt int `json:"secondAttempt"`
	ThirdOrMore   int `json:"thirdOrMore"`
}

// ScoringConfig holds game-wide scoring tunables.
type ScoringConfig struct {
	BaseScore           int            `json:"baseScore"`
	TimeBonusMultiplier float64        `json:"timeBonusMultiplier"`
	StarRules           StarRules      `json:"starRules"`
	XPRewards           map[string]int `json:"xpRewards"`
}

// DifficultyConfig holds the per-tier defaults that level configs fall back to.
type DifficultyConfig struct {
	TimeLimit       int  `json:"timeLimit"` // seconds
	HintsAllowed    int  `json:"hintsAllowed"`
	PenaltyPerWrong int  `json:"penaltyPerWrong"`
	ShowExplanation bool `json:"showExplanation"`
}

// ProgressionConfig controls level unlocking.
type ProgressionConfig struct {
	UnlockMode           string `json:"unlockMode"` // sequential | free | stars
	RequireStarsToUnlock int    `json:"requireStarsToUnlock"`
	AllowReplay          bool   `json:"allowReplay"`
	AutoAdvance          bool   `json:"autoAdvance"`
	AutoAdvanceDelay     int    `json:"autoAdvanceDelay"` // milliseconds
}

// CoachConfig holds coach defaults.
type CoachConfig struct {
	DefaultPersona     string `json:"defaultPersona"`
	DefaultVoice       string `json:"defaultVoice"`
	AutoReadQuestion   bool   `json:"autoReadQuestion"`
	ShowHintAfterWrong int    `json:"showHintAfterWrong"`
}

// ReviewConfig controls the review dashboard.
type ReviewConfig struct {
	ShowAfterLevel   bool `json:"showAfterLevel"`
	ShowAfterMap     bool `json:"showAfterMap"`
	AISummaryEnabled bool `json:"aiSummaryEnabled"`
}

// AnalyticsConfig holds event-log maintenance tunables.
type AnalyticsConfig struct {
	RetentionDays        int `json:"retentionDays"`
	FlushIntervalSeconds int `json:"flushIntervalSeconds"`
}

// GameConfig is the immutable base of process-wide tunables. Runtime changes
// go through the override map, never through this struct.
type GameConfig struct {
	Scoring     ScoringConfig               `json:"scoring"`
	Difficulty  map[string]DifficultyConfig `json:"difficulty"`
	Progression ProgressionConfig           `json:"progression"`
	Coach       CoachConfig                 `json:"coach"`
	Review      ReviewConfig                `json:"review"`
	Analytics   AnalyticsConfig             `json:"analytics"`
}

// Default returns the built-in game configuration.
func Default() GameConfig {
	return GameConfig{
		Scoring: ScoringConfig{
			BaseScore:           1000,
			TimeBonusMultiplier: 10,
			StarRules: StarRules{
				FirstAttempt:  3,
				SecondAttempt: 2,
				ThirdOrMore:   1,
			},
			XPRewards: map[string]int{
				"levelComplete": 100,
				"mapComplete":   250,
				"perfectLevel":  50,
			},
		},
		Difficulty: map[string]DifficultyConfig{
			"easy":   {TimeLimit: 60, HintsAllowed: 3, PenaltyPerWrong: 0, ShowExplanation: true},
			"medium": {TimeLimit: 90, HintsAllowed: 2, PenaltyPerWrong: 5, ShowExplanation: true},
			"hard":   {TimeLimit: 120, HintsAllowed: 1, PenaltyPerWrong: 10, ShowExplanation: true},
			"expert": {TimeLimit: 180, HintsAllowed: 0, PenaltyPerWrong: 20, ShowExplanation: false},
		},
		Progression: ProgressionConfig{
			UnlockMode:           "sequential",
			RequireStarsToUnlock: 0,
			AllowReplay:          true,
			AutoAdvance:          true,
			AutoAdvanceDelay:     1200,
		},
		Coach: CoachConfig{
			DefaultPersona:     "mentor",
			DefaultVoice:       "",
			AutoReadQuestion:   false,
			ShowHintAfterWrong: 2,
		},
		Review: ReviewConfig{
			ShowAfterLevel:   true,
			ShowAfterMap:     true,
			AISummaryEnabled: true,
		},
		Analytics: AnalyticsConfig{
			RetentionDays:        30,
			FlushIntervalSeconds: 10,
		},
	}
}
