package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/zlearn/pkg/models"
)

// Bottleneck surfacing thresholds. A level is only reported when it exceeds
// one of these; everything quieter is noise for content review. Tunable
// policy constants.
const (
	FailRateThreshold    = 30
	AbandonRateThreshold = 20
)

// EventSource is the read side of the event store.
type EventSource interface {
	Query(ctx context.Context, filter models.EventFilter) ([]models.AnalyticsEvent, error)
}

// RetentionData holds binary 0/100 indicators for a single user, not cohort
// percentages. An indicator is 100 only when enough calendar time has elapsed
// AND a session started in that exact day window.
type RetentionData struct {
	D1  int `json:"d1"`
	D7  int `json:"d7"`
	D30 int `json:"d30"`
}

// LearningHabits summarizes when and how intensely a user studies.
type LearningHabits struct {
	PreferredHours      []int   `json:"preferredHours"`     // top 3 hours of day
	AvgSessionMinutes   int     `json:"avgSessionDuration"` // matched sessions only
	AvgLevelsPerSession float64 `json:"avgLevelsPerSession"`
	WeeklyFrequency     int     `json:"weeklyFrequency"` // distinct active days, trailing 7
}

// Bottleneck is a level with an abnormally high fail or abandon rate.
type Bottleneck struct {
	CourseID    string  `json:"courseId"`
	LevelID     int     `json:"levelId"`
	FailRate    int     `json:"failRate"`
	AbandonRate int     `json:"abandonRate"`
	AvgAttempts float64 `json:"avgAttempts"`
}

// Engine derives metrics from the event stream. All computations are pure
// reads; nothing here mutates state.
type Engine struct {
	source EventSource
}

// NewEngine creates an engine over the given event source.
func NewEngine(source EventSource) *Engine {
	return &Engine{source: source}
}

// Retention computes d1/d7/d30 for a user off their earliest session start.
// The dN window is [first+N days, first+N+1 days); if fewer than N days have
// elapsed since first activity the indicator is 0, not unknown.
func (e *Engine) Retention(ctx context.Context, userID string) (RetentionData, error) {
	sessions, err := e.source.Query(ctx, models.EventFilter{
		UserID: userID, Type: models.EventSessionStart,
	})
	if err != nil {
		return RetentionData{}, fmt.Errorf("failed to query session starts: %w", err)
	}
	if len(sessions) == 0 {
		return RetentionData{}, nil
	}

	first := sessions[0].Timestamp
	for _, s := range sessions[1:] {
		if s.Timestamp.Before(first) {
			first = s.Timestamp
		}
	}

	now := time.Now()
	daysSince := int(now.Sub(first).Hours() / 24)
	day := 24 * time.Hour

	hasActivityAfter := func(days int) bool {
		windowStart := first.Add(time.Duration(days) * day)
		windowEnd := windowStart.Add(day)
		for _, s := range sessions {
			if !s.Timestamp.Before(windowStart) && s.Timestamp.Before(windowEnd) {
				return true
			}
		}
		return false
	}

	indicator := func(days int) int {
		if daysSince >= days && hasActivityAfter(days) {
			return 100
		}
		return 0
	}

	return RetentionData{
		D1:  indicator(1),
		D7:  indicator(7),
		D30: indicator(30),
	}, nil
}

// LearningHabits computes preferred hours, average session duration (matched
// start/end pairs only), average completions per session and distinct active
// days in the trailing week.
func (e *Engine) LearningHabits(ctx context.Context, userID string) (LearningHabits, error) {
	events, err := e.source.Query(ctx, models.EventFilter{UserID: userID})
	if err != nil {
		return LearningHabits{}, fmt.Errorf("failed to query events: %w", err)
	}

	var hourCounts [24]int
	for _, evt := range events {
		hourCounts[evt.Timestamp.Hour()]++
	}
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	sort.SliceStable(hours, func(a, b int) bool {
		return hourCounts[hours[a]] > hourCounts[hours[b]]
	})
	preferred := append([]int(nil), hours[:3]...)

	var starts, ends, completions []models.AnalyticsEvent
	for _, evt := range events {
		switch evt.Type {
		case models.EventSessionStart:
			starts = append(starts, evt)
		case models.EventSessionEnd:
			ends = append(ends, evt)
		case models.EventLevelComplete:
			completions = append(completions, evt)
		}
	}

	var totalDuration time.Duration
	matched := 0
	for _, start := range starts {
		for _, end := range ends {
			if end.SessionID == start.SessionID && end.Timestamp.After(start.Timestamp) {
				totalDuration += end.Timestamp.Sub(start.Timestamp)
				matched++
				break
			}
		}
	}
	avgMinutes := 0
	if matched > 0 {
		avgMinutes = int(math.Round(totalDuration.Minutes() / float64(matched)))
	}

	avgLevels := 0.0
	if len(starts) > 0 {
		avgLevels = round1(float64(len(completions)) / float64(len(starts)))
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	activeDays := map[string]struct{}{}
	for _, start := range starts {
		if !start.Timestamp.Before(weekAgo) {
			activeDays[start.Timestamp.Format("2006-01-02")] = struct{}{}
		}
	}

	return LearningHabits{
		PreferredHours:      preferred,
		AvgSessionMinutes:   avgMinutes,
		AvgLevelsPerSession: avgLevels,
		WeeklyFrequency:     len(activeDays),
	}, nil
}

type levelKey struct {
	courseID string
	levelID  int
}

type levelStats struct {
	starts    int
	completes int
	fails     int
	abandons  int
	attempts  int
}

// Bottlenecks aggregates level start/complete/fail/abandon events per
// (course, level) and returns the levels whose fail rate exceeds
// FailRateThreshold or abandon rate exceeds AbandonRateThreshold, sorted by
// fail rate descending. An empty userID aggregates across all users.
func (e *Engine) Bottlenecks(ctx context.Context, userID string) ([]Bottleneck, error) {
	events, err := e.source.Query(ctx, models.EventFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	stats := map[levelKey]*levelStats{}
	order := []levelKey{}
	for _, evt := range events {
		switch evt.Type {
		case models.EventLevelStart, models.EventLevelComplete,
			models.EventLevelFail, models.EventLevelAbandon:
		default:
			continue
		}
		key := levelKey{
			courseID: payloadString(evt.Data, "courseId"),
			levelID:  payloadInt(evt.Data, "levelId"),
		}
		entry, ok := stats[key]
		if !ok {
			entry = &levelStats{}
			stats[key] = entry
			order = append(order, key)
		}
		switch evt.Type {
		case models.EventLevelStart:
			entry.starts++
		case models.EventLevelComplete:
			entry.completes++
		case models.EventLevelFail:
			entry.fails++
			entry.attempts++
		case models.EventLevelAbandon:
			entry.abandons++
		}
	}

	bottlenecks := make([]Bottleneck, 0, len(order))
	for _, key := range order {
		entry := stats[key]
		b := Bottleneck{CourseID: key.courseID, LevelID: key.levelID}
		if entry.starts > 0 {
			b.FailRate = int(math.Round(float64(entry.fails) / float64(entry.starts) * 100))
			b.AbandonRate = int(math.Round(float64(entry.abandons) / float64(entry.starts) * 100))
		}
		if entry.completes > 0 {
			b.AvgAttempts = round1(float64(entry.attempts) / float64(entry.completes))
		}
		if b.FailRate > FailRateThreshold || b.AbandonRate > AbandonRateThreshold {
			bottlenecks = append(bottlenecks, b)
		}
	}
	sort.SliceStable(bottlenecks, func(a, b int) bool {
		return bottlenecks[a].FailRate > bottlenecks[b].FailRate
	})
	return bottlenecks, nil
}

// Report composes retention, habits and bottlenecks into a human-readable
// summary. It is a convenience over the three computations, not a separate
// data source.
func (e *Engine) Report(ctx context.Context, userID string) (string, error) {
	retention, err := e.Retention(ctx, userID)
	if err != nil {
		return "", err
	}
	habits, err := e.LearningHabits(ctx, userID)
	if err != nil {
		return "", err
	}
	bottlenecks, err := e.Bottlenecks(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Learning Report\n\n")
	b.WriteString("### Retention\n")
	fmt.Fprintf(&b, "- Day 1: %d%%\n", retention.D1)
	fmt.Fprintf(&b, "- Day 7: %d%%\n", retention.D7)
	fmt.Fprintf(&b, "- Day 30: %d%%\n\n", retention.D30)

	b.WriteString("### Habits\n")
	hourLabels := make([]string, 0, len(habits.PreferredHours))
	for _, h := range habits.PreferredHours {
		hourLabels = append(hourLabels, fmt.Sprintf("%d:00", h))
	}
	fmt.Fprintf(&b, "- Preferred hours: %s\n", strings.Join(hourLabels, ", "))
	fmt.Fprintf(&b, "- Avg session: %d min\n", habits.AvgSessionMinutes)
	fmt.Fprintf(&b, "- Avg levels per session: %.1f\n", habits.AvgLevelsPerSession)
	fmt.Fprintf(&b, "- Active days this week: %d\n\n", habits.WeeklyFrequency)

	b.WriteString("### Levels needing attention\n")
	if len(bottlenecks) == 0 {
		b.WriteString("- none\n")
	}
	limit := len(bottlenecks)
	if limit > 5 {
		limit = 5
	}
	for _, bn := range bottlenecks[:limit] {
		fmt.Fprintf(&b, "- %s level %d: fail %d%%, abandon %d%%\n",
			bn.CourseID, bn.LevelID, bn.FailRate, bn.AbandonRate)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func payloadString(data models.EventPayload, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func payloadInt(data models.EventPayload, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
