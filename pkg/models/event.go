package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Analytics event types. The set is fixed; unknown types in a query filter
// simply match nothing.
const (
	EventPageView        = "page_view"
	EventSessionStart    = "session_start"
	EventSessionEnd      = "session_end"
	EventCourseSelect    = "course_select"
	EventCourseCreate    = "course_create"
	EventLevelStart      = "level_start"
	EventLevelComplete   = "level_complete"
	EventLevelFail       = "level_fail"
	EventLevelAbandon    = "level_abandon"
	EventAnswerSubmit    = "answer_submit"
	EventAnswerCorrect   = "answer_correct"
	EventAnswerWrong     = "answer_wrong"
	EventHintRequest     = "hint_request"
	EventCoachChat       = "coach_chat"
	EventCoachTTS        = "coach_tts"
	EventReviewOpen      = "review_open"
	EventReviewAISummary = "review_ai_summary"
)

// EventPayload is the open per-type payload of an analytics event. It is
// stored as a JSON column.
type EventPayload map[string]any

// Value implements driver.Valuer.
func (p EventPayload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *EventPayload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = EventPayload{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into EventPayload", src)
	}
}

// AnalyticsEvent is one immutable record of a user action. Events are only
// removed by explicit retention pruning.
type AnalyticsEvent struct {
	ID        string       `json:"id" db:"id"`
	Type      string       `json:"type" db:"type"`
	UserID    string       `json:"userId" db:"user_id"`
	SessionID string       `json:"sessionId" db:"session_id"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
	Data      EventPayload `json:"data" db:"data"`
}

// EventFilter narrows an event query. Fields are conjunctive; a zero field
// means no constraint.
type EventFilter struct {
	Type      string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
}

// Matches reports whether the event satisfies every set filter field.
func (f EventFilter) Matches(evt AnalyticsEvent) bool {
	if f.Type != "" && evt.Type != f.Type {
		return false
	}
	if f.UserID != "" && evt.UserID != f.UserID {
		return false
	}
	if !f.StartTime.IsZero() && evt.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && evt.Timestamp.After(f.EndTime) {
		return false
	}
	return true
}
