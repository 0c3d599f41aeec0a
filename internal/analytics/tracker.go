// Package analytics records the durable event stream and derives
// retention/habit/bottleneck metrics from it.
package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// EventSink is where tracked events are durably appended.
type EventSink interface {
	Append(ctx context.Context, event *models.AnalyticsEvent) (string, error)
}

// Tracker buffers events client-side and appends them in batches. The store's
// durability unit stays one event: a crash between tracking and flushing
// loses only the unflushed buffer, never corrupts stored events. Tracking is
// best-effort by design; event loss degrades analytics, never gameplay.
type Tracker struct {
	mu        sync.Mutex
	sink      EventSink
	userID    string
	sessionID string
	buffer    []models.AnalyticsEvent
	log       *zap.SugaredLogger
}

// NewTracker creates a tracker over the given sink.
func NewTracker(sink EventSink, log *zap.SugaredLogger) *Tracker {
	return &Tracker{sink: sink, log: log}
}

// Begin binds the tracker to a user and session and records session_start.
// Events tracked before Begin are dropped.
func (t *Tracker) Begin(ctx context.Context, userID, sessionID string) {
	t.mu.Lock()
	t.userID = userID
	t.sessionID = sessionID
	t.mu.Unlock()
	t.Track(ctx, models.EventSessionStart, models.EventPayload{})
}

// End records session_end and flushes the buffer.
func (t *Tracker) End(ctx context.Context) {
	t.Track(ctx, models.EventSessionEnd, models.EventPayload{})
}

// Track buffers one event. Completion and session-end events flush
// immediately so they survive abrupt teardown.
func (t *Tracker) Track(ctx context.Context, eventType string, data models.EventPayload) {
	t.mu.Lock()
	if t.userID == "" {
		t.mu.Unlock()
		return
	}
	if data == nil {
		data = models.EventPayload{}
	}
	t.buffer = append(t.buffer, models.AnalyticsEvent{
		Type:      eventType,
		UserID:    t.userID,
		SessionID: t.sessionID,
		Timestamp: time.Now(),
		Data:      data,
	})
	t.mu.Unlock()

	if eventType == models.EventLevelComplete || eventType == models.EventSessionEnd {
		t.Flush(ctx)
	}
}

// Flush appends every buffered event to the sink. An event that fails to
// append is logged and dropped; the rest still go through.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	pending := t.buffer
	t.buffer = nil
	t.mu.Unlock()

	for i := range pending {
		if _, err := t.sink.Append(ctx, &pending[i]); err != nil {
			t.log.Warnw("failed to append analytics event",
				"type", pending[i].Type, "error", err)
		}
	}
}

// Typed convenience helpers, one per event kind gameplay emits.

func (t *Tracker) TrackPageView(ctx context.Context, page string) {
	t.Track(ctx, models.EventPageView, models.EventPayload{"page": page})
}

func (t *Tracker) TrackCourseSelect(ctx context.Context, courseID string) {
	t.Track(ctx, models.EventCourseSelect, models.EventPayload{"courseId": courseID})
}

func (t *Tracker) TrackCourseCreate(ctx context.Context, courseID string) {
	t.Track(ctx, models.EventCourseCreate, models.EventPayload{"courseId": courseID})
}

func (t *Tracker) TrackLevelStart(ctx context.Context, courseID string, levelID int) {
	t.Track(ctx, models.EventLevelStart, models.EventPayload{
		"courseId": courseID, "levelId": levelID,
	})
}

func (t *Tracker) TrackLevelComplete(ctx context.Context, courseID string, levelID, stars int, timeSpent time.Duration) {
	t.Track(ctx, models.EventLevelComplete, models.EventPayload{
		"courseId": courseID, "levelId": levelID, "stars": stars,
		"timeSpentMs": timeSpent.Milliseconds(),
	})
}

func (t *Tracker) TrackLevelFail(ctx context.Context, courseID string, levelID int) {
	t.Track(ctx, models.EventLevelFail, models.EventPayload{
		"courseId": courseID, "levelId": levelID,
	})
}

func (t *Tracker) TrackLevelAbandon(ctx context.Context, courseID string, levelID int) {
	t.Track(ctx, models.EventLevelAbandon, models.EventPayload{
		"courseId": courseID, "levelId": levelID,
	})
}

func (t *Tracker) TrackAnswer(ctx context.Context, courseID string, levelID int, correct bool, attemptNumber int) {
	eventType := models.EventAnswerWrong
	if correct {
		eventType = models.EventAnswerCorrect
	}
	t.Track(ctx, eventType, models.EventPayload{
		"courseId": courseID, "levelId": levelID, "attemptNumber": attemptNumber,
	})
}

func (t *Tracker) TrackHintRequest(ctx context.Context, courseID string, levelID int) {
	t.Track(ctx, models.EventHintRequest, models.EventPayload{
		"courseId": courseID, "levelId": levelID,
	})
}

func (t *Tracker) TrackCoachChat(ctx context.Context, message models.ChatMessage) {
	t.Track(ctx, models.EventCoachChat, models.EventPayload{
		"role": string(message.Role), "isError": message.IsError,
	})
}

func (t *Tracker) TrackCoachTTS(ctx context.Context) {
	t.Track(ctx, models.EventCoachTTS, models.EventPayload{})
}

func (t *Tracker) TrackReviewOpen(ctx context.Context) {
	t.Track(ctx, models.EventReviewOpen, models.EventPayload{})
}

func (t *Tracker) TrackReviewAISummary(ctx context.Context) {
	t.Track(ctx, models.EventReviewAISummary, models.EventPayload{})
}
