package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/zlearn/pkg/models"
)

// memorySink captures appended events and can fail selectively.
type memorySink struct {
	appended []models.AnalyticsEvent
	failType string
}

func (m *memorySink) Append(_ context.Context, event *models.AnalyticsEvent) (string, error) {
	if m.failType != "" && event.Type == m.failType {
		return "", fmt.Errorf("sink unavailable")
	}
	m.appended = append(m.appended, *event)
	return "evt_test", nil
}

func (m *memorySink) types() []string {
	out := make([]string, 0, len(m.appended))
	for _, evt := range m.appended {
		out = append(out, evt.Type)
	}
	return out
}

func newTestTracker() (*Tracker, *memorySink) {
	sink := &memorySink{}
	return NewTracker(sink, zap.NewNop().Sugar()), sink
}

func TestTrackBeforeBeginIsDropped(t *testing.T) {
	tracker, sink := newTestTracker()
	ctx := context.Background()

	tracker.TrackPageView(ctx, "home")
	tracker.Flush(ctx)
	assert.Empty(t, sink.appended)
}

func TestTrackBuffersUntilFlush(t *testing.T) {
	tracker, sink := newTestTracker()
	ctx := context.Background()

	tracker.Begin(ctx, "u1", "s1")
	tracker.TrackPageView(ctx, "home")
	tracker.TrackCourseSelect(ctx, "go-basics")
	assert.Empty(t, sink.appended, "nothing reaches the sink before a flush")

	tracker.Flush(ctx)
	require.Len(t, sink.appended, 3)
	assert.Equal(t, []string{
		models.EventSessionStart, models.EventPageView, models.EventCourseSelect,
	}, sink.types())

	for _, evt := range sink.appended {
		assert.Equal(t, "u1", evt.UserID)
		assert.Equal(t, "s1", evt.SessionID)
		assert.False(t, evt.Timestamp.IsZero())
	}
}

func TestLevelCompleteFlushesImmediately(t *testing.T) {
	tracker, sink := newTestTracker()
	ctx := context.Background()

	tracker.Begin(ctx, "u1", "s1")
	tracker.TrackLevelStart(ctx, "go-basics", 1)
	tracker.TrackLevelComplete(ctx, "go-basics", 1, 3, 42*time.Second)

	require.Len(t, sink.appended, 3)
	last := sink.appended[2]
	assert.Equal(t, models.EventLevelComplete, last.Type)
	assert.Equal(t, "go-basics", last.Data["courseId"])
	assert.Equal(t, 1, last.Data["levelId"])
	assert.Equal(t, 3, last.Data["stars"])
	assert.Equal(t, int64(42000), last.Data["timeSpentMs"])
}

func TestEndFlushesSessionEnd(t *testing.T) {
	tracker, sink := newTestTracker()
	ctx := context.Background()

	tracker.Begin(ctx, "u1", "s1")
	tracker.End(ctx)

	require.Len(t, sink.appended, 2)
	assert.Equal(t, models.EventSessionEnd, sink.appended[1].Type)
}

func TestFlushDropsFailedEventsAndContinues(t *testing.T) {
	sink := &memorySink{failType: models.EventPageView}
	tracker := NewTracker(sink, zap.NewNop().Sugar())
	ctx := context.Background()

	tracker.Begin(ctx, "u1", "s1")
	tracker.TrackPageView(ctx, "home")
	tracker.TrackCourseSelect(ctx, "go-basics")
	tracker.Flush(ctx)

	assert.Equal(t, []string{models.EventSessionStart, models.EventCourseSelect}, sink.types())

	// The failed event is dropped, not retried.
	tracker.Flush(ctx)
	assert.Len(t, sink.appended, 2)
}

func TestTrackAnswerPicksEventType(t *testing.T) {
	tracker, sink := newTestTracker()
	ctx := context.Background()

	tracker.Begin(ctx, "u1", "s1")
	tracker.TrackAnswer(ctx, "go-basics", 1, true, 1)
	tracker.TrackAnswer(ctx, "go-basics", 1, false, 2)
	tracker.Flush(ctx)

	require.Len(t, sink.appended, 3)
	assert.Equal(t, models.EventAnswerCorrect, sink.appended[1].Type)
	assert.Equal(t, models.EventAnswerWrong, sink.appended[2].Type)
	assert.Equal(t, 2, sink.appended[2].Data["attemptNumber"])
}
