package session

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

// memoryStore is an in-memory Store for tracker tests.
type memoryStore struct {
	sessions map[string]models.LearningSession
	nextID   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]models.LearningSession{}}
}

func (m *memoryStore) Create(_ context.Context, session *models.LearningSession) error {
	m.nextID++
	session.ID = fmt.Sprintf("sess_%d", m.nextID)
	m.sessions[session.ID] = *session
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*models.LearningSession, error) {
	if session, ok := m.sessions[id]; ok {
		return &session, nil
	}
	return nil, nil
}

func (m *memoryStore) Update(_ context.Context, session *models.LearningSession) error {
	m.sessions[session.ID] = *session
	return nil
}

func newTestTracker() (*Tracker, *memoryStore) {
	store := newMemoryStore()
	return NewTracker(store, zap.NewNop().Sugar()), store
}

func TestStartSessionAssignsID(t *testing.T) {
	tracker, store := newTestTracker()

	id, err := tracker.StartSession(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	session := store.sessions[id]
	assert.Equal(t, "u1", session.UserID)
	assert.False(t, session.StartTime.IsZero())
	assert.Nil(t, session.EndTime)
}

func TestEndSessionSetsDurationOnce(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	id, err := tracker.StartSession(ctx, "u1")
	require.NoError(t, err)

	// Backdate the start so the computed duration is visible.
	session := store.sessions[id]
	session.StartTime = time.Now().Add(-10 * time.Minute)
	store.sessions[id] = session

	tracker.EndSession(ctx, id)
	ended := store.sessions[id]
	require.NotNil(t, ended.EndTime)
	firstEnd := *ended.EndTime
	assert.InDelta(t, 10*time.Minute, ended.Duration, float64(5*time.Second))

	// Ending again is a no-op.
	tracker.EndSession(ctx, id)
	assert.Equal(t, firstEnd, *store.sessions[id].EndTime)
}

func TestEndSessionUnknownIDIsNoOp(t *testing.T) {
	tracker, store := newTestTracker()
	tracker.EndSession(context.Background(), "missing")
	assert.Empty(t, store.sessions)
}

func TestRecordCompletionAndAnswers(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	id, err := tracker.StartSession(ctx, "u1")
	require.NoError(t, err)

	tracker.RecordCompletion(ctx, id)
	tracker.RecordCompletion(ctx, id)
	tracker.RecordAnswer(ctx, id, true)
	tracker.RecordAnswer(ctx, id, true)
	tracker.RecordAnswer(ctx, id, false)

	session := store.sessions[id]
	assert.Equal(t, 2, session.LevelsCompleted)
	assert.Equal(t, 2, session.CorrectAnswers)
	assert.Equal(t, 1, session.WrongAnswers)
}
