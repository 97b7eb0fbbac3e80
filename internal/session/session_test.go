package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubbot/internal/models"
)

func TestManager_CreateReplacesExisting(t *testing.T) {
	m := NewManager(30 * time.Minute)

	first := m.Create(1)
	first.Quantity = "3"

	second := m.Create(1)
	require.NotSame(t, first, second)
	assert.Empty(t, second.Quantity)
	assert.Equal(t, StepAwaitingMedia, second.Step)
	assert.Equal(t, 1, m.Len())
}

func TestManager_GetMissing(t *testing.T) {
	m := NewManager(30 * time.Minute)

	s, expired := m.Get(1)
	assert.Nil(t, s)
	assert.False(t, expired)
}

func TestManager_GetExpired(t *testing.T) {
	m := NewManager(30 * time.Minute)

	s := m.Create(1)
	s.LastActivity = time.Now().Add(-31 * time.Minute)

	got, expired := m.Get(1)
	assert.Nil(t, got)
	assert.True(t, expired)

	// Expired session is gone; next access reports nothing.
	got, expired = m.Get(1)
	assert.Nil(t, got)
	assert.False(t, expired)
	assert.Equal(t, 0, m.Len())
}

func TestManager_GetRefreshesActivity(t *testing.T) {
	m := NewManager(30 * time.Minute)

	s := m.Create(1)
	s.LastActivity = time.Now().Add(-29 * time.Minute)

	got, expired := m.Get(1)
	require.NotNil(t, got)
	assert.False(t, expired)
	assert.WithinDuration(t, time.Now(), got.LastActivity, time.Second)
}

func TestManager_Advance(t *testing.T) {
	m := NewManager(30 * time.Minute)
	m.Create(1)

	ok := m.Advance(1, func(s *Session) {
		s.MediaType = models.MediaPhoto
		s.MediaFileID = "file-1"
		s.Step = StepAwaitingQuantity
	})
	require.True(t, ok)

	s, _ := m.Get(1)
	assert.Equal(t, StepAwaitingQuantity, s.Step)
	assert.Equal(t, "file-1", s.MediaFileID)

	assert.False(t, m.Advance(2, func(*Session) {}))
}

func TestManager_BeginPublishIdempotent(t *testing.T) {
	m := NewManager(30 * time.Minute)
	m.Create(1)

	require.True(t, m.BeginPublish(1))

	// Duplicate confirm delivery must not pass the guard.
	assert.False(t, m.BeginPublish(1))

	// A failed dispatch releases the guard for a retry.
	m.AbortPublish(1)
	assert.True(t, m.BeginPublish(1))

	assert.False(t, m.BeginPublish(99))
}

func TestSession_Complete(t *testing.T) {
	s := &Session{}
	assert.False(t, s.Complete())

	s.MediaFileID = "f"
	s.Quantity = "3"
	s.Price = "100"
	assert.False(t, s.Complete())

	s.Limit = "PP"
	assert.True(t, s.Complete())
}

func TestSession_Fields(t *testing.T) {
	s := &Session{Quantity: "3", Price: "100", Limit: "PP"}
	assert.Equal(t, map[string]string{
		"quantity":   "3",
		"price":      "100",
		"limit_type": "PP",
	}, s.Fields())
}
