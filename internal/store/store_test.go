package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchify/relay/internal/domain"
)

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "room:abc", roomKey("abc"))
}

func TestMemory_SaveLoad(t *testing.T) {
	s := NewMemory(0)
	ctx := context.Background()

	snap := domain.Snapshot{json.RawMessage(`{"id":1}`)}
	require.NoError(t, s.Save(ctx, "r1", snap))

	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	// Last write wins.
	next := domain.Snapshot{json.RawMessage(`{"id":2}`), json.RawMessage(`{"id":3}`)}
	require.NoError(t, s.Save(ctx, "r1", next))
	got, err = s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestMemory_MissingRoomIsEmpty(t *testing.T) {
	s := NewMemory(0)
	got, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_Expiry(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "r1", domain.Snapshot{json.RawMessage(`{}`)}))

	now = now.Add(30 * time.Second)
	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	now = now.Add(31 * time.Second)
	got, err = s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, got, "expired snapshot reads as empty")
}

func TestMemory_ExpiryRefreshedOnSave(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "r1", domain.Snapshot{json.RawMessage(`{"id":1}`)}))
	now = now.Add(45 * time.Second)
	require.NoError(t, s.Save(ctx, "r1", domain.Snapshot{json.RawMessage(`{"id":2}`)}))

	now = now.Add(45 * time.Second)
	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1, "second save must refresh the deadline")
}

func TestNoop(t *testing.T) {
	s := NewNoop()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "r1", domain.Snapshot{json.RawMessage(`{}`)}))
	got, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, got, "noop never returns data")
	assert.NoError(t, s.Close())
}

func TestConnect_NoAddrDegradesToNoop(t *testing.T) {
	s := Connect(context.Background(), "", "", 0, 0)
	_, ok := s.(*Noop)
	assert.True(t, ok)
}

func TestConnect_UnreachableDegradesToNoop(t *testing.T) {
	// Reserved TEST-NET address; the ping times out and the process runs
	// without durability.
	s := Connect(context.Background(), "192.0.2.1:6379", "", 0, 0)
	_, ok := s.(*Noop)
	assert.True(t, ok)
}
