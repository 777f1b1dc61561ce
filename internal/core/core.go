package core

import (
	"context"

	"github.com/sketchify/relay/internal/domain"
)

// Frame is a marshaled outbound event.
type Frame []byte

// SessionID identifies one live connection for the current process lifetime.
type SessionID string

// Conn abstracts a session's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	// TrySend queues a frame without blocking. Fails on backpressure or
	// after the connection is closed.
	TrySend(Frame) error
	Close()
}

// SnapshotStore persists the last snapshot of a room with a bounded TTL.
// Persistence is advisory: callers log failures and carry on.
type SnapshotStore interface {
	Save(ctx context.Context, room domain.RoomID, snap domain.Snapshot) error
	Load(ctx context.Context, room domain.RoomID) (domain.Snapshot, error)
	Close() error
}

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	Room    domain.RoomID `json:"room"`
	Members int           `json:"members"`
}
