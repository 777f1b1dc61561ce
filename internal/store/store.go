// Package store implements core.SnapshotStore backends. The redis store is
// the durable one; memory serves tests and redis-less development; noop is
// the degraded mode the process falls back to when the backend is
// unreachable at startup.
package store

import (
	"fmt"
	"time"

	"github.com/sketchify/relay/internal/domain"
)

// SnapshotTTL is the expiry applied on every save. A room untouched for this
// long loses its warm-start snapshot.
const SnapshotTTL = 7 * 24 * time.Hour

func roomKey(room domain.RoomID) string {
	return fmt.Sprintf("room:%s", room)
}
