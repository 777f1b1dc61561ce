package domain

import "encoding/json"

// Snapshot is the full drawing-element state of a room as submitted by the
// most recent sender. Elements are opaque to the server; the latest snapshot
// supersedes all prior ones.
type Snapshot []json.RawMessage
