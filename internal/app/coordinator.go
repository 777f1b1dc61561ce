package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sketchify/relay/internal/core"
	"github.com/sketchify/relay/internal/domain"
)

var (
	// ErrRoomInactive rejects a relay into a room nobody is in.
	ErrRoomInactive = errors.New("room has no members")
	// ErrNotSequence rejects an update whose elements are not a sequence.
	ErrNotSequence = errors.New("snapshot is not a sequence")
)

const saveTimeout = 5 * time.Second

// Coordinator validates and relays a sender's snapshot to the other members
// of a room, and triggers persistence. Persistence and broadcast are
// independent best-effort side effects of the same input.
type Coordinator struct {
	Registry *Registry
	Store    core.SnapshotStore
}

func NewCoordinator(reg *Registry, store core.SnapshotStore) *Coordinator {
	return &Coordinator{Registry: reg, Store: store}
}

type setElementsEvent struct {
	Type     string          `json:"type"`
	Elements domain.Snapshot `json:"elements"`
}

// Relay delivers snap to every member of room except the sender and kicks off
// an asynchronous save. Returns the number of members it delivered to.
// Delivery is at-most-once per recipient; a slow consumer is dropped for this
// relay and re-syncs on the next one.
func (c *Coordinator) Relay(sender core.SessionID, room domain.RoomID, snap domain.Snapshot) (int, error) {
	if !c.Registry.IsActive(room) {
		return 0, ErrRoomInactive
	}
	if snap == nil {
		return 0, ErrNotSequence
	}

	go c.persist(room, snap)

	frame, err := json.Marshal(setElementsEvent{Type: "setElements", Elements: snap})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range c.Registry.MembersOf(room) {
		if m.SID == sender {
			continue
		}
		if err := m.Conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.coordinator").Str("sid", string(m.SID)).Str("room", string(room)).Msg("dropped relay frame")
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.coordinator").Str("from", string(sender)).Str("room", string(room)).Int("sent_to", sent).Msg("relayed snapshot")
	return sent, nil
}

// persist runs detached from the relay: the broadcast never waits on the
// store, and a store failure is only logged.
func (c *Coordinator) persist(room domain.RoomID, snap domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := c.Store.Save(ctx, room, snap); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("snapshot save failed")
	}
}
