package store

import (
	"context"

	"github.com/sketchify/relay/internal/domain"
)

// Noop is the absent-backend state as a first-class store: saves vanish,
// loads come back empty, nothing ever fails.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Save(context.Context, domain.RoomID, domain.Snapshot) error {
	return nil
}

func (*Noop) Load(context.Context, domain.RoomID) (domain.Snapshot, error) {
	return domain.Snapshot{}, nil
}

func (*Noop) Close() error { return nil }
