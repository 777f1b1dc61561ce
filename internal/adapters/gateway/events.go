package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sketchify/relay/internal/app"
	"github.com/sketchify/relay/internal/core"
	"github.com/sketchify/relay/internal/domain"
)

const loadTimeout = 5 * time.Second

// envelope is the inbound wire format shared by all event kinds.
type envelope struct {
	Type     string          `json:"type"`
	Room     string          `json:"room"`
	Elements json.RawMessage `json:"elements"`
}

func (ctl *Controller) handleEvent(sid core.SessionID, c *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "gateway").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, "bad payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sid, c, env)
	case "leave":
		ctl.handleLeave(sid, c, env)
	case "getElements":
		ctl.handleUpdate(sid, c, env)
	default:
		log.Warn().Str("module", "gateway").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(c, "unknown event type")
	}
}

// handleJoin adds the session to the room and, when a persisted snapshot
// exists, replays it to this session only. That warm-start is the one case a
// client receives the full state without a live peer broadcasting.
func (ctl *Controller) handleJoin(sid core.SessionID, c *wsConn, env envelope) {
	room, err := domain.ParseRoomID(env.Room)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}

	count := ctl.Registry.Join(sid, room)
	log.Info().Str("module", "gateway").Str("sid", string(sid)).Str("room", string(room)).Int("members", count).Msg("join")

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	snap, err := ctl.Store.Load(ctx, room)
	if err != nil {
		log.Warn().Err(err).Str("module", "gateway").Str("room", string(room)).Msg("snapshot load failed")
		return
	}
	if len(snap) == 0 {
		return
	}
	ctl.sendJSON(c, setElementsEvent{Type: "setElements", Elements: snap})
}

func (ctl *Controller) handleLeave(sid core.SessionID, c *wsConn, env envelope) {
	room, err := domain.ParseRoomID(env.Room)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	ctl.Registry.Leave(sid, room)
	log.Info().Str("module", "gateway").Str("sid", string(sid)).Str("room", string(room)).Msg("leave")
}

// handleUpdate is the broadcast path. Validation failures answer the sender
// with an error event and never touch other sessions.
func (ctl *Controller) handleUpdate(sid core.SessionID, c *wsConn, env envelope) {
	room, err := domain.ParseRoomID(env.Room)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "gateway").Str("sid", string(sid)).Msg("update rate limit exceeded")
		ctl.sendError(c, "too many updates")
		return
	}

	snap, ok := parseElements(env.Elements)
	if !ok {
		ctl.sendError(c, app.ErrNotSequence.Error())
		return
	}

	if _, err := ctl.Coordinator.Relay(sid, room, snap); err != nil {
		switch {
		case errors.Is(err, app.ErrRoomInactive):
			ctl.sendError(c, "unknown room")
		case errors.Is(err, app.ErrNotSequence):
			ctl.sendError(c, err.Error())
		default:
			log.Error().Err(err).Str("module", "gateway").Str("sid", string(sid)).Msg("relay failed")
			ctl.sendError(c, "internal error")
		}
	}
}

// parseElements enforces the single shallow check the server makes on
// payloads: elements must be a JSON array.
func parseElements(raw json.RawMessage) (domain.Snapshot, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, false
	}
	if snap == nil {
		snap = domain.Snapshot{}
	}
	return snap, true
}

type setElementsEvent struct {
	Type     string          `json:"type"`
	Elements domain.Snapshot `json:"elements"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, errorEvent{Type: "error", Error: msg})
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "gateway").Msg("sendJSON dropped")
	}
}
