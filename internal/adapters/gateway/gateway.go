// Package gateway is the WebSocket session adapter: one controller instance
// serves the process, one wsConn and one pump pair serve each client. It
// translates inbound events into registry and coordinator calls and routes
// outbound frames back to the transport.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sketchify/relay/internal/app"
	"github.com/sketchify/relay/internal/config"
	"github.com/sketchify/relay/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Registry    *app.Registry
	Coordinator *app.Coordinator
	Store       core.SnapshotStore
	Cfg         *config.Config

	limiter  *UpdateLimiter
	upgrader websocket.Upgrader
}

func NewController(reg *app.Registry, coord *app.Coordinator, store core.SnapshotStore, cfg *config.Config) *Controller {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Controller{
		Registry:    reg,
		Coordinator: coord,
		Store:       store,
		Cfg:         cfg,
		limiter:     NewUpdateLimiter(cfg.UpdateLimit, cfg.UpdateWindow),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleWS upgrades the connection and starts its pumps. The client token
// from the HTTP middleware is logged for correlation only; the session id is
// minted per connection, so two tabs of one browser are two sessions.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	sid := ctl.register(conn)
	log.Info().Str("module", "gateway").Str("sid", string(sid)).Str("client", c.GetString("client_token")).Msg("new WS connection")
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// register binds the transport under a fresh session id. A session lives
// exactly as long as its connection: created here, destroyed on disconnect.
func (ctl *Controller) register(conn core.Conn) core.SessionID {
	sid := core.SessionID(uuid.NewString())
	ctl.Registry.Bind(sid, conn)
	return sid
}
