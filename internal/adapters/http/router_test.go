package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchify/relay/internal/adapters/gateway"
	"github.com/sketchify/relay/internal/app"
	"github.com/sketchify/relay/internal/config"
	"github.com/sketchify/relay/internal/core"
	"github.com/sketchify/relay/internal/store"
)

func testRouter(t *testing.T) (*gin.Engine, *app.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:           "release",
		AllowedOrigins: []string{"http://localhost:5173"},
		Secret:         "test-secret",
		SendBuffer:     16,
		ReadLimit:      1 << 20,
		PingInterval:   25 * time.Second,
		PongWait:       60 * time.Second,
	}
	reg := app.NewRegistry()
	snapshots := store.NewNoop()
	ctl := gateway.NewController(reg, app.NewCoordinator(reg, snapshots), snapshots, cfg)
	return SetupRouter(context.Background(), cfg, reg, ctl), reg
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestStatusPage(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Status: Running")
	assert.NotEmpty(t, w.Result().Cookies(), "client token cookie is minted")
}

func TestRoomsEndpoint(t *testing.T) {
	r, reg := testRouter(t)
	reg.Join("a", "r1")
	reg.Join("b", "r1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var infos []core.RoomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].Members)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		wantCode   int
		wantHeader string
	}{
		{name: "allowed origin echoed", origin: "http://localhost:5173", wantCode: http.StatusOK, wantHeader: "http://localhost:5173"},
		{name: "unknown origin refused", origin: "https://evil.example", wantCode: http.StatusForbidden, wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := testRouter(t)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.Header.Set("Origin", tt.origin)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestClientTokenKeptInSession(t *testing.T) {
	r, _ := testRouter(t)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w1, req1)
	cookies := w1.Result().Cookies()
	require.NotEmpty(t, cookies, "first request mints the token into the session")

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req2.AddCookie(ck)
	}
	r.ServeHTTP(w2, req2)
	assert.Empty(t, w2.Result().Cookies(), "token is read back from the session, not re-minted")
}

func TestCORSPreflight(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
