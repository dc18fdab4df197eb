package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	server  *httptest.Server
	manager *game.BoardManager
	hub     *Hub
	rdb     *redis.Client
	mr      *miniredis.Miniredis
	ctx     context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(rdb, time.Minute)
	go hub.Run(ctx)

	cfg := &config.Config{
		FrameRate:         120,
		BroadcastEvery:    1,
		MaxBoards:         5,
		BoardIdleMinutes:  30,
		JWTSecret:         testSecret,
		SessionTTLMinutes: 10,
	}
	layout := game.Layout{Name: "single", Pucks: []game.PuckSpec{
		{Kind: game.KindStriker, Color: "#fff", X: 0, Z: 0, Radius: 0.3, Height: 0.2},
	}}
	manager := game.NewBoardManager(nil, rdb, cfg, hub, layout)

	router := gin.New()
	router.GET("/api/v1/boards/:token/ws", HandleWebSocket(hub, manager))
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		manager.Shutdown()
		cancel()
		rdb.Close()
	})
	return &testEnv{server: srv, manager: manager, hub: hub, rdb: rdb, mr: mr, ctx: ctx}
}

func (e *testEnv) newBoard(t *testing.T) (*game.Session, string) {
	t.Helper()
	s, err := e.manager.CreateBoard()
	require.NoError(t, err)
	signed, _, err := auth.IssueViewerToken(testSecret, s.Token, time.Minute)
	require.NoError(t, err)
	return s, signed
}

func (e *testEnv) dial(t *testing.T, boardToken, session string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/api/v1/boards/" + boardToken + "/ws?session=" + session
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgType, Data: raw}))
}

// readUntil reads messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func downAt(x, z float64) PointerData {
	return PointerData{
		PointerID: 1,
		Ray:       &game.Ray{Origin: game.Vec3{X: x, Y: 5, Z: z}, Direction: game.Vec3{Y: -1}},
	}
}

func TestWebSocketWelcomeAndLaunch(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)

	conn, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)

	welcome := readUntil(t, conn, "welcome")
	var wd WelcomeData
	require.NoError(t, json.Unmarshal(welcome.Data, &wd))
	assert.Equal(t, s.Token, wd.BoardToken)
	assert.NotEmpty(t, wd.ViewerID)
	require.Len(t, wd.Board.Pucks, 1)

	send(t, conn, "pointer_down", downAt(0, 0))
	send(t, conn, "pointer_move", downAt(0, 2))
	send(t, conn, "pointer_up", downAt(0, 2))

	launch := readUntil(t, conn, "launch")
	var ev game.LaunchEvent
	require.NoError(t, json.Unmarshal(launch.Data, &ev))
	assert.Equal(t, 0, ev.PuckID)
	assert.InDelta(t, 0.4, ev.Speed, 1e-9)
	assert.InDelta(t, -1, ev.Direction.Z, 1e-9)

	frame := readUntil(t, conn, "frame")
	var snap game.BoardSnapshot
	require.NoError(t, json.Unmarshal(frame.Data, &snap))
	assert.Equal(t, s.Token, snap.Token)
}

func TestWebSocketRejectsBadSession(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.newBoard(t)
	other, _ := env.newBoard(t)

	foreignToken, _, err := auth.IssueViewerToken(testSecret, other.Token, time.Minute)
	require.NoError(t, err)

	_, resp, err := env.dial(t, s.Token, foreignToken)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = env.dial(t, s.Token, "garbage")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketUnknownBoard(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := auth.IssueViewerToken(testSecret, "missing", time.Minute)
	require.NoError(t, err)

	_, resp, err := env.dial(t, "missing", token)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketErrors(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)
	conn, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, conn, "welcome")

	send(t, conn, "teleport", map[string]int{})
	msg := readUntil(t, conn, "error")
	assert.Contains(t, string(msg.Data), "unknown message type")

	send(t, conn, "camera", CameraData{Position: game.Vec3{Y: 1}, Target: game.Vec3{Y: 1}, Fov: 50})
	msg = readUntil(t, conn, "error")
	assert.Contains(t, string(msg.Data), "invalid camera pose")
}

func TestWebSocketCameraAndScreenPointer(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)
	conn, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, conn, "welcome")

	send(t, conn, "camera", CameraData{Position: game.Vec3{Y: 10}, Target: game.Vec3{}, Fov: 60})
	send(t, conn, "pointer_down", PointerData{
		PointerID: 3,
		Screen:    game.ScreenPoint{X: 50, Y: 50},
		Viewport:  game.Viewport{Width: 100, Height: 100},
	})

	// commands are applied in order, so the next state reply reflects the drag
	send(t, conn, "get_state", nil)
	var snap game.BoardSnapshot
	for {
		msg := readUntil(t, conn, "frame")
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		if snap.Pucks[0].DragState == game.DragDragging {
			break
		}
	}
	assert.False(t, snap.OrbitEnabled)
}

func TestWebSocketDisconnectReleasesWithoutLaunch(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)
	conn, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, conn, "welcome")

	send(t, conn, "pointer_down", downAt(0, 0))
	send(t, conn, "pointer_move", downAt(2, 0))
	send(t, conn, "get_state", nil)
	readUntil(t, conn, "frame")
	conn.Close()

	require.Eventually(t, func() bool {
		snap, err := s.Snapshot(context.Background())
		return err == nil && snap.Pucks[0].DragState == game.DragIdle && snap.OrbitEnabled
	}, 3*time.Second, 20*time.Millisecond)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Moving)
	assert.False(t, env.hub.Connected(s.Token))
}

func TestWebSocketPresence(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)
	conn, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, conn, "welcome")

	present, err := ViewerPresent(env.ctx, env.rdb, s.Token)
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, env.mr.TTL(presenceKey(s.Token)) > 0)

	require.NoError(t, env.manager.CloseBoard(s.Token, "test"))
	readUntil(t, conn, "board_closed")

	require.Eventually(t, func() bool {
		present, err := ViewerPresent(env.ctx, env.rdb, s.Token)
		return err == nil && !present
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWebSocketReconnectReplacesViewer(t *testing.T) {
	env := newTestEnv(t)
	s, session := env.newBoard(t)

	first, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, first, "welcome")

	second, _, err := env.dial(t, s.Token, session)
	require.NoError(t, err)
	readUntil(t, second, "welcome")

	first.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, env.hub.Connected(s.Token))

	send(t, second, "get_state", nil)
	readUntil(t, second, "frame")
}
