package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/testutil"
)

// echoHandler greets on connect and echoes every frame back to its sender
type echoHandler struct {
	hub *Hub

	mu           sync.Mutex
	connected    []model.SessionID
	disconnected []model.SessionID
}

func (e *echoHandler) Connect(_ context.Context, sessionID model.SessionID) {
	e.mu.Lock()
	e.connected = append(e.connected, sessionID)
	e.mu.Unlock()
	e.hub.Send(sessionID, []byte("hello"))
}

func (e *echoHandler) HandleFrame(_ context.Context, sessionID model.SessionID, raw []byte) {
	if string(raw) == "panic" {
		panic("bad frame")
	}
	if string(raw) == "shout" {
		e.hub.BroadcastAll([]byte("everyone"))
		return
	}
	e.hub.Send(sessionID, append([]byte("echo:"), raw...))
}

func (e *echoHandler) Disconnect(_ context.Context, sessionID model.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnected = append(e.disconnected, sessionID)
}

func (e *echoHandler) disconnectCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.disconnected)
}

func newTestServer(t *testing.T) (*Hub, *echoHandler, string) {
	t.Helper()
	hub := NewHub(DefaultConfig(), clock.New(), testutil.NopLogger())
	handler := &echoHandler{hub: hub}
	srv := httptest.NewServer(hub.Handler(handler))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, handler, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	return string(data)
}

func TestServeWSGreetsAndEchoes(t *testing.T) {
	hub, handler, url := newTestServer(t)
	conn := dial(t, url)

	assert.Equal(t, "hello", readText(t, conn))
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("one")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("two")))
	assert.Equal(t, "echo:one", readText(t, conn))
	assert.Equal(t, "echo:two", readText(t, conn))

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.connected, 1)
	assert.Len(t, string(handler.connected[0]), 36)
}

func TestEachConnectionGetsItsOwnSession(t *testing.T) {
	_, handler, url := newTestServer(t)
	a := dial(t, url)
	b := dial(t, url)
	readText(t, a)
	readText(t, b)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.connected, 2)
	assert.NotEqual(t, handler.connected[0], handler.connected[1])
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	_, _, url := newTestServer(t)
	a := dial(t, url)
	b := dial(t, url)
	readText(t, a)
	readText(t, b)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("shout")))

	assert.Equal(t, "everyone", readText(t, a))
	assert.Equal(t, "everyone", readText(t, b))
}

func TestClientCloseTriggersDisconnect(t *testing.T) {
	hub, handler, url := newTestServer(t)
	conn := dial(t, url)
	readText(t, conn)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return handler.disconnectCount() == 1 && hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPanickingFrameEndsOnlyThatSession(t *testing.T) {
	hub, handler, url := newTestServer(t)
	bad := dial(t, url)
	good := dial(t, url)
	readText(t, bad)
	readText(t, good)

	require.NoError(t, bad.WriteMessage(websocket.TextMessage, []byte("panic")))

	require.Eventually(t, func() bool {
		return handler.disconnectCount() == 1 && hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, good.WriteMessage(websocket.TextMessage, []byte("still here")))
	assert.Equal(t, "echo:still here", readText(t, good))
}

func TestCloseDropsClientsAndRejectsNewOnes(t *testing.T) {
	hub, handler, url := newTestServer(t)
	conn := dial(t, url)
	readText(t, conn)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return handler.disconnectCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSendToUnknownSessionIsIgnored(t *testing.T) {
	hub := NewHub(DefaultConfig(), clock.New(), testutil.NopLogger())
	assert.NotPanics(t, func() {
		hub.Send("nobody", []byte("x"))
		hub.SendMany([]model.SessionID{"nobody"}, []byte("x"))
		hub.BroadcastAll([]byte("x"))
	})
}

func TestFullBufferStopsSlowClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendBufferSize = 1
	hub := NewHub(cfg, clock.New(), testutil.NopLogger())
	client := newClient(hub, nil, "slow")
	hub.clients[client.sessionID] = client

	hub.Send("slow", []byte("first"))
	hub.Send("slow", []byte("second"))
	assert.NotPanics(t, func() { hub.Send("slow", []byte("third")) })

	frame, ok := <-client.send
	assert.True(t, ok)
	assert.Equal(t, "first", string(frame))
	_, ok = <-client.send
	assert.False(t, ok, "queue should be closed after overflow")
}
