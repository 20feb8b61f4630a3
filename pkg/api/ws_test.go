package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zifox666/MoviePilot/pkg/bus"
	"github.com/zifox666/MoviePilot/pkg/config"
	"github.com/zifox666/MoviePilot/pkg/onebot"
)

func newTestServer(t *testing.T, sources map[string]config.OnebotConfig, token string) (*Server, *httptest.Server) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.APIToken = token
	cfg.Onebot = sources

	s := NewServer(cfg, onebot.NewModule(onebot.NewRegistry(), sources), bus.NewMessageBus())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/v1/onebot/v11/http", s.handleProbe)
	mux.HandleFunc("/api/v1/onebot/v11/ws", s.handleWebSocket)

	ts := httptest.NewServer(authMiddleware(token, mux))
	t.Cleanup(ts.Close)
	t.Cleanup(s.messageBus.Close)
	return s, ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket_InboundEventReachesBus(t *testing.T) {
	s, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "")

	conn := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	assert.Eventually(t, s.module.State, time.Second, 10*time.Millisecond)

	event := `{"post_type":"message","message_type":"group","user_id":1,"group_id":9,"raw_message":"hi","sender":{"nickname":"bob"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(event)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := s.messageBus.ConsumeInbound(ctx)
	require.True(t, ok, "expected a normalized message on the bus")

	assert.Equal(t, "onebot11", msg.Source)
	assert.Equal(t, "1", msg.UserID)
	assert.Equal(t, "bob", msg.Username)
	assert.Equal(t, "hi", msg.Text)
	assert.NotEmpty(t, msg.MessageID)
}

func TestWebSocket_MalformedFrameDoesNotKillLoop(t *testing.T) {
	s, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "")

	conn := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	assert.Eventually(t, s.module.State, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{broken`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"post_type":"meta_event"}`)))

	event := `{"post_type":"message","message_type":"private","user_id":2,"raw_message":"still alive","sender":{"nickname":"eva"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(event)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := s.messageBus.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "still alive", msg.Text)
}

func TestWebSocket_RejectionNoticeSentToPeer(t *testing.T) {
	s, ts := newTestServer(t, map[string]config.OnebotConfig{
		"onebot11": {PermissionUsers: "100"},
	}, "")

	conn := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	assert.Eventually(t, s.module.State, time.Second, 10*time.Millisecond)

	event := `{"post_type":"message","message_type":"private","user_id":200,"raw_message":"/download","sender":{"nickname":"mallory"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(event)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Action string `json:"action"`
		Params struct {
			UserID  string `json:"user_id"`
			Message string `json:"message"`
		} `json:"params"`
		Echo string `json:"echo"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))

	assert.Equal(t, "send_private_msg", frame.Action)
	assert.Equal(t, "200", frame.Params.UserID)
	assert.Contains(t, frame.Params.Message, "只有管理员")
	assert.Equal(t, "123", frame.Echo)
}

func TestWebSocket_ReconnectReplacesConnection(t *testing.T) {
	s, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "")

	first := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	assert.Eventually(t, s.module.State, time.Second, 10*time.Millisecond)

	second := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	_ = second
	// Registration happens just after the handshake response; give the
	// handler a moment before tearing down the old connection.
	time.Sleep(50 * time.Millisecond)

	// Closing the replaced connection must not drop the new one.
	first.Close()
	assert.Never(t, func() bool { return !s.module.State() }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWebSocket_TokenRequired(t *testing.T) {
	_, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "secret")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/v1/onebot/v11/ws"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn := dial(t, wsURL(ts, "/api/v1/onebot/v11/ws?token=secret"))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"post_type":"meta_event"}`)))
}

func TestProbeRoute(t *testing.T) {
	_, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "")

	resp, err := http.Get(ts.URL + "/api/v1/onebot/v11/http")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 200, body["code"])
}

func TestHealthRoute_ReflectsConnectionState(t *testing.T) {
	s, ts := newTestServer(t, map[string]config.OnebotConfig{"onebot11": {}}, "")

	get := func() map[string]interface{} {
		resp, err := http.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	assert.Equal(t, false, get()["onebot"])

	dial(t, wsURL(ts, "/api/v1/onebot/v11/ws"))
	assert.Eventually(t, s.module.State, time.Second, 10*time.Millisecond)
	assert.Equal(t, true, get()["onebot"])
}
