package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/OCAP2/animconv/pkg/streaming"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks start_session/end_session.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				ack := streaming.AckMessage{Type: streaming.TypeAck, For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSessionLifecycle(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	runID := uuid.New()
	b := New(Config{URL: wsURL(srv), Secret: "test", RunID: runID, Mode: "watch"}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[1].Type)

	var start streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, runID, start.RunID)
	assert.Equal(t, "watch", start.Mode)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestStoreAnimationAndFailure(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())

	require.NoError(t, b.StoreAnimation(&core.ConvertedAnimation{
		Source:     "jump.json",
		OutputPath: "jump.animation.json",
		Document:   []byte(`{"format_version":"1.8.0","animations":{}}`),
		Stats:      core.ConversionStats{Bones: 1, Keyframes: 2},
	}))
	require.NoError(t, b.RecordFailure(&core.ConversionFailure{Source: "bad.json", Reason: "parse failure"}))

	// end_session is acked after the earlier messages, so they have arrived.
	require.NoError(t, b.Close())

	assert.Equal(t, 1, ml.count(streaming.TypeAnimation))
	assert.Equal(t, 1, ml.count(streaming.TypeConversionFailed))

	for _, env := range ml.all() {
		if env.Type != streaming.TypeAnimation {
			continue
		}
		var p streaming.AnimationPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, "jump.json", p.Source)
		assert.Equal(t, 2, p.Stats.Keyframes)
		assert.JSONEq(t, `{"format_version":"1.8.0","animations":{}}`, string(p.Document))
	}
}

func TestInit_DialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/preview"}, nil)
	assert.Error(t, b.Init())
}

func TestInit_InvalidURL(t *testing.T) {
	b := New(Config{URL: "://bad"}, nil)
	assert.Error(t, b.Init())
}

func TestReconnectReplaysSession(t *testing.T) {
	origBackoff := initialBackoff
	initialBackoff = 10 * time.Millisecond
	defer func() { initialBackoff = origBackoff }()

	var (
		mu    sync.Mutex
		conns []*ws.Conn
	)
	ml := &messageLog{}
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns = append(conns, c)
		mu.Unlock()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if json.Unmarshal(msg, &env) != nil {
				continue
			}
			ml.add(env)
			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				_ = c.WriteMessage(ws.TextMessage, data)
			}
		}
	}))
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), RunID: uuid.New()}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	// drop the first connection from the server side
	mu.Lock()
	require.Len(t, conns, 1)
	_ = conns[0].Close()
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartSession) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
