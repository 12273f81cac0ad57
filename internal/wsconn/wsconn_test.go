package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/swap-router/internal/apperror"
)

func newServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// drain reads until the peer goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			return
		}
	}
}

func newClient(t *testing.T, url string, tweak func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(url, "feed")
	cfg.PingInterval = 0
	if tweak != nil {
		tweak(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func connect(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

// stateRecorder collects transitions and signals the ones a test waits for.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
	seen   map[State]chan struct{}
}

func recordStates(c *Client, wait ...State) *stateRecorder {
	r := &stateRecorder{seen: make(map[State]chan struct{})}
	for _, s := range wait {
		r.seen[s] = make(chan struct{})
	}
	c.OnStateChange(func(state State, _ error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.states = append(r.states, state)
		if ch, ok := r.seen[state]; ok {
			close(ch)
			delete(r.seen, state)
		}
	})
	return r
}

func (r *stateRecorder) await(t *testing.T, s State) {
	t.Helper()
	r.mu.Lock()
	ch, ok := r.seen[s]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("state %s never reached", s)
	}
}

func (r *stateRecorder) list() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestClient_ConnectTransitions(t *testing.T) {
	srv := newServer(t, drain)
	c := newClient(t, wsURL(srv), nil)
	rec := recordStates(c)

	connect(t, c)

	if !c.IsConnected() {
		t.Fatalf("expected connected, got %s", c.State())
	}
	got := rec.list()
	if len(got) < 2 || got[0] != StateConnecting || got[1] != StateConnected {
		t.Errorf("unexpected transitions %v", got)
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	c := newClient(t, url, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if code := apperror.GetCode(err); code != apperror.CodeWebSocketConnectionError {
		t.Errorf("expected %s, got %s", apperror.CodeWebSocketConnectionError, code)
	}
	if c.State() != StateDisconnected {
		t.Errorf("expected disconnected, got %s", c.State())
	}
}

func TestClient_CommandAndReply(t *testing.T) {
	commands := make(chan map[string]string, 1)
	srv := newServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd map[string]string
		if err := json.Unmarshal(data, &cmd); err == nil {
			commands <- cmd
		}
		conn.Write(ctx, websocket.MessageText, []byte(`{"topic":"refresh","data":"REFRESHING"}`))
		drain(conn)
	})

	c := newClient(t, wsURL(srv), nil)
	replies := make(chan []byte, 1)
	c.OnMessage(func(_ context.Context, msg []byte) { replies <- msg })
	connect(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.SendJSON(ctx, map[string]string{"type": "select", "provider": "LIFI"}); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case cmd := <-commands:
		if cmd["type"] != "select" || cmd["provider"] != "LIFI" {
			t.Errorf("server got %v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never reached the server")
	}

	select {
	case msg := <-replies:
		if !strings.Contains(string(msg), `"REFRESHING"`) {
			t.Errorf("unexpected reply %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply never reached the handler")
	}
}

func TestClient_MessagesChannelWithoutHandler(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		conn.Write(context.Background(), websocket.MessageText, []byte(`{"topic":"progress"}`))
		drain(conn)
	})
	c := newClient(t, wsURL(srv), nil)
	connect(t, c)

	select {
	case msg := <-c.Messages():
		if string(msg) != `{"topic":"progress"}` {
			t.Errorf("unexpected message %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message on channel")
	}
}

func TestClient_ConcurrentCommands(t *testing.T) {
	var received atomic.Int32
	srv := newServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
			received.Add(1)
		}
	})
	c := newClient(t, wsURL(srv), nil)
	connect(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	const senders, each = 8, 5
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				if err := c.SendJSON(ctx, map[string]string{"type": "refresh"}); err != nil {
					t.Errorf("SendJSON: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for received.Load() < senders*each && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := received.Load(); got != senders*each {
		t.Errorf("server received %d of %d commands", got, senders*each)
	}
}

func TestClient_SendRequiresConnection(t *testing.T) {
	c := newClient(t, "ws://127.0.0.1:1/ws", nil)

	err := c.Send(context.Background(), []byte("{}"))
	if code := apperror.GetCode(err); code != apperror.CodeWebSocketClosed {
		t.Errorf("expected %s, got %s (%v)", apperror.CodeWebSocketClosed, code, err)
	}
}

func TestClient_Close(t *testing.T) {
	srv := newServer(t, drain)
	c := newClient(t, wsURL(srv), nil)
	connect(t, c)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if c.State() != StateClosed {
		t.Errorf("expected closed, got %s", c.State())
	}
	if err := c.Send(context.Background(), []byte("{}")); err == nil {
		t.Error("expected Send to fail after Close")
	}
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	var accepted atomic.Int32
	srv := newServer(t, func(conn *websocket.Conn) {
		if accepted.Add(1) == 1 {
			return
		}
		drain(conn)
	})

	c := newClient(t, wsURL(srv), func(cfg *Config) { cfg.InitialBackoff = 10 * time.Millisecond })
	rec := recordStates(c, StateReconnecting)
	connect(t, c)

	rec.await(t, StateReconnecting)

	deadline := time.Now().Add(2 * time.Second)
	for !(accepted.Load() >= 2 && c.IsConnected()) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if accepted.Load() < 2 || !c.IsConnected() {
		t.Fatalf("expected a live second connection, accepted=%d state=%s", accepted.Load(), c.State())
	}
}

func TestClient_OversizedMessageDropsConnection(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		conn.Write(context.Background(), websocket.MessageText, []byte(strings.Repeat("A", 4096)))
		drain(conn)
	})

	c := newClient(t, wsURL(srv), func(cfg *Config) { cfg.MaxMessageSize = 100 })
	rec := recordStates(c, StateReconnecting)
	connect(t, c)

	rec.await(t, StateReconnecting)
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(DefaultConfig("", "feed"))
	if code := apperror.GetCode(err); code != apperror.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperror.CodeInvalidInput, code)
	}
}
