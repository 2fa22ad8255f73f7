package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errNotConnected = errors.New("transport is not connected")

// retryDelays is the sequential reconnect schedule. Attempts are owned by
// the transport; the state machine only reacts to the lifecycle signals.
var retryDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

// transport is the persistent-connection mechanism: ordered delivery,
// lifecycle signals, automatic reconnect attempts.
type transport interface {
	start(ctx context.Context) error
	send(v interface{}) error
	stop()
}

// transportHooks deliver inbound frames and lifecycle signals upward.
type transportHooks struct {
	onMessage      func(data []byte)
	onReconnecting func(err error)
	onReconnected  func()
	onClosed       func(err error)
}

// wsTransport is the gorilla/websocket transport.
type wsTransport struct {
	url       string
	hooks     transportHooks
	writeWait time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
}

func newWSTransport(url string, hooks transportHooks) *wsTransport {
	return &wsTransport{
		url:       url,
		hooks:     hooks,
		writeWait: 10 * time.Second,
	}
}

func (t *wsTransport) start(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.stopped = false
	t.mu.Unlock()

	go t.readLoop()
	return nil
}

func (t *wsTransport) send(v interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return errNotConnected
	}
	t.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
	return t.conn.WriteJSON(v)
}

func (t *wsTransport) stop() {
	t.mu.Lock()
	t.stopped = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(t.writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
}

func (t *wsTransport) readLoop() {
	for {
		conn := t.current()
		if conn == nil {
			t.hooks.onClosed(nil)
			return
		}

		err := t.pump(conn)
		if t.isStopped() {
			t.hooks.onClosed(nil)
			return
		}

		t.hooks.onReconnecting(err)
		if !t.redial() {
			t.hooks.onClosed(err)
			return
		}
		t.hooks.onReconnected()
	}
}

// pump reads frames until the connection fails.
func (t *wsTransport) pump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		t.hooks.onMessage(data)
	}
}

// redial walks the retry schedule once; a fresh connection resets it.
func (t *wsTransport) redial() bool {
	for _, delay := range retryDelays {
		if delay > 0 {
			time.Sleep(delay)
		}
		if t.isStopped() {
			return false
		}

		conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
		if err != nil {
			continue
		}

		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			conn.Close()
			return false
		}
		t.conn = conn
		t.mu.Unlock()
		return true
	}
	return false
}

func (t *wsTransport) current() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *wsTransport) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
