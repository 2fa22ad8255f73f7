package client

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
)

// Chat owns the single logical connection to the chat server and drives the
// connection state machine. All server pushes and state transitions reach
// the registered Events implementation one at a time.
type Chat struct {
	url    string
	events Events

	mu        sync.Mutex
	state     State
	transport transport

	// emitMu is the serialized callback surface: no two callbacks ever
	// run concurrently.
	emitMu sync.Mutex

	newTransport     func(hooks transportHooks) transport
	maxMessageLength int
}

// New creates a chat client for a server base URL (e.g. ws://localhost:8080).
// events receives every push and state change.
func New(baseURL string, events Events) *Chat {
	c := &Chat{
		url:              strings.TrimRight(baseURL, "/") + domain.ChatHubPath,
		events:           events,
		maxMessageLength: domain.MaxMessageLength,
	}
	c.newTransport = func(hooks transportHooks) transport {
		return newWSTransport(c.url, hooks)
	}
	return c
}

// State returns the current connection state.
func (c *Chat) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the transport and joins the chat as userName. It is only
// valid from Disconnected; in any other state it is a no-op. On failure the
// machine always lands back in Disconnected, even when ctx is cancelled
// mid-dial.
func (c *Chat) Connect(ctx context.Context, userName string) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()
	c.emitState(Connecting)

	t := c.newTransport(transportHooks{
		onMessage:      c.handleFrame,
		onReconnecting: c.handleReconnecting,
		onReconnected:  c.handleReconnected,
		onClosed:       c.handleClosed,
	})

	if err := t.start(ctx); err != nil {
		c.emitError(domain.ConnectionFailedError)
		c.setState(Disconnected)
		return err
	}

	join := domain.JoinChatRequest{Type: domain.MethodJoinChat, UserName: userName}
	if err := t.send(&join); err != nil {
		t.stop()
		c.emitError(domain.ConnectionFailedError)
		c.setState(Disconnected)
		return err
	}

	c.mu.Lock()
	c.transport = t
	c.state = Connected
	c.mu.Unlock()
	c.emitState(Connected)
	return nil
}

// Send delivers a chat message. Unless the machine is Connected the call is
// a silent no-op: nothing is queued and nothing is retried. Blank or
// overlong content is dropped before it reaches the wire.
func (c *Chat) Send(content string) error {
	if !domain.ValidMessage(content, c.maxMessageLength) {
		return nil
	}

	c.mu.Lock()
	t := c.transport
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || t == nil {
		return nil
	}

	req := domain.SendMessageRequest{Type: domain.MethodSendMessage, Content: domain.Sanitize(content)}
	if err := t.send(&req); err != nil {
		c.emitError(domain.SendFailedError)
		return err
	}
	return nil
}

// RequestHistory asks the server for a fresh history snapshot; the response
// arrives through Events.HistoryLoaded.
func (c *Chat) RequestHistory() error {
	c.mu.Lock()
	t := c.transport
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || t == nil {
		return nil
	}
	return t.send(&domain.GetChatHistoryRequest{Type: domain.MethodGetChatHistory})
}

// Disconnect leaves the chat and stops the transport. Valid from any
// non-Disconnected state; the machine always finishes in Disconnected,
// whether or not the best-effort leave reached the server.
func (c *Chat) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Closing
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	c.emitState(Closing)

	if t != nil {
		if ctx.Err() == nil {
			leave := domain.LeaveChatRequest{Type: domain.MethodLeaveChat}
			if err := t.send(&leave); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("leave request failed during disconnect")
			}
		}
		t.stop()
	}

	c.setState(Disconnected)
	return nil
}

// Transport lifecycle signals

func (c *Chat) handleReconnecting(err error) {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return
	}
	c.state = Reconnecting
	c.mu.Unlock()

	l := log.L()
	l.Warn().Err(err).Msg("reconnecting to chat server")
	c.emitState(Reconnecting)
}

func (c *Chat) handleReconnected() {
	c.mu.Lock()
	if c.state != Reconnecting {
		c.mu.Unlock()
		return
	}
	c.state = Connected
	c.mu.Unlock()

	c.emitState(Connected)
}

// handleClosed fires when retries are exhausted or the transport was
// stopped; the machine lands in Disconnected regardless of prior state.
func (c *Chat) handleClosed(err error) {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	c.transport = nil
	c.mu.Unlock()

	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("chat connection closed")
	}
	c.emitState(Disconnected)
}

// Inbound frames

func (c *Chat) handleFrame(data []byte) {
	var base domain.Envelope
	if err := json.Unmarshal(data, &base); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("discarding malformed frame")
		return
	}

	switch base.Type {
	case domain.MethodReceiveMessage:
		var push domain.ReceiveMessagePush
		if json.Unmarshal(data, &push) == nil {
			c.emit(func() { c.events.MessageReceived(push.Message) })
		}

	case domain.MethodUserJoined:
		var push domain.UserJoinedPush
		if json.Unmarshal(data, &push) == nil {
			c.emit(func() { c.events.UserJoined(push.User) })
		}

	case domain.MethodUserLeft:
		var push domain.UserLeftPush
		if json.Unmarshal(data, &push) == nil {
			c.emit(func() { c.events.UserLeft(push.UserName) })
		}

	case domain.MethodChatHistoryLoaded:
		var push domain.ChatHistoryLoadedPush
		if json.Unmarshal(data, &push) == nil {
			c.emit(func() { c.events.HistoryLoaded(push.History) })
		}

	case domain.MethodConnectionError:
		var push domain.ConnectionErrorPush
		if json.Unmarshal(data, &push) == nil {
			c.emit(func() { c.events.ConnectionError(push.Message) })
		}

	default:
		l := log.L()
		l.Debug().Str("type", base.Type).Msg("ignoring unknown push")
	}
}

// Emission helpers

func (c *Chat) emit(fn func()) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	fn()
}

func (c *Chat) emitState(s State) {
	c.emit(func() { c.events.StateChanged(s) })
}

func (c *Chat) emitError(message string) {
	c.emit(func() { c.events.ConnectionError(message) })
}

func (c *Chat) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.emitState(s)
}
