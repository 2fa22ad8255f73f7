package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
)

// fakeTransport is a scripted transport. Sent payloads are recorded and the
// lifecycle hooks are exposed so tests can play server-side events.
type fakeTransport struct {
	mu       sync.Mutex
	hooks    transportHooks
	sent     []interface{}
	stopped  bool
	startErr error
	sendErr  error

	// startHook, when set, runs inside start, i.e. while the machine is
	// still Connecting.
	startHook func()
}

func (f *fakeTransport) start(ctx context.Context) error {
	if f.startHook != nil {
		f.startHook()
	}
	return f.startErr
}

func (f *fakeTransport) send(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeTransport) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTransport) sentPayloads() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]interface{}, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// recorder captures every callback in arrival order.
type recorder struct {
	mu       sync.Mutex
	states   []State
	messages []domain.ChatMessage
	joined   []domain.User
	left     []string
	history  []domain.ChatHistoryResponse
	errors   []string
}

func (r *recorder) MessageReceived(msg domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) UserJoined(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, user)
}

func (r *recorder) UserLeft(userName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, userName)
}

func (r *recorder) HistoryLoaded(history domain.ChatHistoryResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, history)
}

func (r *recorder) ConnectionError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recorder) StateChanged(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) stateLog() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func (r *recorder) errorLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

func newTestChat() (*Chat, *fakeTransport, *recorder) {
	events := &recorder{}
	chat := New("ws://localhost:8080", events)
	ft := &fakeTransport{}
	chat.newTransport = func(hooks transportHooks) transport {
		ft.hooks = hooks
		return ft
	}
	return chat, ft, events
}

func TestConnectTransitionsToConnected(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()

	req.NoError(chat.Connect(context.Background(), "alice"))

	req.Equal(Connected, chat.State())
	req.Equal([]State{Connecting, Connected}, events.stateLog())

	sent := ft.sentPayloads()
	req.Len(sent, 1)
	join, ok := sent[0].(*domain.JoinChatRequest)
	req.True(ok)
	req.Equal(domain.MethodJoinChat, join.Type)
	req.Equal("alice", join.UserName)
}

func TestConnectWhileConnectedIsNoOp(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()

	req.NoError(chat.Connect(context.Background(), "alice"))
	req.NoError(chat.Connect(context.Background(), "alice"))

	req.Equal(Connected, chat.State())
	req.Equal([]State{Connecting, Connected}, events.stateLog())
	req.Len(ft.sentPayloads(), 1)
}

func TestConnectDialFailure(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	ft.startErr = fmt.Errorf("connection refused")

	err := chat.Connect(context.Background(), "alice")
	req.Error(err)

	req.Equal(Disconnected, chat.State())
	req.Equal([]State{Connecting, Disconnected}, events.stateLog())
	req.Equal([]string{domain.ConnectionFailedError}, events.errorLog())
	req.Empty(ft.sentPayloads())
}

func TestConnectJoinSendFailureStopsTransport(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	ft.sendErr = fmt.Errorf("broken pipe")

	err := chat.Connect(context.Background(), "alice")
	req.Error(err)

	req.Equal(Disconnected, chat.State())
	req.Equal([]State{Connecting, Disconnected}, events.stateLog())
	req.True(ft.isStopped())
}

func TestSendWhileDisconnectedIsSilentNoOp(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()

	req.NoError(chat.Send("hello"))
	req.Empty(ft.sentPayloads())
}

func TestSendWhileConnectingIsSilentNoOp(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()

	ft.startHook = func() {
		req.Equal(Connecting, chat.State())
		req.NoError(chat.Send("hello"))
	}

	req.NoError(chat.Connect(context.Background(), "alice"))

	// Only the join reached the wire; the mid-dial send was dropped.
	sent := ft.sentPayloads()
	req.Len(sent, 1)
	_, ok := sent[0].(*domain.JoinChatRequest)
	req.True(ok)
}

func TestSendDropsInvalidContent(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	req.NoError(chat.Send(""))
	req.NoError(chat.Send("   "))
	req.Len(ft.sentPayloads(), 1) // join only
}

func TestSendTrimsContent(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	req.NoError(chat.Send("  hello  "))

	sent := ft.sentPayloads()
	req.Len(sent, 2)
	msg, ok := sent[1].(*domain.SendMessageRequest)
	req.True(ok)
	req.Equal(domain.MethodSendMessage, msg.Type)
	req.Equal("hello", msg.Content)
}

func TestDisconnectSendsLeaveAndStops(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	req.NoError(chat.Disconnect(context.Background()))

	req.Equal(Disconnected, chat.State())
	req.Equal([]State{Connecting, Connected, Closing, Disconnected}, events.stateLog())
	req.True(ft.isStopped())

	sent := ft.sentPayloads()
	req.Len(sent, 2)
	leave, ok := sent[1].(*domain.LeaveChatRequest)
	req.True(ok)
	req.Equal(domain.MethodLeaveChat, leave.Type)
}

func TestDisconnectSkipsLeaveOnCancelledContext(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.NoError(chat.Disconnect(ctx))

	req.Equal(Disconnected, chat.State())
	req.True(ft.isStopped())
	req.Len(ft.sentPayloads(), 1) // join only, no leave
}

func TestDisconnectWhileDisconnectedIsNoOp(t *testing.T) {
	req := require.New(t)
	chat, _, events := newTestChat()

	req.NoError(chat.Disconnect(context.Background()))
	req.Equal(Disconnected, chat.State())
	req.Empty(events.stateLog())
}

func TestReconnectingAndReconnected(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ft.hooks.onReconnecting(fmt.Errorf("read tcp: connection reset"))
	req.Equal(Reconnecting, chat.State())

	ft.hooks.onReconnected()
	req.Equal(Connected, chat.State())

	req.Equal([]State{Connecting, Connected, Reconnecting, Connected}, events.stateLog())
}

func TestReconnectedWithoutReconnectingIsIgnored(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ft.hooks.onReconnected()

	req.Equal(Connected, chat.State())
	req.Equal([]State{Connecting, Connected}, events.stateLog())
}

func TestClosedForcesDisconnectedFromAnyState(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ft.hooks.onReconnecting(fmt.Errorf("connection lost"))
	ft.hooks.onClosed(fmt.Errorf("retries exhausted"))

	req.Equal(Disconnected, chat.State())
	req.Equal([]State{Connecting, Connected, Reconnecting, Disconnected}, events.stateLog())
}

func TestSendWhileReconnectingIsDropped(t *testing.T) {
	req := require.New(t)
	chat, ft, _ := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ft.hooks.onReconnecting(fmt.Errorf("connection lost"))
	req.NoError(chat.Send("hello"))
	req.Len(ft.sentPayloads(), 1) // join only
}

func TestInboundPushesReachEvents(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	frame := func(v interface{}) []byte {
		data, err := json.Marshal(v)
		req.NoError(err)
		return data
	}

	msg := domain.NewUserMessage("bob", "hi there")
	ft.hooks.onMessage(frame(domain.NewReceiveMessage(msg)))
	ft.hooks.onMessage(frame(domain.NewUserJoined(domain.User{ConnectionID: "c2", Name: "bob"})))
	ft.hooks.onMessage(frame(domain.NewUserLeft("bob")))
	ft.hooks.onMessage(frame(domain.NewChatHistoryLoaded(domain.ChatHistoryResponse{
		Messages:    []domain.ChatMessage{msg},
		OnlineUsers: []domain.User{{Name: "alice"}},
	})))
	ft.hooks.onMessage(frame(domain.NewConnectionError(domain.DuplicateUsernameError)))

	events.mu.Lock()
	defer events.mu.Unlock()
	req.Len(events.messages, 1)
	req.Equal("hi there", events.messages[0].Content)
	req.Len(events.joined, 1)
	req.Equal("bob", events.joined[0].Name)
	req.Equal([]string{"bob"}, events.left)
	req.Len(events.history, 1)
	req.Len(events.history[0].Messages, 1)
	req.Equal([]string{domain.DuplicateUsernameError}, events.errors)
}

func TestMalformedAndUnknownFramesAreIgnored(t *testing.T) {
	req := require.New(t)
	chat, ft, events := newTestChat()
	req.NoError(chat.Connect(context.Background(), "alice"))

	ft.hooks.onMessage([]byte("{not json"))
	ft.hooks.onMessage([]byte(`{"type":"SomethingNew","x":1}`))

	events.mu.Lock()
	defer events.mu.Unlock()
	req.Empty(events.messages)
	req.Empty(events.errors)
}
