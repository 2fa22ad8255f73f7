package domain

// Server-invokable operations (client -> server).
const (
	MethodJoinChat       = "JoinChat"
	MethodSendMessage    = "SendMessage"
	MethodLeaveChat      = "LeaveChat"
	MethodGetChatHistory = "GetChatHistory"
)

// Push callbacks (server -> client).
const (
	MethodReceiveMessage    = "ReceiveMessage"
	MethodUserJoined        = "UserJoined"
	MethodUserLeft          = "UserLeft"
	MethodChatHistoryLoaded = "ChatHistoryLoaded"
	MethodConnectionError   = "ConnectionError"
)

// Envelope carries the method name used to route a frame.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> Server requests

type JoinChatRequest struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
}

type SendMessageRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type LeaveChatRequest struct {
	Type string `json:"type"`
}

type GetChatHistoryRequest struct {
	Type string `json:"type"`
}

// Server -> Client pushes

type ReceiveMessagePush struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

type UserJoinedPush struct {
	Type string `json:"type"`
	User User   `json:"user"`
}

type UserLeftPush struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
}

type ChatHistoryLoadedPush struct {
	Type    string              `json:"type"`
	History ChatHistoryResponse `json:"history"`
}

type ConnectionErrorPush struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewReceiveMessage(msg ChatMessage) *ReceiveMessagePush {
	return &ReceiveMessagePush{Type: MethodReceiveMessage, Message: msg}
}

func NewUserJoined(user User) *UserJoinedPush {
	return &UserJoinedPush{Type: MethodUserJoined, User: user}
}

func NewUserLeft(userName string) *UserLeftPush {
	return &UserLeftPush{Type: MethodUserLeft, UserName: userName}
}

func NewChatHistoryLoaded(history ChatHistoryResponse) *ChatHistoryLoadedPush {
	return &ChatHistoryLoadedPush{Type: MethodChatHistoryLoaded, History: history}
}

func NewConnectionError(message string) *ConnectionErrorPush {
	return &ConnectionErrorPush{Type: MethodConnectionError, Message: message}
}
