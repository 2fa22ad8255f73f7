package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is one online chat participant. ConnectionID ties the record to
// exactly one live connection for as long as the user stays online.
type User struct {
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	JoinedAt     time.Time `json:"joinedAt"`
	IsOnline     bool      `json:"isOnline"`
}

// MessageType classifies a chat message. It is serialized by name
// (User|System|Join|Leave) as part of the wire contract.
type MessageType int

const (
	MessageTypeUser MessageType = iota
	MessageTypeSystem
	MessageTypeJoin
	MessageTypeLeave
)

var messageTypeNames = map[MessageType]string{
	MessageTypeUser:   "User",
	MessageTypeSystem: "System",
	MessageTypeJoin:   "Join",
	MessageTypeLeave:  "Leave",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "User"
}

func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *MessageType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for typ, n := range messageTypeNames {
		if n == name {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown message type %q", name)
}

// ChatMessage is immutable once created; the message log owns it after append.
type ChatMessage struct {
	ID        string      `json:"id"`
	UserName  string      `json:"userName"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// NewUserMessage builds a user message with trimmed content and a fresh ID.
func NewUserMessage(userName, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		UserName:  userName,
		Content:   Sanitize(content),
		Timestamp: time.Now().UTC(),
		Type:      MessageTypeUser,
	}
}

// NewSystemMessage builds a system message attributed to the system user.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		UserName:  SystemUserName,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Type:      MessageTypeSystem,
	}
}

// ChatHistoryResponse is a per-request snapshot: messages ascending by
// timestamp, online users ascending by join time.
type ChatHistoryResponse struct {
	Messages    []ChatMessage `json:"messages"`
	OnlineUsers []User        `json:"onlineUsers"`
}
