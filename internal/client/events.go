package client

import "github.com/BrianBNeal/DistributedDemo/internal/domain"

// Events receives server pushes and connection state transitions. The
// consuming layer registers one implementation when constructing the Chat;
// callbacks are serialized and never interleave with each other.
type Events interface {
	MessageReceived(msg domain.ChatMessage)
	UserJoined(user domain.User)
	UserLeft(userName string)
	HistoryLoaded(history domain.ChatHistoryResponse)
	ConnectionError(message string)
	StateChanged(state State)
}
