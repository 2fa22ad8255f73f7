package service

import "context"

// ChatService handles one logical operation per inbound request. Outcomes
// are delivered through the Router; the returned error is for logging only.
type ChatService interface {
	// HandleJoin validates the name, registers the user and announces the
	// join to everyone, then sends history to the caller.
	HandleJoin(ctx context.Context, connectionID, userName string) error

	// HandleSend validates the content, resolves the sender and broadcasts
	// the message to everyone.
	HandleSend(ctx context.Context, connectionID, content string) error

	// HandleLeave handles a voluntary leave.
	HandleLeave(ctx context.Context, connectionID string) error

	// HandleHistory sends a history snapshot to the caller only.
	HandleHistory(ctx context.Context, connectionID string) error

	// HandleDisconnect handles a transport-detected disconnect. Safe to call
	// after an explicit leave; the second call is a no-op.
	HandleDisconnect(ctx context.Context, connectionID string) error
}

// Router fans a typed event out to connections. Implemented by the hub.
type Router interface {
	// All delivers v to every connection.
	All(v interface{}) error

	// Others delivers v to every connection except excludeConnectionID.
	Others(excludeConnectionID string, v interface{}) error

	// To delivers v to one connection only.
	To(connectionID string, v interface{}) error
}
