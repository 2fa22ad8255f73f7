package domain

// Redis keys.
const (
	ChatMessagesKey      = "chat:messages"
	OnlineUsersKey       = "chat:users:online"
	UserDetailsKeyPrefix = "chat:user:"
)

// Hub path.
const ChatHubPath = "/chathub"

// Message limits (defaults; the configured values flow in through config).
const (
	MaxUsernameLength    = 50
	MaxMessageLength     = 1000
	MaxMessagesInHistory = 100
)

// System messages.
const (
	SystemUserName     = "System"
	UserJoinedTemplate = "%s joined the chat"
	UserLeftTemplate   = "%s left the chat"
)

// Error messages surfaced to the caller.
const (
	InvalidUsernameError   = "Username must be between 1 and 50 characters"
	InvalidMessageError    = "Message cannot be empty or exceed 1000 characters"
	ConnectionFailedError  = "Failed to connect to chat server"
	DuplicateUsernameError = "Username is already taken"
	UserNotFoundError      = "User not found. Please rejoin the chat."
	JoinFailedError        = "Failed to join chat. Please try again."
	SendFailedError        = "Failed to send message. Please try again."
	HistoryFailedError     = "Failed to load chat history."
)
