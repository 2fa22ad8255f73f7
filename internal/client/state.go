package client

// State is the lifecycle state of the logical chat connection. Exactly one
// state holds at any instant; after reaching Disconnected the machine may
// be reused for a new Connect call.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}
