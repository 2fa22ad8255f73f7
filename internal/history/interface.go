package history

import (
	"context"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
)

// Log is the bounded, append-only chat history.
type Log interface {
	// Append inserts msg as most-recent, evicting the oldest entries once
	// the log exceeds its capacity.
	Append(ctx context.Context, msg domain.ChatMessage) error

	// Recent returns up to capacity messages, oldest first.
	Recent(ctx context.Context) ([]domain.ChatMessage, error)
}
