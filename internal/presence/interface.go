package presence

import (
	"context"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
)

// Registry tracks which display names are online and maps each live
// connection to its user record.
type Registry interface {
	// TryRegister atomically claims name for connectionID. It returns
	// domain.ErrDuplicateName if the name is already online.
	TryRegister(ctx context.Context, name, connectionID string) (*domain.User, error)

	// Unregister removes the user owning connectionID and returns it.
	// A connection with no registered user returns (nil, nil).
	Unregister(ctx context.Context, connectionID string) (*domain.User, error)

	// LookupByConnection returns the user owning connectionID, or nil.
	LookupByConnection(ctx context.Context, connectionID string) (*domain.User, error)

	// ListOnline returns online users ascending by join time.
	ListOnline(ctx context.Context) ([]domain.User, error)
}
