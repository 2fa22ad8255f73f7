package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
)

func TestUserFromHash(t *testing.T) {
	req := require.New(t)

	joinedAt := time.Date(2025, 6, 1, 12, 0, 0, 123456700, time.UTC)
	fields := map[string]string{
		fieldConnectionID: "c1",
		fieldName:         "alice",
		fieldJoinedAt:     joinedAt.Format(time.RFC3339Nano),
		fieldIsOnline:     "true",
	}

	user, ok := userFromHash(fields)
	req.True(ok)
	req.Equal("c1", user.ConnectionID)
	req.Equal("alice", user.Name)
	req.True(user.JoinedAt.Equal(joinedAt))
	req.True(user.IsOnline)
}

func TestUserFromHashPartialRecord(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"empty", map[string]string{}},
		{"missing connection", map[string]string{fieldName: "alice", fieldJoinedAt: "2025-06-01T12:00:00Z"}},
		{"missing name", map[string]string{fieldConnectionID: "c1", fieldJoinedAt: "2025-06-01T12:00:00Z"}},
		{"missing joined at", map[string]string{fieldConnectionID: "c1", fieldName: "alice"}},
		{"bad joined at", map[string]string{fieldConnectionID: "c1", fieldName: "alice", fieldJoinedAt: "yesterday"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := userFromHash(tc.fields)
			require.False(t, ok)
		})
	}
}

func TestSortUsersAscendingByJoinTime(t *testing.T) {
	req := require.New(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := []domain.User{
		{Name: "charlie", JoinedAt: base.Add(2 * time.Minute)},
		{Name: "alice", JoinedAt: base},
		{Name: "bob", JoinedAt: base.Add(time.Minute)},
	}

	sortUsers(users)

	req.Equal("alice", users[0].Name)
	req.Equal("bob", users[1].Name)
	req.Equal("charlie", users[2].Name)
}

func TestSortUsersStableOnTies(t *testing.T) {
	req := require.New(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := []domain.User{
		{Name: "first", JoinedAt: at},
		{Name: "second", JoinedAt: at},
	}

	sortUsers(users)

	req.Equal("first", users[0].Name)
	req.Equal("second", users[1].Name)
}
