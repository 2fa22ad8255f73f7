package presence

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
)

// Hash field names for the per-user record; part of the persisted layout.
const (
	fieldConnectionID = "ConnectionId"
	fieldName         = "Name"
	fieldJoinedAt     = "JoinedAt"
	fieldIsOnline     = "IsOnline"
)

// Config holds registry configuration.
type Config struct {
	// TTL is the safety expiry on per-user records so ungraceful
	// disconnects self-heal without manual cleanup.
	TTL time.Duration
}

// redisRegistry implements Registry on Redis: a set of online names plus
// one hash per user, expiring after cfg.TTL.
type redisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a Redis-backed presence registry.
func NewRedisRegistry(client *redis.Client, cfg Config) Registry {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisRegistry{client: client, ttl: ttl}
}

func userKey(name string) string {
	return domain.UserDetailsKeyPrefix + name
}

func (r *redisRegistry) TryRegister(ctx context.Context, name, connectionID string) (*domain.User, error) {
	// SADD is the atomic insert-if-absent: under concurrent joins for the
	// same name exactly one caller observes a new member.
	added, err := r.client.SAdd(ctx, domain.OnlineUsersKey, name).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to add online user: %w", err)
	}
	if added == 0 {
		return nil, domain.ErrDuplicateName
	}

	user := &domain.User{
		ConnectionID: connectionID,
		Name:         name,
		JoinedAt:     time.Now().UTC(),
		IsOnline:     true,
	}

	key := userKey(name)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldConnectionID: user.ConnectionID,
		fieldName:         user.Name,
		fieldJoinedAt:     user.JoinedAt.Format(time.RFC3339Nano),
		fieldIsOnline:     strconv.FormatBool(user.IsOnline),
	})
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the claimed name so the caller can retry.
		if remErr := r.client.SRem(ctx, domain.OnlineUsersKey, name).Err(); remErr != nil {
			l := log.L()
			l.Error().Err(remErr).Str(log.FieldUserName, name).Msg("failed to release name after write failure")
		}
		return nil, fmt.Errorf("failed to store user details: %w", err)
	}

	return user, nil
}

func (r *redisRegistry) Unregister(ctx context.Context, connectionID string) (*domain.User, error) {
	user, err := r.LookupByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, domain.OnlineUsersKey, user.Name)
	pipe.Del(ctx, userKey(user.Name))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to remove user: %w", err)
	}

	return user, nil
}

func (r *redisRegistry) LookupByConnection(ctx context.Context, connectionID string) (*domain.User, error) {
	records, err := r.userRecords(ctx)
	if err != nil {
		return nil, err
	}

	for _, fields := range records {
		user, ok := userFromHash(fields)
		if !ok {
			continue
		}
		if user.ConnectionID == connectionID {
			return user, nil
		}
	}
	return nil, nil
}

func (r *redisRegistry) ListOnline(ctx context.Context) ([]domain.User, error) {
	records, err := r.userRecords(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(records))
	for _, fields := range records {
		// An expired hash leaves a dangling set member; skip it.
		if user, ok := userFromHash(fields); ok {
			users = append(users, *user)
		}
	}
	sortUsers(users)
	return users, nil
}

// userRecords fetches every online user hash in a single pipeline.
func (r *redisRegistry) userRecords(ctx context.Context) ([]map[string]string, error) {
	names, err := r.client.SMembers(ctx, domain.OnlineUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read online users: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, userKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read user details: %w", err)
	}

	records := make([]map[string]string, 0, len(cmds))
	for _, cmd := range cmds {
		if fields := cmd.Val(); len(fields) > 0 {
			records = append(records, fields)
		}
	}
	return records, nil
}

func userFromHash(fields map[string]string) (*domain.User, bool) {
	connectionID := fields[fieldConnectionID]
	name := fields[fieldName]
	joinedAtStr := fields[fieldJoinedAt]
	if connectionID == "" || name == "" || joinedAtStr == "" {
		return nil, false
	}

	joinedAt, err := time.Parse(time.RFC3339Nano, joinedAtStr)
	if err != nil {
		return nil, false
	}

	return &domain.User{
		ConnectionID: connectionID,
		Name:         name,
		JoinedAt:     joinedAt,
		IsOnline:     true,
	}, true
}

func sortUsers(users []domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})
}
