package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
)

// redisLog implements Log on a Redis list, newest at the head,
// trimmed to capacity on every append.
type redisLog struct {
	client   *redis.Client
	capacity int64
}

// NewRedisLog creates a Redis-backed bounded message log.
func NewRedisLog(client *redis.Client, capacity int) Log {
	if capacity <= 0 {
		capacity = domain.MaxMessagesInHistory
	}
	return &redisLog{client: client, capacity: int64(capacity)}
}

func (l *redisLog) Append(ctx context.Context, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Push and trim in one transaction so the list never stays over capacity.
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, domain.ChatMessagesKey, data)
	pipe.LTrim(ctx, domain.ChatMessagesKey, 0, l.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (l *redisLog) Recent(ctx context.Context) ([]domain.ChatMessage, error) {
	entries, err := l.client.LRange(ctx, domain.ChatMessagesKey, 0, l.capacity-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message history: %w", err)
	}
	return decodeMessages(entries), nil
}

// decodeMessages turns newest-first list entries into oldest-first messages,
// dropping any entry that no longer parses.
func decodeMessages(entries []string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			logger := log.L()
			logger.Warn().Err(err).Msg("skipping corrupt history entry")
			continue
		}
		messages = append(messages, msg)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}
