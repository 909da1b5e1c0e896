package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"DocLink/internal/modules/rag/domain/repository"

	"github.com/redis/go-redis/v9"
)

// SessionTTL 会话 30 天无活动后由 Redis 过期回收
const SessionTTL = 30 * 24 * time.Hour

type redisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) repository.SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func sessionKey(botUuid, sessionID string) string {
	return fmt.Sprintf("doclink:session:%s:%s", botUuid, sessionID)
}

// Append 追加消息并滚动续期 TTL
func (s *redisSessionStore) Append(ctx context.Context, botUuid, sessionID string, msgs ...repository.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	key := sessionKey(botUuid, sessionID)
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		bs, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, bs)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, SessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisSessionStore) History(ctx context.Context, botUuid, sessionID string) ([]repository.ChatMessage, error) {
	raw, err := s.rdb.LRange(ctx, sessionKey(botUuid, sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]repository.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m repository.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
