package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one conversation turn persisted for classifier context.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the stored conversation for one session id.
type Session struct {
	SessionID    string    `json:"session_id"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// Store persists conversation sessions. Backends are swappable; the
// service ships with Redis.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Append(ctx context.Context, sessionID string, msg Message) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// RedisStore is the Redis-backed Store. Sessions expire after the
// configured TTL; every append refreshes it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) key(sessionID string) string {
	return "opsbridge:session:" + sessionID
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return &Session{SessionID: sessionID, Messages: []Message{}, LastActivity: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Append(ctx context.Context, sessionID string, msg Message) error {
	s, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	s.Messages = append(s.Messages, msg)
	s.LastActivity = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
