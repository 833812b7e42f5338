package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps subscription users per cart session and cart line
// until checkout copies them onto the order.
type SessionStore interface {
	Get(ctx context.Context, session, itemKey string) ([]SubscriptionUser, error)
	Save(ctx context.Context, session, itemKey string, users []SubscriptionUser) error
}

const sessionKeyPrefix = "masterspa:cart:"

// RedisStore keeps one hash per session, one field per cart line. The TTL
// is refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, session, itemKey string) ([]SubscriptionUser, error) {
	raw, err := s.client.HGet(ctx, sessionKeyPrefix+session, itemKey).Result()
	if errors.Is(err, redis.Nil) {
		return []SubscriptionUser{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart session: %w", err)
	}

	var users []SubscriptionUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("failed to decode cart session: %w", err)
	}
	return users, nil
}

func (s *RedisStore) Save(ctx context.Context, session, itemKey string, users []SubscriptionUser) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode cart session: %w", err)
	}

	key := sessionKeyPrefix + session
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, itemKey, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save cart session: %w", err)
	}
	return nil
}

// MemoryStore is a process-local SessionStore without expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]SubscriptionUser
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string][]SubscriptionUser)}
}

func (s *MemoryStore) Get(ctx context.Context, session, itemKey string) ([]SubscriptionUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.sessions[session][itemKey]
	out := make([]SubscriptionUser, len(users))
	copy(out, users)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, session, itemKey string, users []SubscriptionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[session] == nil {
		s.sessions[session] = make(map[string][]SubscriptionUser)
	}
	stored := make([]SubscriptionUser, len(users))
	copy(stored, users)
	s.sessions[session][itemKey] = stored
	return nil
}
