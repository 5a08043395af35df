package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"speakexam/internal/flow"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps live test sessions in Redis between user actions
type SessionStore interface {
	Save(ctx context.Context, s *flow.SessionState) error
	Get(ctx context.Context, id string) (*flow.SessionState, error)
	Delete(ctx context.Context, id string) error
}

type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store. Every save refreshes the TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &sessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionStore) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionStore) Save(ctx context.Context, s *flow.SessionState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	return c.client.Set(ctx, c.key(s.ID), data, c.ttl).Err()
}

// Get returns nil, nil when the session does not exist or has expired
func (c *sessionStore) Get(ctx context.Context, id string) (*flow.SessionState, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s flow.SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}

func (c *sessionStore) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
