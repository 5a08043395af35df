package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SpeechCache stores synthesized examiner audio so repeated prompts
// (redirects, move-on, completion messages) are synthesized once
type SpeechCache interface {
	Get(ctx context.Context, voice, text string) ([]byte, error)
	Set(ctx context.Context, voice, text string, audio []byte) error
}

type speechCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSpeechCache creates a speech cache
func NewSpeechCache(client *redis.Client) SpeechCache {
	return &speechCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *speechCache) key(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return fmt.Sprintf("speech:%s", hex.EncodeToString(sum[:]))
}

// Get returns nil, nil on a miss
func (c *speechCache) Get(ctx context.Context, voice, text string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(voice, text)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (c *speechCache) Set(ctx context.Context, voice, text string, audio []byte) error {
	return c.client.Set(ctx, c.key(voice, text), audio, c.ttl).Err()
}
