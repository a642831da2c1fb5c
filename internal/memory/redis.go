package memory

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix for per-agent turn lists.
const keyPrefix = "agentmem:"

// RedisMirror copies conversation turns into a Redis list per agent.
// Graceful fallback: if Redis is unreachable, operations log once and
// become no-ops instead of blocking agent execution.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror connects to the given redis:// URL. Returns nil (and
// logs) when the URL is empty or the server is unreachable, so callers
// can pass the result straight to NewSlidingWindow.
func NewRedisMirror(url string) *RedisMirror {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[Memory] ❌ Invalid Redis URL: %v", err)
		return nil
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Memory] ⚠️ Redis unreachable, mirroring disabled: %v", err)
		client.Close()
		return nil
	}

	log.Printf("[Memory] ✅ Redis mirror connected")
	return &RedisMirror{client: client}
}

// Append pushes a turn onto the agent's list and trims it to the window.
// Failures are logged, never propagated.
func (m *RedisMirror) Append(agentID string, turn Turn, window int) {
	data, err := json.Marshal(turn)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := keyPrefix + agentID
	pipe := m.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-window), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Memory] ⚠️ Redis mirror append failed: %v", err)
	}
}

// Close releases the Redis connection.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
