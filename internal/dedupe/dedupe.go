// Package dedupe remembers record signatures so repeated exports can be
// skipped. Both indexes satisfy core.DuplicateIndex.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// MemoryIndex keeps signatures for the life of the process.
type MemoryIndex struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{seen: make(map[string]struct{})}
}

var _ core.DuplicateIndex = (*MemoryIndex)(nil)

// Seen reports whether sig was recorded before, and records it.
func (m *MemoryIndex) Seen(_ context.Context, sig string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[sig]; ok {
		return true, nil
	}
	m.seen[sig] = struct{}{}
	return false, nil
}

// Len is the number of signatures held.
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// RedisIndex shares signatures between processes. Keys expire after TTL so
// re-importing an old export eventually persists again.
type RedisIndex struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisIndex(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisIndex {
	return &RedisIndex{client: client, prefix: prefix, ttl: ttl}
}

var _ core.DuplicateIndex = (*RedisIndex)(nil)

// Seen sets the signature key only if absent; an existing key means the
// record was imported before.
func (r *RedisIndex) Seen(ctx context.Context, sig string) (bool, error) {
	created, err := r.client.SetNX(ctx, r.key(sig), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return !created, nil
}

// Signatures carry names and reader labels, so keys hold a digest.
func (r *RedisIndex) key(sig string) string {
	sum := sha256.Sum256([]byte(sig))
	return r.prefix + hex.EncodeToString(sum[:])
}

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
