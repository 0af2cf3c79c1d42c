package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

const alignmentPrefix = "align:"

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Client exposes the underlying connection so other stores can share it
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// AlignmentKey derives the cache key for an alignment request
func AlignmentKey(videoURL, script, language string) string {
	h := sha256.New()
	for _, part := range []string{videoURL, script, language} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return alignmentPrefix + hex.EncodeToString(h.Sum(nil))
}

// SetAlignment caches an alignment response
func (c *Cache) SetAlignment(ctx context.Context, req models.AlignRequest, resp *models.AlignResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal alignment: %w", err)
	}

	key := AlignmentKey(req.VideoURL, req.ScriptText, req.Language)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// GetAlignment retrieves a cached alignment. A miss returns nil, nil. A
// corrupt entry is deleted and reported as an error.
func (c *Cache) GetAlignment(ctx context.Context, req models.AlignRequest) (*models.AlignResponse, error) {
	key := AlignmentKey(req.VideoURL, req.ScriptText, req.Language)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alignment from cache: %w", err)
	}

	var resp models.AlignResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// drop the unreadable entry
		_ = c.DeleteAlignment(ctx, req)
		return nil, fmt.Errorf("failed to unmarshal alignment: %w", err)
	}

	return &resp, nil
}

// DeleteAlignment removes a cached alignment
func (c *Cache) DeleteAlignment(ctx context.Context, req models.AlignRequest) error {
	return c.client.Del(ctx, AlignmentKey(req.VideoURL, req.ScriptText, req.Language)).Err()
}

// DeletePattern deletes all keys matching a pattern
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Purge drops every cached alignment
func (c *Cache) Purge(ctx context.Context) error {
	return c.DeletePattern(ctx, alignmentPrefix+"*")
}
