// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for serialized public responses.
// When a published page or post is fetched through the public API, the
// JSON payload is stored in Valkey so subsequent requests skip the DB
// queries entirely.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached page payloads.
	pageKeyPrefix = "page:"

	// postKeyPrefix is the Valkey key prefix for cached post payloads.
	postKeyPrefix = "post:"

	// DefaultPageTTL is how long a cached payload stays valid.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages public response caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// GetPage retrieves a cached payload for a page slug. Returns nil on miss.
func (pc *PageCache) GetPage(ctx context.Context, slug string) ([]byte, bool) {
	return pc.get(ctx, pageKeyPrefix+slug)
}

// SetPage stores a serialized page payload with the configured TTL.
func (pc *PageCache) SetPage(ctx context.Context, slug string, payload []byte) {
	pc.set(ctx, pageKeyPrefix+slug, payload)
}

// GetPost retrieves a cached payload for a post slug. Returns nil on miss.
func (pc *PageCache) GetPost(ctx context.Context, slug string) ([]byte, bool) {
	return pc.get(ctx, postKeyPrefix+slug)
}

// SetPost stores a serialized post payload with the configured TTL.
func (pc *PageCache) SetPost(ctx context.Context, slug string, payload []byte) {
	pc.set(ctx, postKeyPrefix+slug, payload)
}

func (pc *PageCache) get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("cache hit", "key", key)
	return val, true
}

func (pc *PageCache) set(ctx context.Context, key string, payload []byte) {
	if err := pc.client.Set(ctx, key, payload, pc.ttl).Err(); err != nil {
		slog.Warn("cache set error", "key", key, "error", err)
	}
}

// InvalidatePage removes a single page from the cache by its slug.
func (pc *PageCache) InvalidatePage(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+slug).Err(); err != nil {
		slog.Warn("cache invalidate error", "slug", slug, "error", err)
	}
	slog.Debug("page cache invalidated", "slug", slug)
}

// InvalidatePost removes a single post from the cache by its slug.
func (pc *PageCache) InvalidatePost(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, postKeyPrefix+slug).Err(); err != nil {
		slog.Warn("cache invalidate error", "slug", slug, "error", err)
	}
}

// InvalidateHomepage removes the cached homepage.
func (pc *PageCache) InvalidateHomepage(ctx context.Context) {
	pc.InvalidatePage(ctx, HomepageKey())
}

// InvalidateTree removes a page and every descendant payload under its
// slug. A cascade rename shifts the slug of the whole subtree, so both
// the old and the new prefix must be cleared by the caller.
func (pc *PageCache) InvalidateTree(ctx context.Context, slug string) {
	pc.InvalidatePage(ctx, slug)
	pc.deleteByPattern(ctx, pageKeyPrefix+slug+"/*")
}

// InvalidateAll removes all cached payloads by scanning for the prefixes.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	pc.deleteByPattern(ctx, pageKeyPrefix+"*")
	pc.deleteByPattern(ctx, postKeyPrefix+"*")
}

func (pc *PageCache) deleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("cache scan error", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("cache cleared", "pattern", pattern, "deleted", deleted)
	}
}

// HomepageKey returns the cache key for the homepage.
func HomepageKey() string {
	return "_homepage"
}
