package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/erdsync/erd-sync/internal/documents/domain"
	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix    = "erd:doc:" // Cached document: erd:doc:{id}, generation: erd:doc:{id}:gen
	genKeySuffix    = ":gen"
	defaultCacheTTL = 10 * time.Minute
	generationTTL   = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] under KEYS[2] only while KEYS[1] still holds
// the generation ARGV[1]. A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then cur = '0' end
if cur ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

var ErrCacheMiss = errors.New("document not cached")

// DocumentCache keeps recently read documents in Redis. Every write to a
// document must call Invalidate.
//
// Each document has a generation counter bumped by Invalidate. Readers take
// the generation before loading from the database and pass it to Set, so a
// load that raced a write is never cached.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDocumentCache(client *redis.Client, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &DocumentCache{client: client, ttl: ttl}
}

// cachedDocument carries the owner, which the public JSON form hides.
type cachedDocument struct {
	domain.Document
	OwnerID string `json:"ownerId"`
}

func (c *DocumentCache) Get(ctx context.Context, id string) (*domain.Document, error) {
	data, err := c.client.Get(ctx, c.docKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached document: %w", err)
	}

	var cd cachedDocument
	if err := json.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached document: %w", err)
	}
	doc := cd.Document
	doc.OwnerID = cd.OwnerID
	return &doc, nil
}

// Generation returns the current generation of id, 0 if it was never invalidated.
func (c *DocumentCache) Generation(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Set caches doc if its generation is still gen. It reports whether the
// document was stored.
func (c *DocumentCache) Set(ctx context.Context, doc *domain.Document, gen int64) (bool, error) {
	data, err := json.Marshal(cachedDocument{Document: *doc, OwnerID: doc.OwnerID})
	if err != nil {
		return false, fmt.Errorf("failed to marshal document: %w", err)
	}
	keys := []string{c.genKey(doc.ID), c.docKey(doc.ID)}
	stored, err := setIfGeneration.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache document: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached copies and bumps their generations.
func (c *DocumentCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, id := range ids {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Expire(ctx, c.genKey(id), generationTTL)
		pipe.Del(ctx, c.docKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate document: %w", err)
	}
	return nil
}

func (c *DocumentCache) docKey(id string) string {
	return docKeyPrefix + id
}

func (c *DocumentCache) genKey(id string) string {
	return docKeyPrefix + id + genKeySuffix
}
