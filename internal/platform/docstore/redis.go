// Package docstore provides reference implementations of the source-document
// store consumed by the reconciler. Documents are stored as JSON blobs keyed
// by document id; derived monetary fields are recomputed on every load and
// never trusted from storage.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// ErrNotFound indicates the requested document does not exist in the store.
var ErrNotFound = errors.New("docstore: document not found")

// RedisStore keeps documents in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed document store and verifies connectivity.
func NewRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// NewRedisWithClient wraps an existing client, for callers that manage the
// connection themselves.
func NewRedisWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get loads a document and recomputes its derived fields.
func (s *RedisStore) Get(ctx context.Context, id string) (*document.Document, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s: %w", id, err)
	}

	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", id, err)
	}
	document.RecalculateDocument(&doc)
	return &doc, nil
}

// Update writes a document. The derived fields are recomputed before the
// write so a stale payload cannot be persisted.
func (s *RedisStore) Update(ctx context.Context, id string, doc *document.Document) error {
	document.RecalculateDocument(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", id, err)
	}
	if err := s.client.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("docstore: set %s: %w", id, err)
	}
	return nil
}
