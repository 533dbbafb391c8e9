package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"pdfmark/internal/model"
)

const versionTTL = 24 * time.Hour

// MarkupCache keeps a document's stored collections in redis for a short
// time. Writes delete the cached collection instead of updating it and bump
// a per-collection version; a fill is only stored when the version it read
// before loading from the database is still current.
type MarkupCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewMarkupCache(client *redisv9.Client, ttl time.Duration) *MarkupCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &MarkupCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *MarkupCache) Get(ctx context.Context, documentID string, kind model.Kind) ([]model.Markup, bool, error) {
	raw, err := c.client.Get(ctx, markupKey(documentID, kind)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get markups failed: %w", err)
	}

	var items []model.Markup
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached markups failed: %w", err)
	}
	for i := range items {
		items[i].DocumentID = documentID
	}
	return items, true, nil
}

// Version returns the current version of a cached collection.
func (c *MarkupCache) Version(ctx context.Context, documentID string, kind model.Kind) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(documentID, kind)).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get markup version failed: %w", err)
	}
	return v, nil
}

// Set stores items when the collection is still at version. A write that
// raced with an invalidation is dropped silently.
func (c *MarkupCache) Set(ctx context.Context, documentID string, kind model.Kind, items []model.Markup, version int64) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal markup cache failed: %w", err)
	}

	vKey := versionKey(documentID, kind)
	err = c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		current, err := tx.Get(ctx, vKey).Int64()
		if err != nil && err != redisv9.Nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Set(ctx, markupKey(documentID, kind), payload, c.ttl)
			return nil
		})
		return err
	}, vKey)
	if err == redisv9.TxFailedErr {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set markups failed: %w", err)
	}
	return nil
}

// Delete drops the cached collection and bumps its version.
func (c *MarkupCache) Delete(ctx context.Context, documentID string, kind model.Kind) error {
	vKey := versionKey(documentID, kind)
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, vKey)
		pipe.Expire(ctx, vKey, versionTTL)
		pipe.Del(ctx, markupKey(documentID, kind))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete markups failed: %w", err)
	}
	return nil
}

func markupKey(documentID string, kind model.Kind) string {
	return fmt.Sprintf("pdfmark:markups:%s:%s", documentID, kind)
}

func versionKey(documentID string, kind model.Kind) string {
	return fmt.Sprintf("pdfmark:markups:version:%s:%s", documentID, kind)
}
