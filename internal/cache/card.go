// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// card.go provides a Valkey-backed cache of stored cards for share views.
// Cards are immutable once created, so entries only leave the cache when
// they expire or the card is deleted. A deleted card leaves a tombstone
// behind so that a lookup which read the store before the delete cannot
// write the card back.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"letterlove/internal/models"
)

const (
	// cardKeyPrefix is the Valkey key prefix for cached cards.
	cardKeyPrefix = "card:"

	// DefaultCardTTL is how long a card stays cached.
	DefaultCardTTL = 10 * time.Minute

	// tombstone marks a deleted card. It is not valid JSON for a card.
	tombstone = "-"
)

// CardCache stores cards as JSON in Valkey. Every failure is logged and
// treated as a miss; the cache never fails a request.
type CardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCardCache creates a new card cache backed by the given Valkey client.
func NewCardCache(client *redis.Client, ttl time.Duration) *CardCache {
	if ttl == 0 {
		ttl = DefaultCardTTL
	}
	return &CardCache{client: client, ttl: ttl}
}

// CardKey returns the cache key for a card id.
func CardKey(id string) string {
	return cardKeyPrefix + id
}

// Get returns the cached card, or false on a miss, a tombstone or a
// cache error.
func (cc *CardCache) Get(ctx context.Context, id string) (*models.Card, bool) {
	val, err := cc.client.Get(ctx, CardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("card cache get error", "id", id, "error", err)
		return nil, false
	}
	if string(val) == tombstone {
		return nil, false
	}

	var card models.Card
	if err := json.Unmarshal(val, &card); err != nil {
		slog.Warn("card cache decode error", "id", id, "error", err)
		return nil, false
	}
	slog.Debug("card cache hit", "id", id)
	return &card, true
}

// Set stores a card with the configured TTL unless the key is already
// taken, either by a cached copy or by a tombstone.
func (cc *CardCache) Set(ctx context.Context, card *models.Card) {
	val, err := json.Marshal(card)
	if err != nil {
		slog.Warn("card cache encode error", "id", card.ID, "error", err)
		return
	}
	err = cc.client.SetArgs(ctx, CardKey(card.ID), val, redis.SetArgs{Mode: "NX", TTL: cc.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		slog.Debug("card cache set skipped, key present", "id", card.ID)
		return
	}
	if err != nil {
		slog.Warn("card cache set error", "id", card.ID, "error", err)
	}
}

// Invalidate replaces a card with a tombstone that lives as long as a
// cached copy would have.
func (cc *CardCache) Invalidate(ctx context.Context, id string) {
	if err := cc.client.Set(ctx, CardKey(id), tombstone, cc.ttl).Err(); err != nil {
		slog.Warn("card cache invalidate error", "id", id, "error", err)
		return
	}
	slog.Debug("card cache invalidated", "id", id)
}
