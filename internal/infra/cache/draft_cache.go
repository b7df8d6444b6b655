package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

const draftKeyPrefix = "lead:draft:"

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// DraftCache guarda o rascunho por token para o autosave não bater no Postgres a cada tecla.
type DraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftCache(client *redis.Client, ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DraftCache{client: client, ttl: ttl}
}

func draftKey(token string) string {
	return draftKeyPrefix + token
}

// Get devolve (nil, nil) quando o token não está no cache.
func (c *DraftCache) Get(ctx context.Context, token string) (*entity.Lead, error) {
	raw, err := c.client.Get(ctx, draftKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lead entity.Lead
	if err := json.Unmarshal(raw, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *DraftCache) Set(ctx context.Context, lead *entity.Lead) error {
	raw, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, draftKey(lead.Token), raw, c.ttl).Err()
}

func (c *DraftCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, draftKey(token)).Err()
}

func (c *DraftCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
