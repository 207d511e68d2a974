package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey      = "history:index"
	itemKeyPrefix = "history:item:"
)

// RedisStore persists history items in Redis: a sorted set indexes ids by
// created_at millis, item JSON lives under its own key. ZRem's removed
// count doubles as the rows-affected confirmation the ledger requires.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the history backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection. A failed
// ping is logged but not fatal; the ledger resyncs on the next operation.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis at %s: %v", cfg.Addr, err)
	}

	return &RedisStore{client: client}
}

// Insert writes the item body and indexes it by creation time.
func (s *RedisStore) Insert(ctx context.Context, item Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, itemKeyPrefix+item.ID, body, 0)
	pipe.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(item.CreatedAt.UnixMilli()),
		Member: item.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write history item: %w", err)
	}
	return nil
}

// List returns every item, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Item, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history index: %w", err)
	}
	if len(ids) == 0 {
		return []Item{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history items: %w", err)
	}

	items := make([]Item, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a body; drop it from the index so it
			// stops reappearing.
			s.client.ZRem(ctx, indexKey, ids[i])
			continue
		}
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			log.Printf("skipping corrupt history item %s: %v", ids[i], err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes one item. The returned count is the number of index rows
// actually removed.
func (s *RedisStore) Delete(ctx context.Context, id string) (int64, error) {
	removed, err := s.client.ZRem(ctx, indexKey, id).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete history index entry: %w", err)
	}
	if removed > 0 {
		if err := s.client.Del(ctx, itemKeyPrefix+id).Err(); err != nil {
			log.Printf("history item body for %s not removed: %v", id, err)
		}
	}
	return removed, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
