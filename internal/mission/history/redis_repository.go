package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// RedisRepository stores history entries in a Redis list, newest at the head.
type RedisRepository struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, key string, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisRepository) Append(ctx context.Context, entry model.HistoryEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("entry_id", entry.ID).Msg("failed to marshal history entry")
		return fmt.Errorf("marshal history entry: %w", err)
	}

	if err := r.rdb.LPush(ctx, r.key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to push history entry to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, r.key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", r.key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", r.key).Dur("ttl", r.ttl).Msg("failed to set TTL on history key")
		}
	}
	return nil
}

func (r *RedisRepository) Load(ctx context.Context) ([]model.HistoryEntry, error) {
	rows, err := r.rdb.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.HistoryEntry{}, nil
		}
		logx.Error().Err(err).Str("key", r.key).Msg("failed to load history from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.HistoryEntry, 0, len(rows))
	for i, s := range rows {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("key", r.key).Int("index", i).Msg("failed to unmarshal history entry")
			return nil, fmt.Errorf("unmarshal history entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisRepository) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to delete history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.LLen(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", r.key).Msg("failed to get history count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.HistoryRepository = (*RedisRepository)(nil)
