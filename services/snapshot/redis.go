package snapshot

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "invites:snapshot:"

// RedisStore keeps snapshots in a redis hash per guild so they survive
// process restarts.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Snapshot(ctx context.Context, guildID string) (map[string]int, error) {
	fields, err := s.rdb.HGetAll(ctx, keyPrefix+guildID).Result()
	if err != nil {
		return nil, err
	}

	uses := make(map[string]int, len(fields))
	for code, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		uses[code] = n
	}
	return uses, nil
}

func (s *RedisStore) Replace(ctx context.Context, guildID string, uses map[string]int) error {
	key := keyPrefix + guildID

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(uses) > 0 {
		fields := make(map[string]interface{}, len(uses))
		for code, n := range uses {
			fields[code] = n
		}
		pipe.HSet(ctx, key, fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Patch(ctx context.Context, guildID, code string, uses int) error {
	return s.rdb.HSet(ctx, keyPrefix+guildID, code, uses).Err()
}

func (s *RedisStore) Remove(ctx context.Context, guildID, code string) error {
	return s.rdb.HDel(ctx, keyPrefix+guildID, code).Err()
}
