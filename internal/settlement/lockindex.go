package settlement

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// LockCache remembers locked scopes. Locking is terminal, so only positives are cached.
type LockCache interface {
	Has(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
}

// RedisLockCache keeps locked scopes in one redis set.
type RedisLockCache struct {
	Client *redis.Client
	Key    string
}

func NewRedisLockCache(client *redis.Client) *RedisLockCache {
	return &RedisLockCache{Client: client, Key: "seva:settlement:locked"}
}

func (c *RedisLockCache) Has(ctx context.Context, key string) (bool, error) {
	return c.Client.SIsMember(ctx, c.Key, key).Result()
}

func (c *RedisLockCache) Add(ctx context.Context, key string) error {
	return c.Client.SAdd(ctx, c.Key, key).Err()
}

func scopeKey(counterID, businessDate, shift string) string {
	return counterID + "|" + businessDate + "|" + shift
}

// LockIndex answers whether a (counter, date, shift) is locked. The database is authoritative;
// the cache only short-circuits repeat checks.
type LockIndex struct {
	repo  Repository
	cache LockCache
}

func NewLockIndex(repo Repository, cache LockCache) *LockIndex {
	return &LockIndex{repo: repo, cache: cache}
}

func (l *LockIndex) IsLocked(ctx context.Context, counterID, businessDate, shift string) (bool, error) {
	key := scopeKey(counterID, businessDate, shift)
	if l.cache != nil {
		hit, err := l.cache.Has(ctx, key)
		if err != nil {
			log.Printf("⚠️ settlement lock cache read failed: %v", err)
		} else if hit {
			return true, nil
		}
	}

	locked, err := l.repo.IsLocked(ctx, counterID, businessDate, shift)
	if err != nil {
		return false, err
	}
	if locked {
		l.remember(ctx, key)
	}
	return locked, nil
}

func (l *LockIndex) remember(ctx context.Context, key string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Add(ctx, key); err != nil {
		log.Printf("⚠️ settlement lock cache write failed: %v", err)
	}
}
