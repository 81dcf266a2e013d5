package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
)

// Redis stores records as SET NX keys that expire after the TTL.
type Redis struct{ rc redis.Cmdable }

var _ idomain.Store = (*Redis)(nil)

func NewRedis(rc redis.Cmdable) *Redis { return &Redis{rc: rc} }

func redisKey(k idomain.Key) string { return "idem:" + k.String() }

func (r *Redis) Claim(ctx context.Context, key idomain.Key, now time.Time, ttl time.Duration) (idomain.Claim, bool, error) {
	now = now.UTC()
	ok, err := r.rc.SetNX(ctx, redisKey(key), strconv.FormatInt(now.UnixNano(), 10), ttl).Result()
	if err != nil {
		return idomain.Claim{}, false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		return idomain.Claim{}, false, nil
	}
	return idomain.Claim{Key: key, DispatchedAt: now}, true, nil
}

var releaseIfOwner = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (r *Redis) Release(ctx context.Context, c idomain.Claim) error {
	err := releaseIfOwner.Run(ctx, r.rc, []string{redisKey(c.Key)}, strconv.FormatInt(c.DispatchedAt.UnixNano(), 10)).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release %s: %w", c.Key, err)
	}
	return nil
}
