package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/social-core/internal/repository"
)

// FriendSetCache fronts FriendshipRepository.AcceptedFriendIDs with a
// Redis list per user. The feed privacy predicate hits this on every
// authenticated read, so the id set is worth keeping warm; friendship
// mutations invalidate both sides.
type FriendSetCache struct {
	friendships repository.FriendshipRepository
	cache       *redis.Client
	ttl         time.Duration
}

func NewFriendSetCache(friendships repository.FriendshipRepository, cache *redis.Client, ttl time.Duration) *FriendSetCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FriendSetCache{friendships: friendships, cache: cache, ttl: ttl}
}

func friendKey(userID string) string { return fmt.Sprintf("friends:accepted:%s", userID) }

// sentinel stored for users with no friends so an empty result still
// counts as a cache hit
const emptyMarker = "-"

func (c *FriendSetCache) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	key := friendKey(userID)
	if ids, err := c.cache.LRange(ctx, key, 0, -1).Result(); err == nil && len(ids) > 0 {
		if len(ids) == 1 && ids[0] == emptyMarker {
			return nil, nil
		}
		return ids, nil
	}

	ids, err := c.friendships.AcceptedFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(ids)+1)
	if len(ids) == 0 {
		values = append(values, emptyMarker)
	}
	for _, id := range ids {
		values = append(values, id)
	}
	pipe := c.cache.Pipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, c.ttl)
	// cache write failures degrade to DB reads, never to request errors
	_, _ = pipe.Exec(ctx)

	return ids, nil
}

func (c *FriendSetCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = friendKey(id)
	}
	return c.cache.Del(ctx, keys...).Err()
}
