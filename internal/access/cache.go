package access

import (
	"context"
	"errors"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// GrantSource lists every grant recorded for a user, whatever its status.
type GrantSource interface {
	ListGrantsByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error)
}

const grantKeyPrefix = "planner:access:grants:"

// CachedGrantSource keeps each user's grant list in the KV store for ttl.
// Concurrent misses for the same user share one lookup. Cache failures fall
// through to the source; source failures are returned as-is.
type CachedGrantSource struct {
	src    GrantSource
	kv     store.KV
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachedGrantSource wraps src. A zero ttl disables caching.
func NewCachedGrantSource(src GrantSource, kv store.KV, ttl time.Duration, logger *zap.Logger) *CachedGrantSource {
	return &CachedGrantSource{src: src, kv: kv, ttl: ttl, logger: logger}
}

var _ GrantSource = (*CachedGrantSource)(nil)

func grantKey(userID string) string {
	return grantKeyPrefix + userID
}

// ListGrantsByUser implements GrantSource.
func (c *CachedGrantSource) ListGrantsByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error) {
	if c.kv == nil || c.ttl <= 0 {
		return c.src.ListGrantsByUser(ctx, userID)
	}

	key := grantKey(userID)
	var cached []domain.AccessGrant
	err := store.GetJSON(ctx, c.kv, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, store.ErrMiss) {
		c.logger.Warn("Grant cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	v, err, _ := c.group.Do(userID, func() (any, error) {
		grants, err := c.src.ListGrantsByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := store.SetJSON(ctx, c.kv, key, grants, c.ttl); err != nil {
			c.logger.Warn("Grant cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
		return grants, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.AccessGrant), nil
}

// Invalidate drops the cached grants of userID.
func (c *CachedGrantSource) Invalidate(ctx context.Context, userID string) {
	if c.kv == nil {
		return
	}
	if err := c.kv.Del(ctx, grantKey(userID)); err != nil {
		c.logger.Warn("Grant cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
