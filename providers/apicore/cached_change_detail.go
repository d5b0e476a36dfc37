package apicore

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-remediation-notify/core"
)

const changeDetailCacheKeyPrefix = "go-remediation-notify::change_detail::v1"

// CachedChangeDetailSource memoizes change-detail lookups so a burst of
// PR-opened events for the same change hits the registry once.
type CachedChangeDetailSource struct {
	base  core.ChangeDetailSource
	cache repositorycache.CacheService
}

func NewCachedChangeDetailSource(
	base core.ChangeDetailSource,
	cacheService repositorycache.CacheService,
) (*CachedChangeDetailSource, error) {
	if base == nil {
		return nil, fmt.Errorf("apicore: base change detail source is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("apicore: cache service is required")
	}
	return &CachedChangeDetailSource{base: base, cache: cacheService}, nil
}

// ChangeDetailCacheKey returns the deterministic cache key for one change:
// go-remediation-notify::change_detail::v1::<change_id>.
func ChangeDetailCacheKey(changeID int64) string {
	return fmt.Sprintf("%s::%d", changeDetailCacheKeyPrefix, changeID)
}

func (s *CachedChangeDetailSource) ChangeDetail(ctx context.Context, changeID int64) (*core.ChangeDetail, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("apicore: cached change detail source is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, ChangeDetailCacheKey(changeID),
		func(ctx context.Context) (*core.ChangeDetail, error) {
			return s.base.ChangeDetail(ctx, changeID)
		})
}

// Invalidate drops the cached detail for one change.
func (s *CachedChangeDetailSource) Invalidate(ctx context.Context, changeID int64) error {
	if s == nil || s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, ChangeDetailCacheKey(changeID))
}

var _ core.ChangeDetailSource = (*CachedChangeDetailSource)(nil)
