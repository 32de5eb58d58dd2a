// Package cache 看板指标缓存：Redis 实现与未启用 Redis 时的空实现
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
)

const (
	dashboardKey        = "dashboard"
	dashboardVersionKey = "dashboard:version"
)

// jsonStore 由 *cache.RedisCache 实现
type jsonStore interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// DashboardCache Redis 看板缓存，读写失败只记日志，退化为直接查库
// 指标存放在 dashboard:<代次> 下，失效只推进代次，旧代次的 key 随 TTL 过期
type DashboardCache struct {
	store jsonStore
	ttl   time.Duration
}

func NewDashboardCache(store jsonStore, ttl time.Duration) *DashboardCache {
	return &DashboardCache{store: store, ttl: ttl}
}

func entryKey(version int64) string {
	return dashboardKey + ":" + strconv.FormatInt(version, 10)
}

// Get 读取失败时返回 version -1，后续 Set 不会写入
func (c *DashboardCache) Get(ctx context.Context) (*domain.DashboardMetrics, int64, bool) {
	var version int64
	if _, err := c.store.GetJSON(ctx, dashboardVersionKey, &version); err != nil {
		logger.Warn(ctx, "Dashboard cache version read failed", "error", err)
		return nil, -1, false
	}

	var m domain.DashboardMetrics
	ok, err := c.store.GetJSON(ctx, entryKey(version), &m)
	if err != nil {
		logger.Warn(ctx, "Dashboard cache read failed", "error", err)
		return nil, version, false
	}
	if !ok {
		return nil, version, false
	}
	return &m, version, true
}

func (c *DashboardCache) Set(ctx context.Context, version int64, m *domain.DashboardMetrics) {
	if version < 0 {
		return
	}
	if err := c.store.SetJSON(ctx, entryKey(version), m, c.ttl); err != nil {
		logger.Warn(ctx, "Dashboard cache write failed", "error", err)
	}
}

func (c *DashboardCache) Invalidate(ctx context.Context) {
	if _, err := c.store.Incr(ctx, dashboardVersionKey); err != nil {
		logger.Warn(ctx, "Dashboard cache invalidation failed", "error", err)
	}
}

// CatalogChanged 商品变动后看板失效
func (c *DashboardCache) CatalogChanged(ctx context.Context) { c.Invalidate(ctx) }

// NopDashboardCache 不缓存
type NopDashboardCache struct{}

func (NopDashboardCache) Get(context.Context) (*domain.DashboardMetrics, int64, bool) {
	return nil, 0, false
}
func (NopDashboardCache) Set(context.Context, int64, *domain.DashboardMetrics) {}
func (NopDashboardCache) Invalidate(context.Context)                           {}
func (NopDashboardCache) CatalogChanged(context.Context)                       {}
