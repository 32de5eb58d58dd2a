package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/posregister/internal/sale/domain"
)

type memStore struct {
	data map[string][]byte
	ttl  time.Duration
	err  error
}

func (m *memStore) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memStore) SetJSON(_ context.Context, key string, value interface{}, exp time.Duration) error {
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttl = exp
	return nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	if raw, ok := m.data[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func TestDashboardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &memStore{data: map[string][]byte{}}
	c := NewDashboardCache(store, time.Minute)

	_, version, ok := c.Get(ctx)
	require.False(t, ok)
	require.Zero(t, version)

	c.Set(ctx, version, &domain.DashboardMetrics{Invoices: 3, Revenue: decimal.RequireFromString("3000.50")})
	require.Equal(t, time.Minute, store.ttl)

	got, _, ok := c.Get(ctx)
	require.True(t, ok)
	require.EqualValues(t, 3, got.Invoices)
	require.True(t, got.Revenue.Equal(decimal.RequireFromString("3000.50")))

	c.CatalogChanged(ctx)
	_, version, ok = c.Get(ctx)
	require.False(t, ok)
	require.EqualValues(t, 1, version)
}

func TestDashboardCacheDropsWriteFromEarlierVersion(t *testing.T) {
	ctx := context.Background()
	c := NewDashboardCache(&memStore{data: map[string][]byte{}}, time.Minute)

	// 读者在提交前取得代次，提交随后推进代次
	_, before, ok := c.Get(ctx)
	require.False(t, ok)
	c.Invalidate(ctx)

	c.Set(ctx, before, &domain.DashboardMetrics{Invoices: 1})
	_, current, ok := c.Get(ctx)
	require.False(t, ok)
	require.Greater(t, current, before)

	c.Set(ctx, current, &domain.DashboardMetrics{Invoices: 2})
	got, _, ok := c.Get(ctx)
	require.True(t, ok)
	require.EqualValues(t, 2, got.Invoices)
}

func TestDashboardCacheDegradesOnError(t *testing.T) {
	ctx := context.Background()
	c := NewDashboardCache(&memStore{data: map[string][]byte{}, err: errors.New("redis down")}, time.Minute)

	_, version, ok := c.Get(ctx)
	require.False(t, ok)
	require.EqualValues(t, -1, version)
	c.Set(ctx, version, &domain.DashboardMetrics{Invoices: 1})
	_, _, ok = c.Get(ctx)
	require.False(t, ok)
	c.Invalidate(ctx)
}
