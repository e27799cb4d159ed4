package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewDispatcher(rdb, time.Hour), mr, rdb
}

func TestDispatcher_DedupsWithinWindow(t *testing.T) {
	d, _, rdb := newTestDispatcher(t)
	ctx := context.Background()
	owner := uuid.New()

	n, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, rdb.LLen(ctx, QueueStockAlert).Val())
}

func TestDispatcher_FailedEnqueueReleasesDedupKeys(t *testing.T) {
	d, mr, rdb := newTestDispatcher(t)
	ctx := context.Background()
	owner := uuid.New()

	// a non-list value makes LPUSH fail with WRONGTYPE
	require.NoError(t, mr.Set(QueueStockAlert, "broken"))
	_, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.Error(t, err)
	assert.False(t, mr.Exists(alertKey(owner, lowHay.FeedLotID, lowHay.Severity)))

	mr.Del(QueueStockAlert)
	n, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, rdb.LLen(ctx, QueueStockAlert).Val())
}

func TestDispatcher_RecoveredLotAlertsAgain(t *testing.T) {
	d, mr, rdb := newTestDispatcher(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	_, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	_, err = d.NotifyStockAlerts(ctx, other, []dto.StockAlert{lowHay})
	require.NoError(t, err)

	// restocked above the minimum: the owner's scan comes back empty
	n, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists(alertKey(owner, lowHay.FeedLotID, lowHay.Severity)))
	assert.True(t, mr.Exists(alertKey(other, lowHay.FeedLotID, lowHay.Severity)))

	n, err = d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 3, rdb.LLen(ctx, QueueStockAlert).Val())
}

func TestDispatcher_SeverityChangeReplacesKey(t *testing.T) {
	d, mr, _ := newTestDispatcher(t)
	ctx := context.Background()
	owner := uuid.New()
	empty := lowHay
	empty.Severity = dto.SeverityOutOfStock
	empty.Quantity = empty.Quantity.Sub(empty.Quantity)

	_, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{lowHay})
	require.NoError(t, err)
	n, err := d.NotifyStockAlerts(ctx, owner, []dto.StockAlert{empty})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(alertKey(owner, lowHay.FeedLotID, dto.SeverityLowStock)))
	assert.True(t, mr.Exists(alertKey(owner, lowHay.FeedLotID, dto.SeverityOutOfStock)))
}
