package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

const (
	reportKeyPrefix  = "report:financial"
	scanBatchSize    = 100
	defaultReportTTL = 5 * time.Minute
	reportDateLayout = "2006-01-02"
)

// ReportCache stores computed financial reports per (owner, start, end).
// Any ledger write for an owner must call InvalidateOwner.
type ReportCache interface {
	GetFinancial(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*dto.FinancialReport, bool, error)
	SetFinancial(ctx context.Context, ownerID uuid.UUID, start, end time.Time, report *dto.FinancialReport) error
	InvalidateOwner(ctx context.Context, ownerID uuid.UUID) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a no-op cache when client is nil.
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if client == nil {
		return noopReportCache{}
	}
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func NewNoopReportCache() ReportCache { return noopReportCache{} }

func ownerPrefix(ownerID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", reportKeyPrefix, ownerID)
}

func financialKey(ownerID uuid.UUID, start, end time.Time) string {
	return ownerPrefix(ownerID) + start.Format(reportDateLayout) + ":" + end.Format(reportDateLayout)
}

func (c *redisReportCache) GetFinancial(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*dto.FinancialReport, bool, error) {
	payload, err := c.client.Get(ctx, financialKey(ownerID, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	var report dto.FinancialReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode financial report cache: %w", err)
	}
	return &report, true, nil
}

func (c *redisReportCache) SetFinancial(ctx context.Context, ownerID uuid.UUID, start, end time.Time, report *dto.FinancialReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode financial report cache: %w", err)
	}
	if err := c.client.Set(ctx, financialKey(ownerID, start, end), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateOwner(ctx context.Context, ownerID uuid.UUID) error {
	var cursor uint64
	pattern := ownerPrefix(ownerID) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (noopReportCache) GetFinancial(context.Context, uuid.UUID, time.Time, time.Time) (*dto.FinancialReport, bool, error) {
	return nil, false, nil
}

func (noopReportCache) SetFinancial(context.Context, uuid.UUID, time.Time, time.Time, *dto.FinancialReport) error {
	return nil
}

func (noopReportCache) InvalidateOwner(context.Context, uuid.UUID) error { return nil }
