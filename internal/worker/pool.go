package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

const (
	QueueStockAlert = "jobs:stock_alert"

	JobStockAlert = "stock_alert"

	maxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload. A returned error is retried with
// backoff and, once attempts run out, the job lands in the DLQ.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb         *redis.Client
	dedupWindow time.Duration
}

func NewDispatcher(rdb *redis.Client, dedupWindow time.Duration) *Dispatcher {
	if dedupWindow <= 0 {
		dedupWindow = 24 * time.Hour
	}
	return &Dispatcher{rdb: rdb, dedupWindow: dedupWindow}
}

func alertKey(ownerID uuid.UUID, lotID, severity string) string {
	return fmt.Sprintf("alert:sent:%s:%s:%s", ownerID, lotID, severity)
}

// NotifyStockAlerts takes the owner's complete current alert set and enqueues
// one job for the alerts not already sent for the same lot and severity
// within the dedup window. A dedup key is only kept once its job is queued.
// Keys of lot/severity pairs missing from the set are cleared, so a lot that
// was restocked notifies again the next time it runs low.
// Returns the number of alerts enqueued.
func (d *Dispatcher) NotifyStockAlerts(ctx context.Context, ownerID uuid.UUID, alerts []dto.StockAlert) (int, error) {
	if d == nil || d.rdb == nil {
		return 0, nil
	}
	if err := d.clearRecovered(ctx, ownerID, alerts); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("alert dedup: clearing recovered lots failed")
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	fresh := make([]dto.StockAlert, 0, len(alerts))
	claimed := make([]string, 0, len(alerts))
	for _, a := range alerts {
		key := alertKey(ownerID, a.FeedLotID, a.Severity)
		ok, err := d.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), d.dedupWindow).Result()
		if err != nil {
			d.release(ctx, claimed)
			return 0, fmt.Errorf("alert dedup: %w", err)
		}
		if ok {
			fresh = append(fresh, a)
			claimed = append(claimed, key)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	payload := StockAlertPayload{OwnerID: ownerID.String(), Alerts: fresh}
	if err := d.enqueue(ctx, QueueStockAlert, JobStockAlert, payload); err != nil {
		d.release(ctx, claimed)
		return 0, fmt.Errorf("enqueue stock alerts: %w", err)
	}
	return len(fresh), nil
}

// release drops dedup keys claimed for alerts that were never queued.
func (d *Dispatcher) release(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := d.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("alert dedup: release failed")
	}
}

func (d *Dispatcher) clearRecovered(ctx context.Context, ownerID uuid.UUID, alerts []dto.StockAlert) error {
	current := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		current[alertKey(ownerID, a.FeedLotID, a.Severity)] = true
	}
	var stale []string
	iter := d.rdb.Scan(ctx, 0, fmt.Sprintf("alert:sent:%s:*", ownerID), 100).Iterator()
	for iter.Next(ctx) {
		if !current[iter.Val()] {
			stale = append(stale, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	return d.rdb.Del(ctx, stale...).Err()
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]Handler)}
}

// Register binds a job type on a queue to its handler.
func (p *Pool) Register(queue, jobType string, h Handler) {
	p.handlers[jobType] = h
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Start launches numWorkers goroutines. Each one blocks on BRPOP and exits
// when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 {
		log.Warn().Msg("worker pool: no handlers registered")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}
		// Blocking pop: waits up to 5s then loops to check ctx.
		result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: brpop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.process(ctx, result[0], result[1])
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}

	attempts := 0
	err := withRetry(ctx, maxJobAttempts, func(attempt int) error {
		attempts = attempt + 1
		return h(ctx, job.Payload)
	})
	if err != nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Info().Str("type", job.Type).Str("queue", queue).Int("attempts", attempts).Msg("job processed")
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, 1s, 2s, ...). Returns the last error if every attempt fails.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
