package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
)

type fakeSender struct {
	enabled bool
	err     error
	sent    []string
}

func (s *fakeSender) Enabled() bool { return s.enabled }

func (s *fakeSender) Send(to, subject, _ string) error {
	s.sent = append(s.sent, to+"|"+subject)
	return s.err
}

func alertPayload(t *testing.T, alerts ...dto.StockAlert) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(StockAlertPayload{OwnerID: uuid.NewString(), Alerts: alerts})
	require.NoError(t, err)
	return raw
}

var (
	lowHay = dto.StockAlert{FeedLotID: "a", FeedName: "Hay", FeedType: "roughage", Unit: "kg",
		Quantity: decimal.NewFromInt(4), MinStockLevel: decimal.NewFromInt(10), Severity: dto.SeverityLowStock}
	emptyMix = dto.StockAlert{FeedLotID: "b", FeedName: "Mix", FeedType: "concentrate", Unit: "kg",
		Quantity: decimal.Zero, MinStockLevel: decimal.NewFromInt(5), Severity: dto.SeverityOutOfStock}
)

func TestAlertWorker_SendsMail(t *testing.T) {
	sender := &fakeSender{enabled: true}
	w := NewAlertWorker(sender, "farm@example.com")

	require.NoError(t, w.Handle(context.Background(), alertPayload(t, lowHay, emptyMix)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "farm@example.com|Feed stock alert: 1 lot(s) out of stock", sender.sent[0])
}

func TestAlertWorker_SendFailureIsRetryable(t *testing.T) {
	sender := &fakeSender{enabled: true, err: infra.ErrCircuitOpen}
	w := NewAlertWorker(sender, "farm@example.com")

	err := w.Handle(context.Background(), alertPayload(t, lowHay))
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

func TestAlertWorker_DisabledOrMalformedIsDropped(t *testing.T) {
	sender := &fakeSender{enabled: false}
	w := NewAlertWorker(sender, "farm@example.com")
	assert.NoError(t, w.Handle(context.Background(), alertPayload(t, lowHay)))
	assert.NoError(t, w.Handle(context.Background(), json.RawMessage(`{"alerts":`)))
	assert.NoError(t, NewAlertWorker(nil, "").Handle(context.Background(), alertPayload(t, lowHay)))
	assert.Empty(t, sender.sent)
}

func TestRenderAlertMail(t *testing.T) {
	subject, body := renderAlertMail(StockAlertPayload{OwnerID: "o-1", Alerts: []dto.StockAlert{lowHay}})
	assert.Equal(t, "Feed stock alert: 1 lot(s) low", subject)
	assert.Contains(t, body, "[LOW_STOCK] Hay (roughage): 4 kg left, minimum 10")
}

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, func(attempt int) error {
		calls++
		if attempt == 0 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = withRetry(ctx, 3, func(int) error { calls++; return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDispatcher_NoRedisIsNoOp(t *testing.T) {
	var d *Dispatcher
	n, err := d.NotifyStockAlerts(context.Background(), uuid.New(), []dto.StockAlert{lowHay})
	assert.NoError(t, err)
	assert.Zero(t, n)
}
