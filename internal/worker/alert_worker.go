package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
)

// StockAlertPayload is the job body on QueueStockAlert.
type StockAlertPayload struct {
	OwnerID string           `json:"owner_id"`
	Alerts  []dto.StockAlert `json:"alerts"`
}

// AlertSender is satisfied by *infra.Mailer.
type AlertSender interface {
	Enabled() bool
	Send(to, subject, body string) error
}

// AlertWorker turns stock alert jobs into e-mails.
type AlertWorker struct {
	sender AlertSender
	to     string
}

func NewAlertWorker(sender AlertSender, to string) *AlertWorker {
	return &AlertWorker{sender: sender, to: to}
}

// Handle implements Handler. With no mailer configured the alerts are only
// logged.
func (w *AlertWorker) Handle(_ context.Context, raw json.RawMessage) error {
	var payload StockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A malformed payload will never succeed; drop it.
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return nil
	}
	if len(payload.Alerts) == 0 {
		return nil
	}

	subject, body := renderAlertMail(payload)
	if w.sender == nil || !w.sender.Enabled() || w.to == "" {
		log.Warn().Str("owner_id", payload.OwnerID).Int("alerts", len(payload.Alerts)).
			Msg("alert_worker: mailer disabled, alert logged only")
		return nil
	}
	if err := w.sender.Send(w.to, subject, body); err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Str("owner_id", payload.OwnerID).Msg("alert_worker: smtp breaker open")
		}
		return fmt.Errorf("send stock alert: %w", err)
	}
	log.Info().Str("owner_id", payload.OwnerID).Int("alerts", len(payload.Alerts)).Msg("alert_worker: notification sent")
	return nil
}

func renderAlertMail(p StockAlertPayload) (string, string) {
	out := 0
	for _, a := range p.Alerts {
		if a.Severity == dto.SeverityOutOfStock {
			out++
		}
	}
	subject := fmt.Sprintf("Feed stock alert: %d lot(s) low", len(p.Alerts))
	if out > 0 {
		subject = fmt.Sprintf("Feed stock alert: %d lot(s) out of stock", out)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Owner %s\n\n", p.OwnerID)
	for _, a := range p.Alerts {
		fmt.Fprintf(&b, "[%s] %s (%s): %s %s left, minimum %s\n",
			a.Severity, a.FeedName, a.FeedType, a.Quantity.String(), a.Unit, a.MinStockLevel.String())
	}
	return subject, b.String()
}
