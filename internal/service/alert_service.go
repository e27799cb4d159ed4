package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// AlertNotifier delivers alerts out of band. *worker.Dispatcher implements
// it on top of a Redis queue with per lot+severity dedup.
type AlertNotifier interface {
	NotifyStockAlerts(ctx context.Context, ownerID uuid.UUID, alerts []dto.StockAlert) (int, error)
}

type AlertService interface {
	// ScanLowStock lists every lot at or below its minimum level. It never
	// writes.
	ScanLowStock(ctx context.Context, ownerID uuid.UUID) ([]dto.StockAlert, error)
	// Notify hands the owner's full current alert set to the notifier, empty
	// sets included, so lots that recovered can alert again later. It is best
	// effort; a nil notifier turns it into a no-op.
	Notify(ctx context.Context, ownerID uuid.UUID, alerts []dto.StockAlert) error
}

type alertService struct {
	lots     repository.FeedLotRepository
	notifier AlertNotifier
}

func NewAlertService(lots repository.FeedLotRepository, notifier AlertNotifier) AlertService {
	return &alertService{lots: lots, notifier: notifier}
}

func (s *alertService) ScanLowStock(ctx context.Context, ownerID uuid.UUID) ([]dto.StockAlert, error) {
	lots, err := s.lots.ListLowStock(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list low stock lots: %w", err)
	}
	alerts := make([]dto.StockAlert, 0, len(lots))
	for i := range lots {
		l := &lots[i]
		if l.Quantity.GreaterThan(l.MinStockLevel) {
			continue
		}
		severity := dto.SeverityLowStock
		if l.Quantity.IsZero() {
			severity = dto.SeverityOutOfStock
		}
		alerts = append(alerts, dto.StockAlert{
			FeedLotID:     l.ID.String(),
			FeedName:      l.FeedName,
			FeedType:      string(l.FeedType),
			Unit:          string(l.Unit),
			Quantity:      l.Quantity,
			MinStockLevel: l.MinStockLevel,
			Severity:      severity,
		})
	}
	return alerts, nil
}

func (s *alertService) Notify(ctx context.Context, ownerID uuid.UUID, alerts []dto.StockAlert) error {
	if s.notifier == nil {
		return nil
	}
	sent, err := s.notifier.NotifyStockAlerts(ctx, ownerID, alerts)
	if err != nil {
		return err
	}
	if sent > 0 {
		log.Info().Str("owner_id", ownerID.String()).Int("alerts", sent).Msg("stock alerts queued")
	}
	return nil
}
