package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// stockWriter applies quantity changes to locked lots. Each change is paired
// with a StockMovement row written in the same transaction.
type stockWriter struct {
	lots  repository.FeedLotRepository
	moves repository.StockMovementRepository
}

// moveTx adds delta to lot.Quantity. A result below zero is an
// InsufficientStockError and nothing is written.
func (w stockWriter) moveTx(tx *gorm.DB, lot *model.FeedLot, delta decimal.Decimal, kind model.MovementKind, reason string, ref *uuid.UUID) (*model.StockMovement, error) {
	before := lot.Quantity
	after := before.Add(delta)
	if after.IsNegative() {
		return nil, &InsufficientStockError{FeedLotID: lot.ID, Available: before, Requested: delta.Neg()}
	}
	lot.Quantity = after
	if err := w.lots.UpdateTx(tx, lot); err != nil {
		return nil, err
	}
	m := &model.StockMovement{
		ID:             uuid.New(),
		OwnerID:        lot.OwnerID,
		FeedLotID:      lot.ID,
		Kind:           kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         reason,
		ReferenceID:    ref,
	}
	if err := w.moves.CreateTx(tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// newFeedPurchaseEntry builds the ledger line for buying quantity×unitPrice
// of a lot. Amount is rounded to cents.
func newFeedPurchaseEntry(lot *model.FeedLot, quantity, unitPrice decimal.Decimal, date time.Time, description string, automatic bool) *model.TransactionEntry {
	feedID := lot.ID
	q := quantity
	p := unitPrice
	return &model.TransactionEntry{
		ID:          uuid.New(),
		OwnerID:     lot.OwnerID,
		Type:        model.TxExpense,
		Category:    model.CatFeedPurchase,
		Amount:      money(quantity.Mul(unitPrice)),
		Date:        date,
		Description: description,
		FeedID:      &feedID,
		Quantity:    &q,
		UnitPrice:   &p,
		IsAutomatic: automatic,
	}
}
