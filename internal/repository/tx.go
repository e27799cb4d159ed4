package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner opens a unit of work. Repository methods with a Tx suffix must be
// called with the handle passed to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct{ db *gorm.DB }

func NewTxRunner(db *gorm.DB) TxRunner { return &gormTxRunner{db: db} }

func (r *gormTxRunner) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// PageSize bounds the page length of one list endpoint.
type PageSize struct{ Default, Max int }

var (
	LedgerPageSize   = PageSize{Default: 50, Max: 1000}
	RecordPageSize   = PageSize{Default: 50, Max: 500}
	MovementPageSize = PageSize{Default: 100, Max: 500}
)

// Normalize moves page to at least 1, uses the default for an unset limit and
// caps a larger one at Max. Services echo the result back to callers.
func (p PageSize) Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = p.Default
	case limit > p.Max:
		limit = p.Max
	}
	return page, limit
}

// paginate normalizes page/limit the same way for every list endpoint.
func paginate(page, limit int, size PageSize) (offset, n int) {
	page, limit = size.Normalize(page, limit)
	return (page - 1) * limit, limit
}
