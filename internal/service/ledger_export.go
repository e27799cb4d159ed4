package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

const (
	exportSheet    = "Ledger"
	exportPageSize = 1000
)

var exportHeader = []interface{}{
	"Date", "Type", "Category", "Amount", "Signed", "Description",
	"Animal ID", "Feed Lot ID", "Quantity", "Unit Price", "Automatic", "Reversal Of", "ID",
}

// ExportXLSX writes every entry matching filter to a single-sheet workbook,
// in the same order Query returns them. Page and Limit on filter are ignored.
func (s *ledgerService) ExportXLSX(ctx context.Context, ownerID uuid.UUID, filter dto.TransactionFilter) ([]byte, error) {
	f, err := buildTxFilter(filter)
	if err != nil {
		return nil, err
	}

	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("export ledger: %w", err)
	}
	if err := book.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("export ledger header: %w", err)
	}
	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = book.SetRowStyle(exportSheet, 1, 1, bold)
	}

	row := 2
	f.Limit = exportPageSize
	for f.Page = 1; ; f.Page++ {
		entries, total, err := s.repo.List(ctx, ownerID, f)
		if err != nil {
			return nil, fmt.Errorf("export ledger page %d: %w", f.Page, err)
		}
		for i := range entries {
			e := &entries[i]
			values := []interface{}{
				fmtDate(e.Date),
				string(e.Type),
				string(e.Category),
				e.Amount.InexactFloat64(),
				e.Signed().InexactFloat64(),
				e.Description,
				deref(optionalID(e.AnimalID)),
				deref(optionalID(e.FeedID)),
				"",
				"",
				e.IsAutomatic,
				deref(optionalID(e.ReversalOf)),
				e.ID.String(),
			}
			if e.Quantity != nil {
				values[8] = e.Quantity.InexactFloat64()
			}
			if e.UnitPrice != nil {
				values[9] = e.UnitPrice.InexactFloat64()
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := book.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("export ledger row %d: %w", row, err)
			}
			row++
		}
		if len(entries) < exportPageSize || int64(row-2) >= total {
			break
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
