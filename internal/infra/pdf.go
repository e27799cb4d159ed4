package infra

// pdf.go: financial summary rendering using go-pdf/fpdf.
// One A4 page per report:
//   - farm header and reporting period
//   - category table (income, expense, entry count)
//   - totals with the net result
//
// Output is returned in memory; the HTTP layer streams it.

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
)

// FinancialReportPDF renders report as a PDF document. categories fixes the
// row order; categories missing from the report are printed as zero rows.
func FinancialReportPDF(report *dto.FinancialReport, categories []string, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Financial report", false)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Ciftlik360", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Financial report", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 6, fmt.Sprintf("%s to %s", report.StartDate, report.EndDate), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Category table ───────────────────────────────────────────────────────
	col1 := contentW * 0.40
	col2 := contentW * 0.22
	col3 := contentW * 0.22
	col4 := contentW * 0.16

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(col1, 7, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 7, "Income", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col3, 7, "Expense", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col4, 7, "Entries", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, name := range categories {
		t := report.Categories[name]
		pdf.CellFormat(col1, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, t.Income.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, t.Expense.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, fmt.Sprintf("%d", t.Count), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(col1+col2, 6, "Total income:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3+col4, 6, report.TotalIncome.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 6, "Total expense:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3+col4, 6, report.TotalExpense.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Line(15, pdf.GetY()+1, pageW-15, pdf.GetY()+1)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2, 7, "Net:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3+col4, 7, report.TotalProfit.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
