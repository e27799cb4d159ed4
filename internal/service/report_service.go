package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/cache"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// ReportService aggregates the ledger. It never writes.
type ReportService interface {
	GetFinancialReport(ctx context.Context, ownerID uuid.UUID, req dto.ReportRangeRequest) (*dto.FinancialReport, error)
	GetAnimalProfitReport(ctx context.Context, ownerID uuid.UUID) (*dto.AnimalProfitReport, error)
	RenderFinancialReportPDF(ctx context.Context, ownerID uuid.UUID, req dto.ReportRangeRequest) ([]byte, error)
}

type reportService struct {
	ledger  repository.TransactionRepository
	animals repository.AnimalRepository
	cache   cache.ReportCache
	now     func() time.Time
}

func NewReportService(ledger repository.TransactionRepository, animals repository.AnimalRepository, c cache.ReportCache) ReportService {
	if c == nil {
		c = cache.NewNoopReportCache()
	}
	return &reportService{ledger: ledger, animals: animals, cache: c, now: time.Now}
}

func parseRange(req dto.ReportRangeRequest) (time.Time, time.Time, error) {
	errs := fieldErrors{}
	start, err := parseDate("from", req.From)
	if err != nil {
		errs.add("from", "must be a date in YYYY-MM-DD format")
	}
	end, err := parseDate("to", req.To)
	if err != nil {
		errs.add("to", "must be a date in YYYY-MM-DD format")
	}
	if len(errs) == 0 && end.Before(start) {
		errs.add("to", "must not be before from")
	}
	return start, end, errs.err()
}

// GetFinancialReport sums the ledger over [from, to], both inclusive. Every
// category appears in the result, zero when unused. Reversing entries are
// counted under their own type, so a reversed expense nets out in TotalProfit.
func (s *reportService) GetFinancialReport(ctx context.Context, ownerID uuid.UUID, req dto.ReportRangeRequest) (*dto.FinancialReport, error) {
	start, end, err := parseRange(req)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.cache.GetFinancial(ctx, ownerID, start, end); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("report cache read failed")
	} else if ok {
		return cached, nil
	}

	entries, err := s.ledger.ListRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load ledger range: %w", err)
	}
	report := summarize(entries, start, end)

	if err := s.cache.SetFinancial(ctx, ownerID, start, end, report); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("report cache write failed")
	}
	return report, nil
}

func summarize(entries []model.TransactionEntry, start, end time.Time) *dto.FinancialReport {
	cats := make(map[string]dto.CategoryTotals, len(model.AllCategories))
	for _, c := range model.AllCategories {
		cats[string(c)] = dto.CategoryTotals{Income: decimal.Zero, Expense: decimal.Zero}
	}
	income, expense := decimal.Zero, decimal.Zero
	for i := range entries {
		e := &entries[i]
		t := cats[string(e.Category)]
		if e.Type == model.TxIncome {
			t.Income = t.Income.Add(e.Amount)
			income = income.Add(e.Amount)
		} else {
			t.Expense = t.Expense.Add(e.Amount)
			expense = expense.Add(e.Amount)
		}
		t.Count++
		cats[string(e.Category)] = t
	}
	return &dto.FinancialReport{
		StartDate:    fmtDate(start),
		EndDate:      fmtDate(end),
		TotalIncome:  income,
		TotalExpense: expense,
		TotalProfit:  income.Sub(expense),
		Categories:   cats,
	}
}

// GetAnimalProfitReport pairs every sold animal with its latest unreversed
// sale entry. Sold animals with no such entry are left out and counted in
// Excluded.
func (s *reportService) GetAnimalProfitReport(ctx context.Context, ownerID uuid.UUID) (*dto.AnimalProfitReport, error) {
	var (
		sold  []model.Animal
		sales []model.TransactionEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sold, err = s.animals.List(gctx, ownerID, repository.AnimalFilter{Status: model.AnimalSold})
		if err != nil {
			return fmt.Errorf("list sold animals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sales, err = s.ledger.ListAnimalSales(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("list animal sales: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reversed := make(map[uuid.UUID]bool)
	for i := range sales {
		if sales[i].ReversalOf != nil {
			reversed[*sales[i].ReversalOf] = true
		}
	}
	// sales are date ASC, so the last write per animal is the latest sale
	saleByAnimal := make(map[uuid.UUID]*model.TransactionEntry)
	for i := range sales {
		e := &sales[i]
		if e.Type != model.TxIncome || e.ReversalOf != nil || reversed[e.ID] {
			continue
		}
		saleByAnimal[*e.AnimalID] = e
	}

	report := &dto.AnimalProfitReport{Items: []dto.AnimalProfitLine{}, TotalProfitLoss: decimal.Zero}
	for i := range sold {
		a := &sold[i]
		sale, ok := saleByAnimal[a.ID]
		if !ok {
			report.Excluded++
			log.Warn().Str("owner_id", ownerID.String()).Str("animal_id", a.ID.String()).
				Str("tag_number", a.TagNumber).Msg("sold animal has no sale entry; excluded from profit report")
			continue
		}
		pl := sale.Amount.Sub(a.PurchasePrice)
		report.Items = append(report.Items, dto.AnimalProfitLine{
			Animal:        animalToResponse(a),
			PurchasePrice: a.PurchasePrice,
			SalePrice:     sale.Amount,
			ProfitLoss:    pl,
			SaleDate:      fmtDate(sale.Date),
		})
		report.TotalProfitLoss = report.TotalProfitLoss.Add(pl)
	}
	return report, nil
}

func (s *reportService) RenderFinancialReportPDF(ctx context.Context, ownerID uuid.UUID, req dto.ReportRangeRequest) ([]byte, error) {
	report, err := s.GetFinancialReport(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		names = append(names, string(c))
	}
	return infra.FinancialReportPDF(report, names, s.now())
}
