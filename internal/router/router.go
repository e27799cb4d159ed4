package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/cache"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/config"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/handler"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/middleware"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/service"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/worker"
)

// Services is the wired service layer. cmd/server serves it over HTTP and
// cmd/farmctl drives it directly.
type Services struct {
	Inventory service.InventoryService
	Policy    service.PolicyService
	Deduction service.DeductionService
	Alerts    service.AlertService
	Ledger    service.LedgerService
	Reports   service.ReportService
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB/Redis. rdb may be nil, which
// disables the report cache and alert notifications.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	txRunner := repository.NewTxRunner(db)
	lotRepo := repository.NewFeedLotRepository(db)
	moveRepo := repository.NewStockMovementRepository(db)
	animalRepo := repository.NewAnimalRepository(db)
	settingRepo := repository.NewConsumptionSettingRepository(db)
	recordRepo := repository.NewConsumptionRecordRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	// ── Infrastructure ───────────────────────────────────────────────────────
	reports := cache.NewReportCache(rdb, cfg.ReportCacheTTL())
	var notifier service.AlertNotifier
	if rdb != nil {
		notifier = worker.NewDispatcher(rdb, cfg.AlertDedupWindow())
	}

	// ── Services ─────────────────────────────────────────────────────────────
	alertSvc := service.NewAlertService(lotRepo, notifier)
	return &Services{
		Inventory: service.NewInventoryService(txRunner, lotRepo, moveRepo, animalRepo, txRepo, alertSvc, reports),
		Policy:    service.NewPolicyService(settingRepo),
		Deduction: service.NewDeductionService(txRunner, settingRepo, recordRepo, lotRepo, moveRepo, animalRepo, alertSvc, loc),
		Alerts:    alertSvc,
		Ledger:    service.NewLedgerService(txRunner, txRepo, animalRepo, lotRepo, reports, loc),
		Reports:   service.NewReportService(txRepo, animalRepo, reports),
	}, nil
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer, svcs *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	feedLotsH := handler.NewFeedLotsHandler(svcs.Inventory)
	animalsH := handler.NewAnimalsHandler(svcs.Inventory, svcs.Ledger)
	consumptionH := handler.NewConsumptionHandler(svcs.Policy, svcs.Deduction)
	alertsH := handler.NewAlertsHandler(svcs.Alerts)
	transactionsH := handler.NewTransactionsHandler(svcs.Ledger)
	reportsH := handler.NewReportsHandler(svcs.Reports)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailer))

	// Protected routes; the limiter runs after auth so it can key by owner.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RateLimiter(600, time.Minute))
	{
		lots := v1.Group("/feed-lots")
		{
			lots.GET("", feedLotsH.List)
			lots.POST("", feedLotsH.Create)
			lots.GET("/:id", feedLotsH.Get)
			lots.PUT("/:id", feedLotsH.Update)
			lots.DELETE("/:id", feedLotsH.Delete)
			lots.POST("/:id/adjust", feedLotsH.Adjust)
			lots.POST("/:id/restock", feedLotsH.Restock)
			lots.GET("/:id/movements", feedLotsH.Movements)
		}

		animals := v1.Group("/animals")
		{
			animals.GET("", animalsH.List)
			animals.POST("", animalsH.Create)
			animals.GET("/:id", animalsH.Get)
			animals.PUT("/:id", animalsH.Update)
			animals.DELETE("/:id", animalsH.Delete)
			animals.PATCH("/:id/status", animalsH.SetStatus)
			animals.POST("/:id/sale", animalsH.Sell)
			animals.POST("/:id/death", animalsH.Death)
		}

		cons := v1.Group("/consumption")
		{
			cons.GET("/settings", consumptionH.ListSettings)
			cons.PUT("/settings", consumptionH.UpsertSetting)
			cons.DELETE("/settings/:species/:feed_type", consumptionH.DeleteSetting)
			cons.POST("/run", consumptionH.Run)
			cons.POST("/manual", consumptionH.Manual)
			cons.GET("/records", consumptionH.ListRecords)
			cons.POST("/records/:id/reverse", consumptionH.Reverse)
		}

		v1.GET("/alerts/low-stock", alertsH.LowStock)

		txs := v1.Group("/transactions")
		{
			txs.GET("", transactionsH.List)
			txs.POST("", transactionsH.Create)
			txs.GET("/export", transactionsH.Export)
			txs.POST("/:id/reverse", transactionsH.Reverse)
		}

		reps := v1.Group("/reports")
		{
			reps.GET("/financial", reportsH.Financial)
			reps.GET("/financial/pdf", reportsH.FinancialPDF)
			reps.GET("/animal-profit", reportsH.AnimalProfit)
		}
	}

	return r
}
