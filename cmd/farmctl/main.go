// farmctl drives the deduction engine and reports from the command line.
// It talks to the database directly and shares the server's config.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/config"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/infra"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/router"
)

type app struct {
	cfg  *config.Config
	svcs *router.Services
}

func newOwnerFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "owner",
		Usage:    "Owner id (uuid)",
		Required: required,
		EnvVars:  []string{"FARM_OWNER_ID"},
	}
}

func (a *app) init(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if url := c.String("db-url"); url != "" {
		cfg.DatabaseURL = url
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	// Redis only backs the report cache and alert queue here; run without it.
	var rdb *redis.Client
	if !c.Bool("no-redis") {
		if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable; continuing without cache and notifications")
			rdb = nil
		}
	}
	svcs, err := router.NewServices(cfg, db, rdb)
	if err != nil {
		return err
	}
	a.cfg, a.svcs = cfg, svcs
	return nil
}

func parseOwner(c *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String("owner"))
	if err != nil {
		return uuid.Nil, cli.Exit("--owner must be a uuid", 2)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) deduct(c *cli.Context) error {
	var day *time.Time
	if s := c.String("date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return cli.Exit("--date must be YYYY-MM-DD", 2)
		}
		day = &t
	}
	if c.String("owner") == "" {
		results, err := a.svcs.Deduction.RunForAllOwners(c.Context, day)
		if perr := printJSON(results); perr != nil {
			return perr
		}
		return err
	}
	owner, err := parseOwner(c)
	if err != nil {
		return err
	}
	result, err := a.svcs.Deduction.RunDaily(c.Context, owner, day)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) lowStock(c *cli.Context) error {
	owner, err := parseOwner(c)
	if err != nil {
		return err
	}
	alerts, err := a.svcs.Alerts.ScanLowStock(c.Context, owner)
	if err != nil {
		return err
	}
	return printJSON(alerts)
}

func (a *app) report(c *cli.Context) error {
	owner, err := parseOwner(c)
	if err != nil {
		return err
	}
	req := dto.ReportRangeRequest{From: c.String("from"), To: c.String("to")}
	if out := c.String("pdf"); out != "" {
		data, err := a.svcs.Reports.RenderFinancialReportPDF(c.Context, owner, req)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		log.Info().Str("file", out).Int("bytes", len(data)).Msg("report written")
		return nil
	}
	report, err := a.svcs.Reports.GetFinancialReport(c.Context, owner, req)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	a := &app{}
	cliApp := &cli.App{
		Name:  "farmctl",
		Usage: "Operate the feed & finance ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Database connection string (overrides DATABASE_URL)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.BoolFlag{
				Name:  "no-redis",
				Usage: "Skip Redis (no report cache, no alert notifications)",
			},
		},
		Before: a.init,
		Commands: []*cli.Command{
			{
				Name:  "deduct",
				Usage: "Run the daily feed deduction for one owner, or every owner with auto-deduct enabled",
				Flags: []cli.Flag{
					newOwnerFlag(false),
					&cli.StringFlag{Name: "date", Usage: "Day to process (YYYY-MM-DD), default today in FARM_TIMEZONE"},
				},
				Action: a.deduct,
			},
			{
				Name:   "low-stock",
				Usage:  "List feed lots at or below their minimum stock level",
				Flags:  []cli.Flag{newOwnerFlag(true)},
				Action: a.lowStock,
			},
			{
				Name:  "report",
				Usage: "Print the financial report for a period, or write it as PDF",
				Flags: []cli.Flag{
					newOwnerFlag(true),
					&cli.StringFlag{Name: "from", Usage: "Start date (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "to", Usage: "End date (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "pdf", Usage: "Write a PDF to this path instead of printing JSON"},
				},
				Action: a.report,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("farmctl failed")
	}
}
