package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/config"
	"github.com/godilite/procurement-kpi/internal/export"
	"github.com/godilite/procurement-kpi/internal/loader"
	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/report"
	"github.com/godilite/procurement-kpi/internal/repository"
	"github.com/godilite/procurement-kpi/internal/repository/models"
	"github.com/godilite/procurement-kpi/internal/service"
	dbbuilder "github.com/godilite/procurement-kpi/pkg/database"
)

// App wires configuration, data sources and calculators together.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	dbPool   *sql.DB
	repo     *repository.RecordRepository
	service  *service.KPIService
	exporter *export.Exporter
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, exporter: export.NewExporter(logger)}

	var (
		tickets  service.TicketSource
		invoices service.InvoiceSource
	)
	switch cfg.Data.Source {
	case config.SourceSQLite:
		repo, err := a.repository(ctx)
		if err != nil {
			return nil, err
		}
		tickets, invoices = repo, repo
	default:
		csv := loader.NewCSVSource(cfg.Data.TicketsPath, cfg.Data.InvoicesPath, logger)
		tickets, invoices = csv, csv
	}

	ranker, err := cfg.Ranker()
	if err != nil {
		return nil, fmt.Errorf("benchmark ranker: %w", err)
	}
	workload := service.NewWorkloadAnalyzer(logger,
		service.WithComplexityWeights(cfg.Weights()),
		service.WithBalanceThresholds(cfg.Thresholds()),
	)
	invoice := service.NewInvoiceKPICalculator(logger, service.WithRanker(ranker))
	a.service = service.NewKPIService(tickets, invoices, workload, invoice, logger)

	logger.Info("application initialized", zap.String("source", cfg.Data.Source))
	return a, nil
}

// repository opens the SQLite database on first use.
func (a *App) repository(ctx context.Context) (*repository.RecordRepository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	db, err := dbbuilder.Open(ctx,
		dbbuilder.WithDriver(a.cfg.Database.Driver),
		dbbuilder.WithDataSource(a.cfg.Database.Path),
		dbbuilder.WithMaxOpenConns(1),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	repo := repository.NewRecordRepository(db, a.cfg.Database.Driver+":"+a.cfg.Database.Path)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	a.logger.Info("database pool initialized", zap.String("path", a.cfg.Database.Path))
	a.dbPool, a.repo = db, repo
	return repo, nil
}

// Close releases the database pool, if one was opened.
func (a *App) Close() error {
	if a.dbPool == nil {
		return nil
	}
	err := a.dbPool.Close()
	a.dbPool, a.repo = nil, nil
	if err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}
	return err
}

// DemoPeriod is the configured demo week.
func (a *App) DemoPeriod() model.Period {
	return model.MustParsePeriod(a.cfg.Demo.Period)
}

// RunWorkload prints the workload report and the balance table for p.
func (a *App) RunWorkload(ctx context.Context, w io.Writer, p model.Period) error {
	summary, err := a.service.Workload(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, report.WorkloadReport(summary.KPIs))
	fmt.Fprint(w, report.Balance(summary.Balance))
	return nil
}

// RunInvoices prints the invoice report and training recommendations for p.
func (a *App) RunInvoices(ctx context.Context, w io.Writer, p model.Period, topN int) error {
	summary, err := a.service.Invoices(ctx, p, a.cfg.Invoices.TrainingPercentile)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, report.InvoiceReport(summary.KPIs, topN, a.service.Ranker()))
	fmt.Fprint(w, report.Training(summary.Training))
	return nil
}

// RunBenchmark prints one staff member's comparison with the team.
func (a *App) RunBenchmark(ctx context.Context, w io.Writer, p model.Period, staffID string, detailed bool) error {
	res, err := a.service.Benchmark(ctx, p, staffID)
	if err != nil {
		return err
	}
	fmt.Fprint(w, report.BenchmarkSummary(res))
	if detailed {
		fmt.Fprintln(w)
		fmt.Fprint(w, report.BenchmarkTable(res).String())
	}
	return nil
}

// Import copies the configured CSV files into the SQLite database.
func (a *App) Import(ctx context.Context) (models.ImportResult, error) {
	tickets, err := loader.LoadTickets(a.cfg.Data.TicketsPath)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("%w: tickets: %w", service.ErrLoadFailure, err)
	}
	invoices, err := loader.LoadInvoices(a.cfg.Data.InvoicesPath)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("%w: invoices: %w", service.ErrLoadFailure, err)
	}

	repo, err := a.repository(ctx)
	if err != nil {
		return models.ImportResult{}, err
	}

	var res models.ImportResult
	if res.Tickets, err = repo.SaveTickets(ctx, tickets); err != nil {
		return models.ImportResult{}, fmt.Errorf("import tickets: %w", err)
	}
	if res.Invoices, err = repo.SaveInvoices(ctx, invoices); err != nil {
		return models.ImportResult{}, fmt.Errorf("import invoices: %w", err)
	}
	a.logger.Info("import finished", zap.Int("tickets", res.Tickets), zap.Int("invoices", res.Invoices))
	return res, nil
}

// WeeklyTicketCounts lists stored tickets per week; it needs an imported
// database.
func (a *App) WeeklyTicketCounts(ctx context.Context) (map[model.Period]int, error) {
	repo, err := a.repository(ctx)
	if err != nil {
		return nil, err
	}
	return repo.WeeklyTicketCounts(ctx)
}

// Export writes every report table of p to an xlsx workbook at path.
func (a *App) Export(ctx context.Context, p model.Period, path string) error {
	workload, err := a.service.Workload(ctx, p)
	if err != nil {
		return err
	}
	invoices, err := a.service.Invoices(ctx, p, a.cfg.Invoices.TrainingPercentile)
	if err != nil {
		return err
	}
	return a.exporter.Write(path, export.PeriodSheets(workload, invoices, a.cfg.Invoices.TopN, a.service.Ranker()))
}
