package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/app"
	"github.com/godilite/procurement-kpi/internal/config"
	"github.com/godilite/procurement-kpi/internal/model"
)

// reportedError has already been explained to the user on stdout.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// runtime is what the Before hook builds for the command actions. A setup
// failure is kept in setupErr and returned by every action, so the demo
// can report it like any other demo failure.
type runtime struct {
	out      io.Writer
	cfg      *config.Config
	logger   *zap.Logger
	app      *app.App
	setupErr error
}

// Run runs the CLI application. With no subcommand it runs the demo.
func Run(ctx context.Context, args []string) error {
	err := newCommand(os.Stdout).Run(ctx, args)
	if err != nil {
		if !errors.As(err, &reportedError{}) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return err
	}
	return nil
}

func newCommand(out io.Writer) *cli.Command {
	rt := &runtime{out: out}
	var configPath, logLevel string

	return &cli.Command{
		Name:    "kpi",
		Usage:   "Procurement KPI reports for tickets and invoices",
		Version: "0.1.0",
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "YAML config file (default " + config.DefaultPath + " when present)",
				Sources:     cli.EnvVars("KPI_CONFIG"),
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error); overrides LOG_LEVEL",
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			rt.setupErr = rt.setup(ctx, configPath, logLevel)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return rt.teardown()
		},
		Action: rt.demo,
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Run the workload, invoice and benchmarking walkthrough",
				Action: rt.demo,
			},
			{
				Name:   "workload",
				Usage:  "Print workload KPIs and the balance table for a week",
				Flags:  []cli.Flag{periodFlag()},
				Action: rt.workload,
			},
			{
				Name:  "invoices",
				Usage: "Print invoice KPIs and training recommendations for a week",
				Flags: []cli.Flag{
					periodFlag(),
					&cli.IntFlag{Name: "top", Usage: "staff rows to show, 0 for all", Value: -1},
				},
				Action: rt.invoices,
			},
			{
				Name:  "benchmark",
				Usage: "Compare one staff member with the team",
				Flags: []cli.Flag{
					periodFlag(),
					&cli.StringFlag{Name: "staff", Usage: "staff ID (default demo.staff_id)"},
					&cli.BoolFlag{Name: "detailed", Usage: "also list the delta of every metric"},
				},
				Action: rt.benchmark,
			},
			{
				Name:   "import",
				Usage:  "Copy the configured CSV files into the SQLite database",
				Action: rt.importCSV,
			},
			{
				Name:   "weeks",
				Usage:  "List imported tickets per ISO week",
				Action: rt.weeks,
			},
			{
				Name:  "export",
				Usage: "Write every report table of a week to an xlsx workbook",
				Flags: []cli.Flag{
					periodFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "workbook path (default kpi_<period>.xlsx)"},
				},
				Action: rt.export,
			},
		},
	}
}

func periodFlag() cli.Flag {
	return &cli.StringFlag{Name: "period", Aliases: []string{"p"}, Usage: "ISO week such as 2024-W50 (default demo.period)"}
}

func (rt *runtime) setup(ctx context.Context, configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	rt.cfg, rt.logger = cfg, logger

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return err
	}
	rt.app = a
	return nil
}

func (rt *runtime) log() *zap.Logger {
	if rt.logger == nil {
		return zap.NewNop()
	}
	return rt.logger
}

func (rt *runtime) teardown() error {
	defer func() { _ = rt.log().Sync() }()
	if rt.app == nil {
		return nil
	}
	return rt.app.Close()
}

func (rt *runtime) period(c *cli.Command) (model.Period, error) {
	if rt.setupErr != nil {
		return model.Period{}, rt.setupErr
	}
	if s := c.String("period"); s != "" {
		return model.ParsePeriod(s)
	}
	return rt.app.DemoPeriod(), nil
}

func (rt *runtime) demo(ctx context.Context, c *cli.Command) error {
	err := rt.setupErr
	if err == nil {
		err = rt.app.RunDemo(ctx, rt.out)
	}
	if err != nil {
		rt.log().Error("demo failed", zap.Error(err))
		fmt.Fprintf(rt.out, "\n❌ Error during demo: %v\n", err)
		fmt.Fprintln(rt.out, "\nTroubleshooting:")
		fmt.Fprintln(rt.out, "  - Ensure you're running from the project root directory")
		fmt.Fprintln(rt.out, "  - Verify sample data exists in data/sample/")
		fmt.Fprintln(rt.out, "  - Check that all dependencies are available (go mod download)")
		return reportedError{err: err}
	}
	return nil
}

func (rt *runtime) workload(ctx context.Context, c *cli.Command) error {
	p, err := rt.period(c)
	if err != nil {
		return err
	}
	return rt.app.RunWorkload(ctx, rt.out, p)
}

func (rt *runtime) invoices(ctx context.Context, c *cli.Command) error {
	p, err := rt.period(c)
	if err != nil {
		return err
	}
	topN := c.Int("top")
	if topN < 0 {
		topN = rt.cfg.Invoices.TopN
	}
	return rt.app.RunInvoices(ctx, rt.out, p, topN)
}

func (rt *runtime) benchmark(ctx context.Context, c *cli.Command) error {
	p, err := rt.period(c)
	if err != nil {
		return err
	}
	staffID := c.String("staff")
	if staffID == "" {
		staffID = rt.cfg.Demo.StaffID
	}
	return rt.app.RunBenchmark(ctx, rt.out, p, staffID, c.Bool("detailed"))
}

func (rt *runtime) importCSV(ctx context.Context, c *cli.Command) error {
	if rt.setupErr != nil {
		return rt.setupErr
	}
	res, err := rt.app.Import(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "✓ Imported %d tickets and %d invoices into %s\n", res.Tickets, res.Invoices, rt.cfg.Database.Path)
	return nil
}

func (rt *runtime) weeks(ctx context.Context, c *cli.Command) error {
	if rt.setupErr != nil {
		return rt.setupErr
	}
	counts, err := rt.app.WeeklyTicketCounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(rt.out, weeksTable(counts).String())
	return nil
}

func (rt *runtime) export(ctx context.Context, c *cli.Command) error {
	p, err := rt.period(c)
	if err != nil {
		return err
	}
	path := c.String("output")
	if path == "" {
		path = fmt.Sprintf("kpi_%s.xlsx", p)
	}
	if err := rt.app.Export(ctx, p, path); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "✓ Wrote %s\n", path)
	return nil
}
