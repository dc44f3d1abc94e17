package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/report"
)

// RunDemo runs the workload, invoice and benchmarking walkthroughs for the
// configured demo week and staff member.
func (a *App) RunDemo(ctx context.Context, w io.Writer) error {
	p := a.DemoPeriod()
	a.logger.Info("demo starting", zap.Stringer("period", p), zap.String("staff_id", a.cfg.Demo.StaffID))

	fmt.Fprint(w, report.Banner())

	if err := a.demoWorkload(ctx, w, p); err != nil {
		return err
	}
	if err := a.demoInvoices(ctx, w, p); err != nil {
		return err
	}
	if err := a.demoBenchmark(ctx, w, p); err != nil {
		return err
	}

	fmt.Fprint(w, report.Section("DEMO COMPLETE"))
	fmt.Fprintln(w, "✓ All KPI calculations completed successfully!")
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Review the generated reports above")
	fmt.Fprintln(w, "  2. Examine the calculators in internal/service/")
	fmt.Fprintln(w, "  3. Read DESIGN.md for the KPI formulas")
	fmt.Fprintln(w, "  4. Try modifying the sample data or thresholds in config/config.yaml")
	fmt.Fprintln(w, "\nFor production use:")
	fmt.Fprintln(w, "  - Import your data into SQLite with `kpi import` and set data.source: sqlite3")
	fmt.Fprintln(w, "  - Replace sample data paths with your data sources")
	fmt.Fprintln(w, "  - Customize complexity weights and balance thresholds for your environment")
	fmt.Fprintln(w, "  - Export the tables to a workbook with `kpi export`")
	return nil
}

func weekLabel(p model.Period) string {
	return fmt.Sprintf("Week %d, %d", p.Week, p.Year)
}

func (a *App) demoWorkload(ctx context.Context, w io.Writer, p model.Period) error {
	fmt.Fprint(w, report.Section("WORKLOAD ANALYSIS DEMO"))

	fmt.Fprintln(w, "📊 Loading sample ticket data...")
	summary, err := a.service.Workload(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Loaded %d tickets\n", summary.Loaded)

	fmt.Fprintf(w, "\n🔢 Calculating KPIs for %s...\n", weekLabel(p))

	fmt.Fprintln(w, "\n📋 PERFORMANCE REPORT:")
	fmt.Fprintln(w, report.WorkloadReport(summary.KPIs))

	fmt.Fprintln(w, "⚖️  WORKLOAD BALANCE ANALYSIS:")
	fmt.Fprint(w, report.Balance(summary.Balance))
	return nil
}

func (a *App) demoInvoices(ctx context.Context, w io.Writer, p model.Period) error {
	fmt.Fprint(w, report.Section("INVOICE REGISTRATION DEMO"))

	fmt.Fprintln(w, "📊 Loading sample invoice data...")
	summary, err := a.service.Invoices(ctx, p, a.cfg.Invoices.TrainingPercentile)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Loaded %d invoices\n", summary.Loaded)

	fmt.Fprintf(w, "\n🔢 Calculating KPIs for %s...\n", weekLabel(p))

	fmt.Fprintln(w, "\n📋 PERFORMANCE REPORT:")
	fmt.Fprintln(w, report.InvoiceReport(summary.KPIs, a.cfg.Invoices.TopN, a.service.Ranker()))

	fmt.Fprintln(w, "🎓 TRAINING RECOMMENDATIONS:")
	fmt.Fprint(w, report.Training(summary.Training))
	return nil
}

func (a *App) demoBenchmark(ctx context.Context, w io.Writer, p model.Period) error {
	fmt.Fprint(w, report.Section("INDIVIDUAL BENCHMARKING DEMO"))

	staffID := a.cfg.Demo.StaffID
	fmt.Fprintf(w, "📊 Benchmarking %s against team averages...\n\n", staffID)
	return a.RunBenchmark(ctx, w, p, staffID, false)
}
