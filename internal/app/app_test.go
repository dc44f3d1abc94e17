package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/config"
	"github.com/godilite/procurement-kpi/internal/loader"
	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/service"
)

const (
	ticketsPath  = "../../data/sample/tickets_sample.csv"
	invoicesPath = "../../data/sample/invoices_sample.csv"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.TicketsPath = ticketsPath
	cfg.Data.InvoicesPath = invoicesPath
	cfg.Database.Path = filepath.Join(t.TempDir(), "kpi.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestEndToEndWorkload(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	p := model.MustParsePeriod("2024-W50")

	summary, err := a.service.Workload(context.Background(), p)
	require.NoError(t, err)

	tickets, err := loader.LoadTickets(ticketsPath)
	require.NoError(t, err)
	distinct := tickets.InPeriod(p).StaffIDs()

	assert.GreaterOrEqual(t, summary.KPIs.Team.Value(model.MetricTicketCount), 0.0)
	assert.Len(t, summary.Balance, len(distinct))
	assert.Equal(t, 40, summary.Loaded)
}

func TestRunDemo(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	var out bytes.Buffer

	require.NoError(t, a.RunDemo(context.Background(), &out))

	text := out.String()
	for _, want := range []string{
		"KPI SYSTEM DEMONSTRATION",
		"WORKLOAD ANALYSIS DEMO",
		"✓ Loaded 40 tickets",
		"🔢 Calculating KPIs for Week 50, 2024...",
		"⚖️  WORKLOAD BALANCE ANALYSIS:",
		"✓ Loaded 60 invoices",
		"🎓 TRAINING RECOMMENDATIONS:",
		"📊 Benchmarking S001 against team averages...",
		"Staff Member: S001",
		"Team Rank: ",
		"of 6",
		"DEMO COMPLETE",
	} {
		assert.Contains(t, text, want)
	}
}

func TestRunDemoMissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.TicketsPath = filepath.Join(t.TempDir(), "missing.csv")
	a := newTestApp(t, cfg)

	err := a.RunDemo(context.Background(), &bytes.Buffer{})

	assert.ErrorIs(t, err, service.ErrLoadFailure)
	assert.ErrorIs(t, err, loader.ErrFileNotFound)
}

func TestRunBenchmarkUnknownStaff(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	err := a.RunBenchmark(context.Background(), &bytes.Buffer{}, a.DemoPeriod(), "S999", false)

	assert.ErrorIs(t, err, service.ErrStaffNotFound)
}

func TestRunBenchmarkDetailed(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	var out bytes.Buffer

	require.NoError(t, a.RunBenchmark(context.Background(), &out, a.DemoPeriod(), "S002", true))

	assert.Contains(t, out.String(), "S002 vs team average, 2024-W50")
	assert.Contains(t, out.String(), model.MetricInvoicesPerHour)
}

func TestImportThenReadFromSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	p := model.MustParsePeriod("2024-W50")

	csvApp := newTestApp(t, cfg)
	res, err := csvApp.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Tickets)
	assert.Equal(t, 60, res.Invoices)

	counts, err := csvApp.WeeklyTicketCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, counts[p])
	require.NoError(t, csvApp.Close())

	sqliteCfg := *cfg
	sqliteCfg.Data.Source = config.SourceSQLite
	sqliteApp := newTestApp(t, &sqliteCfg)

	fromCSV, err := newTestApp(t, cfg).service.Invoices(ctx, p, 25)
	require.NoError(t, err)
	fromDB, err := sqliteApp.service.Invoices(ctx, p, 25)
	require.NoError(t, err)

	want := fromCSV.KPIs.Team.Map()
	got := fromDB.KPIs.Team.Map()
	require.Len(t, got, len(want))
	for name, v := range want {
		assert.InDelta(t, v, got[name], 1e-9, name)
	}
	assert.Len(t, fromDB.Training, len(fromCSV.Training))
}

func TestExport(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := filepath.Join(t.TempDir(), "week50.xlsx")

	require.NoError(t, a.Export(context.Background(), a.DemoPeriod(), path))

	_, err := os.Stat(path)
	require.NoError(t, err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 6)
}
