package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/procurement-kpi/internal/loader"
	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/repository"
	"github.com/godilite/procurement-kpi/pkg/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(
		database.WithDataSource(":memory:"),
		database.WithMaxOpenConns(1),
		database.WithRetry(1, 0),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestRecordRepository_Integration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.NewRecordRepository(db, "sqlite3::memory:")
	require.NoError(t, repo.EnsureSchema(ctx))

	tickets, err := loader.LoadTickets("../../data/sample/tickets_sample.csv")
	require.NoError(t, err)
	invoices, err := loader.LoadInvoices("../../data/sample/invoices_sample.csv")
	require.NoError(t, err)

	t.Run("import", func(t *testing.T) {
		n, err := repo.SaveTickets(ctx, tickets)
		require.NoError(t, err)
		assert.Equal(t, 40, n)

		n, err = repo.SaveInvoices(ctx, invoices)
		require.NoError(t, err)
		assert.Equal(t, 60, n)
	})

	t.Run("import is idempotent", func(t *testing.T) {
		_, err := repo.SaveTickets(ctx, tickets)
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count))
		assert.Equal(t, 40, count)
	})

	t.Run("tickets round trip", func(t *testing.T) {
		got, err := repo.LoadTickets(ctx)
		require.NoError(t, err)

		assert.Equal(t, "sqlite3::memory:", got.Source())
		assert.Equal(t, tickets.Len(), got.Len())
		assert.ElementsMatch(t, tickets.Records(), got.Records())
	})

	t.Run("invoices round trip", func(t *testing.T) {
		got, err := repo.LoadInvoices(ctx)
		require.NoError(t, err)

		assert.ElementsMatch(t, invoices.Records(), got.Records())
		assert.Equal(t, invoices.StaffIDs(), got.StaffIDs())
	})

	t.Run("weekly counts", func(t *testing.T) {
		counts, err := repo.WeeklyTicketCounts(ctx)
		require.NoError(t, err)

		assert.Equal(t, map[model.Period]int{
			model.MustParsePeriod("2024-W49"): 8,
			model.MustParsePeriod("2024-W50"): 32,
		}, counts)
	})
}

func TestRecordRepository_OpenTicket(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRecordRepository(setupTestDB(t), "test")
	require.NoError(t, repo.EnsureSchema(ctx))

	created := time.Date(2024, 12, 30, 8, 0, 0, 0, time.UTC)
	resolved := created.Add(3 * time.Hour)
	ds := model.NewTicketDataset("mem", []model.TicketRecord{
		{ID: "T1", StaffID: "S1", Category: "sourcing", Complexity: model.ComplexityHigh, CreatedAt: created},
		{ID: "T2", StaffID: "S1", Category: "sourcing", Complexity: model.ComplexityLow, CreatedAt: created.AddDate(0, 0, 2), ResolvedAt: &resolved},
	})
	_, err := repo.SaveTickets(ctx, ds)
	require.NoError(t, err)

	got, err := repo.LoadTickets(ctx)
	require.NoError(t, err)
	records := got.Records()
	require.Len(t, records, 2)

	assert.False(t, records[0].IsResolved())
	assert.Equal(t, model.ComplexityHigh, records[0].Complexity)
	require.NotNil(t, records[1].ResolvedAt)
	assert.True(t, resolved.Equal(*records[1].ResolvedAt))

	// The two tickets straddle New Year but share ISO week 2025-W01.
	counts, err := repo.WeeklyTicketCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.Period]int{model.MustParsePeriod("2025-W01"): 2}, counts)
}

func TestRecordRepository_FractionalSeconds(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRecordRepository(setupTestDB(t), "test")
	require.NoError(t, repo.EnsureSchema(ctx))

	created := time.Date(2024, 12, 9, 8, 15, 30, 123456789, time.UTC)
	resolved := created.Add(90*time.Minute + 250*time.Millisecond)
	_, err := repo.SaveTickets(ctx, model.NewTicketDataset("mem", []model.TicketRecord{
		{ID: "T1", StaffID: "S1", Category: "sourcing", Complexity: model.ComplexityMedium, CreatedAt: created, ResolvedAt: &resolved},
		{ID: "T2", StaffID: "S1", Category: "sourcing", Complexity: model.ComplexityLow, CreatedAt: created.Add(-time.Nanosecond)},
	}))
	require.NoError(t, err)

	got, err := repo.LoadTickets(ctx)
	require.NoError(t, err)
	records := got.Records()
	require.Len(t, records, 2)

	byID := map[string]model.TicketRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	assert.True(t, created.Equal(byID["T1"].CreatedAt), "got %s", byID["T1"].CreatedAt)
	require.NotNil(t, byID["T1"].ResolvedAt)
	assert.True(t, resolved.Equal(*byID["T1"].ResolvedAt))
	assert.True(t, created.Add(-time.Nanosecond).Equal(byID["T2"].CreatedAt))
	assert.Equal(t, 90*time.Minute+250*time.Millisecond, byID["T1"].ResolvedAt.Sub(byID["T1"].CreatedAt))

	counts, err := repo.WeeklyTicketCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.Period]int{model.MustParsePeriod("2024-W50"): 2}, counts)
}
