package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/repository/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS tickets (
		ticket_id   TEXT PRIMARY KEY,
		staff_id    TEXT NOT NULL,
		staff_name  TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		complexity  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		resolved_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets (created_at);
	CREATE TABLE IF NOT EXISTS invoices (
		invoice_id         TEXT PRIMARY KEY,
		staff_id           TEXT NOT NULL,
		staff_name         TEXT NOT NULL DEFAULT '',
		supplier           TEXT NOT NULL DEFAULT '',
		amount             REAL NOT NULL,
		processing_minutes REAL NOT NULL,
		registered_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_registered_at ON invoices (registered_at);
`

// RecordRepository stores ticket and invoice records in SQLite and serves
// them back as datasets.
type RecordRepository struct {
	db     *sql.DB
	source string
}

// NewRecordRepository wraps db; source labels the datasets it returns.
func NewRecordRepository(db *sql.DB, source string) *RecordRepository {
	return &RecordRepository{db: db, source: source}
}

// EnsureSchema creates the tables when they do not exist.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveTickets upserts every ticket of ds in a single transaction.
func (r *RecordRepository) SaveTickets(ctx context.Context, ds model.TicketDataset) (int, error) {
	const query = `
		INSERT OR REPLACE INTO tickets
			(ticket_id, staff_id, staff_name, category, complexity, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	records := ds.Records()
	err := r.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, t := range records {
			var resolved sql.NullString
			if t.ResolvedAt != nil {
				resolved = sql.NullString{String: formatTime(*t.ResolvedAt), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, t.ID, t.StaffID, t.StaffName, t.Category,
				t.Complexity.String(), formatTime(t.CreatedAt), resolved); err != nil {
				return fmt.Errorf("insert ticket %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// SaveInvoices upserts every invoice of ds in a single transaction.
func (r *RecordRepository) SaveInvoices(ctx context.Context, ds model.InvoiceDataset) (int, error) {
	const query = `
		INSERT OR REPLACE INTO invoices
			(invoice_id, staff_id, staff_name, supplier, amount, processing_minutes, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	records := ds.Records()
	err := r.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, inv := range records {
			if _, err := stmt.ExecContext(ctx, inv.ID, inv.StaffID, inv.StaffName, inv.Supplier,
				inv.Amount, inv.ProcessingMinutes, formatTime(inv.RegisteredAt)); err != nil {
				return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadTickets reads every stored ticket, oldest first.
func (r *RecordRepository) LoadTickets(ctx context.Context) (model.TicketDataset, error) {
	const query = `
		SELECT ticket_id, staff_id, staff_name, category, complexity, created_at, resolved_at
		FROM tickets
		ORDER BY created_at, ticket_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return model.TicketDataset{}, fmt.Errorf("query LoadTickets: %w", err)
	}
	defer rows.Close()

	var records []model.TicketRecord
	for rows.Next() {
		var row models.TicketRow
		if err := rows.Scan(&row.TicketID, &row.StaffID, &row.StaffName, &row.Category,
			&row.Complexity, &row.CreatedAt, &row.ResolvedAt); err != nil {
			return model.TicketDataset{}, fmt.Errorf("scan LoadTickets row: %w", err)
		}
		t, err := ticketFromRow(row)
		if err != nil {
			return model.TicketDataset{}, err
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return model.TicketDataset{}, fmt.Errorf("iterate LoadTickets: %w", err)
	}
	return model.NewTicketDataset(r.source, records), nil
}

// LoadInvoices reads every stored invoice, oldest first.
func (r *RecordRepository) LoadInvoices(ctx context.Context) (model.InvoiceDataset, error) {
	const query = `
		SELECT invoice_id, staff_id, staff_name, supplier, amount, processing_minutes, registered_at
		FROM invoices
		ORDER BY registered_at, invoice_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return model.InvoiceDataset{}, fmt.Errorf("query LoadInvoices: %w", err)
	}
	defer rows.Close()

	var records []model.InvoiceRecord
	for rows.Next() {
		var row models.InvoiceRow
		if err := rows.Scan(&row.InvoiceID, &row.StaffID, &row.StaffName, &row.Supplier,
			&row.Amount, &row.ProcessingMinutes, &row.RegisteredAt); err != nil {
			return model.InvoiceDataset{}, fmt.Errorf("scan LoadInvoices row: %w", err)
		}
		registered, err := time.Parse(time.RFC3339Nano, row.RegisteredAt)
		if err != nil {
			return model.InvoiceDataset{}, fmt.Errorf("decode invoice %s: %w", row.InvoiceID, err)
		}
		records = append(records, model.InvoiceRecord{
			ID:                row.InvoiceID,
			StaffID:           row.StaffID,
			StaffName:         row.StaffName,
			Supplier:          row.Supplier,
			Amount:            row.Amount,
			ProcessingMinutes: row.ProcessingMinutes,
			RegisteredAt:      registered,
		})
	}
	if err := rows.Err(); err != nil {
		return model.InvoiceDataset{}, fmt.Errorf("iterate LoadInvoices: %w", err)
	}
	return model.NewInvoiceDataset(r.source, records), nil
}

// WeeklyTicketCounts counts stored tickets per ISO week. SQLite's %W weeks
// start on Monday but restart every January, so groups are re-keyed by the
// ISO week of their first ticket.
func (r *RecordRepository) WeeklyTicketCounts(ctx context.Context) (map[model.Period]int, error) {
	const query = `
		SELECT MIN(created_at) AS first_created, COUNT(ticket_id) AS ticket_count
		FROM tickets
		GROUP BY strftime('%Y-W%W', created_at)
		ORDER BY first_created
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query WeeklyTicketCounts: %w", err)
	}
	defer rows.Close()

	out := map[model.Period]int{}
	for rows.Next() {
		var first string
		var count int
		if err := rows.Scan(&first, &count); err != nil {
			return nil, fmt.Errorf("scan WeeklyTicketCounts row: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, first)
		if err != nil {
			return nil, fmt.Errorf("decode week start %q: %w", first, err)
		}
		out[model.PeriodOf(t)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate WeeklyTicketCounts: %w", err)
	}
	return out, nil
}

func (r *RecordRepository) inTx(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func ticketFromRow(row models.TicketRow) (model.TicketRecord, error) {
	complexity, err := model.ParseComplexity(row.Complexity)
	if err != nil {
		return model.TicketRecord{}, fmt.Errorf("decode ticket %s: %w", row.TicketID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return model.TicketRecord{}, fmt.Errorf("decode ticket %s: %w", row.TicketID, err)
	}
	t := model.TicketRecord{
		ID:         row.TicketID,
		StaffID:    row.StaffID,
		StaffName:  row.StaffName,
		Category:   row.Category,
		Complexity: complexity,
		CreatedAt:  created,
	}
	if row.ResolvedAt.Valid {
		resolved, err := time.Parse(time.RFC3339Nano, row.ResolvedAt.String)
		if err != nil {
			return model.TicketRecord{}, fmt.Errorf("decode ticket %s: %w", row.TicketID, err)
		}
		t.ResolvedAt = &resolved
	}
	return t, nil
}

// storedTimeLayout keeps every nanosecond digit so stored timestamps sort
// as text and still parse with time.RFC3339Nano.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}
