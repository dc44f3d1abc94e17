package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/procurement-kpi/internal/model"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// RowError locates a malformed value. It matches ErrMalformedRow.
type RowError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s:%d: column %s: %v", e.File, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrMalformedRow, e.Err} }

var (
	ticketColumns  = []string{"ticket_id", "staff_id", "category", "complexity", "created_at"}
	invoiceColumns = []string{"invoice_id", "staff_id", "amount", "processing_minutes", "registered_at"}
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVSource reads both datasets from CSV files.
type CSVSource struct {
	TicketsPath  string
	InvoicesPath string
	logger       *zap.Logger
}

func NewCSVSource(ticketsPath, invoicesPath string, logger *zap.Logger) *CSVSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSource{
		TicketsPath:  ticketsPath,
		InvoicesPath: invoicesPath,
		logger:       logger.Named("csv-loader"),
	}
}

func (s *CSVSource) LoadTickets(ctx context.Context) (model.TicketDataset, error) {
	if err := ctx.Err(); err != nil {
		return model.TicketDataset{}, err
	}
	ds, err := LoadTickets(s.TicketsPath)
	if err != nil {
		return model.TicketDataset{}, err
	}
	s.logger.Info("tickets loaded", zap.String("path", s.TicketsPath), zap.Int("count", ds.Len()))
	return ds, nil
}

func (s *CSVSource) LoadInvoices(ctx context.Context) (model.InvoiceDataset, error) {
	if err := ctx.Err(); err != nil {
		return model.InvoiceDataset{}, err
	}
	ds, err := LoadInvoices(s.InvoicesPath)
	if err != nil {
		return model.InvoiceDataset{}, err
	}
	s.logger.Info("invoices loaded", zap.String("path", s.InvoicesPath), zap.Int("count", ds.Len()))
	return ds, nil
}

// LoadTickets reads a ticket CSV file.
func LoadTickets(path string) (model.TicketDataset, error) {
	f, err := open(path)
	if err != nil {
		return model.TicketDataset{}, err
	}
	defer f.Close()
	return ReadTickets(f, path)
}

// LoadInvoices reads an invoice CSV file.
func LoadInvoices(path string) (model.InvoiceDataset, error) {
	f, err := open(path)
	if err != nil {
		return model.InvoiceDataset{}, err
	}
	defer f.Close()
	return ReadInvoices(f, path)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// ReadTickets parses ticket rows from r; name labels errors.
func ReadTickets(r io.Reader, name string) (model.TicketDataset, error) {
	var records []model.TicketRecord
	seen := map[string]int{}

	err := readRows(r, name, ticketColumns, func(row row) error {
		id := row.get("ticket_id")
		if id == "" {
			return row.fail("ticket_id", errors.New("empty value"))
		}
		if first, dup := seen[id]; dup {
			return row.fail("ticket_id", fmt.Errorf("duplicate ticket_id %q (first seen on line %d)", id, first))
		}
		staff := row.get("staff_id")
		if staff == "" {
			return row.fail("staff_id", errors.New("empty value"))
		}
		complexity, err := model.ParseComplexity(row.get("complexity"))
		if err != nil {
			return row.fail("complexity", err)
		}
		created, err := parseTime(row.get("created_at"))
		if err != nil {
			return row.fail("created_at", err)
		}

		t := model.TicketRecord{
			ID:         id,
			StaffID:    staff,
			StaffName:  row.get("staff_name"),
			Category:   row.get("category"),
			Complexity: complexity,
			CreatedAt:  created,
		}
		if raw := row.get("resolved_at"); raw != "" {
			resolved, err := parseTime(raw)
			if err != nil {
				return row.fail("resolved_at", err)
			}
			if resolved.Before(created) {
				return row.fail("resolved_at", errors.New("resolved before created"))
			}
			t.ResolvedAt = &resolved
		}

		seen[id] = row.line
		records = append(records, t)
		return nil
	})
	if err != nil {
		return model.TicketDataset{}, err
	}
	return model.NewTicketDataset(name, records), nil
}

// ReadInvoices parses invoice rows from r; name labels errors.
func ReadInvoices(r io.Reader, name string) (model.InvoiceDataset, error) {
	var records []model.InvoiceRecord
	seen := map[string]int{}

	err := readRows(r, name, invoiceColumns, func(row row) error {
		id := row.get("invoice_id")
		if id == "" {
			return row.fail("invoice_id", errors.New("empty value"))
		}
		if first, dup := seen[id]; dup {
			return row.fail("invoice_id", fmt.Errorf("duplicate invoice_id %q (first seen on line %d)", id, first))
		}
		staff := row.get("staff_id")
		if staff == "" {
			return row.fail("staff_id", errors.New("empty value"))
		}
		amount, err := parseNonNegative(row.get("amount"))
		if err != nil {
			return row.fail("amount", err)
		}
		minutes, err := parseNonNegative(row.get("processing_minutes"))
		if err != nil {
			return row.fail("processing_minutes", err)
		}
		registered, err := parseTime(row.get("registered_at"))
		if err != nil {
			return row.fail("registered_at", err)
		}

		seen[id] = row.line
		records = append(records, model.InvoiceRecord{
			ID:                id,
			StaffID:           staff,
			StaffName:         row.get("staff_name"),
			Supplier:          row.get("supplier"),
			Amount:            amount,
			ProcessingMinutes: minutes,
			RegisteredAt:      registered,
		})
		return nil
	})
	if err != nil {
		return model.InvoiceDataset{}, err
	}
	return model.NewInvoiceDataset(name, records), nil
}

type row struct {
	file   string
	line   int
	fields []string
	index  map[string]int
}

// get returns "" for optional columns absent from the header.
func (r row) get(column string) string {
	i, ok := r.index[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) fail(column string, err error) error {
	return &RowError{File: r.file, Line: r.line, Column: column, Err: err}
}

func readRows(r io.Reader, name string, required []string, fn func(row) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s is empty", ErrMissingColumn, filepath.Base(name))
		}
		return &RowError{File: name, Line: 1, Err: err}
	}
	index := indexMap(header)
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%w: %s has no %s column", ErrMissingColumn, name, col)
		}
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return &RowError{File: name, Line: pe.Line, Err: pe.Err}
			}
			return &RowError{File: name, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if err := fn(row{file: name, line: line, fields: fields, index: index}); err != nil {
			return err
		}
	}
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return m
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %v", v)
	}
	return v, nil
}
