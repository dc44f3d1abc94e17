package models

import "database/sql"

// TicketRow mirrors the tickets table. Timestamps are stored as RFC 3339 text.
type TicketRow struct {
	TicketID   string
	StaffID    string
	StaffName  string
	Category   string
	Complexity string
	CreatedAt  string
	ResolvedAt sql.NullString
}

// InvoiceRow mirrors the invoices table.
type InvoiceRow struct {
	InvoiceID         string
	StaffID           string
	StaffName         string
	Supplier          string
	Amount            float64
	ProcessingMinutes float64
	RegisteredAt      string
}

// ImportResult counts the rows written by one import.
type ImportResult struct {
	Tickets  int
	Invoices int
}
