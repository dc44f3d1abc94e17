package service

import (
	"context"

	"github.com/godilite/procurement-kpi/internal/model"
)

// TicketSource loads the full ticket dataset (CSV file or SQLite).
type TicketSource interface {
	LoadTickets(ctx context.Context) (model.TicketDataset, error)
}

// InvoiceSource loads the full invoice dataset (CSV file or SQLite).
type InvoiceSource interface {
	LoadInvoices(ctx context.Context) (model.InvoiceDataset, error)
}
