package mocks

import (
	"context"
	"errors"

	"github.com/godilite/procurement-kpi/internal/model"
)

// MockTicketSource is a mock implementation of the TicketSource interface
// for testing the service layer.
type MockTicketSource struct {
	LoadTicketsFunc func(ctx context.Context) (model.TicketDataset, error)
	Calls           int
}

// LoadTickets implements the TicketSource interface
func (m *MockTicketSource) LoadTickets(ctx context.Context) (model.TicketDataset, error) {
	m.Calls++
	if m.LoadTicketsFunc != nil {
		return m.LoadTicketsFunc(ctx)
	}
	return model.TicketDataset{}, errors.New("LoadTicketsFunc not implemented")
}

// MockInvoiceSource is a mock implementation of the InvoiceSource interface
// for testing the service layer.
type MockInvoiceSource struct {
	LoadInvoicesFunc func(ctx context.Context) (model.InvoiceDataset, error)
	Calls            int
}

// LoadInvoices implements the InvoiceSource interface
func (m *MockInvoiceSource) LoadInvoices(ctx context.Context) (model.InvoiceDataset, error) {
	m.Calls++
	if m.LoadInvoicesFunc != nil {
		return m.LoadInvoicesFunc(ctx)
	}
	return model.InvoiceDataset{}, errors.New("LoadInvoicesFunc not implemented")
}
