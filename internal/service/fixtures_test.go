package service

import (
	"time"

	"github.com/godilite/procurement-kpi/internal/model"
)

var week50 = model.MustParsePeriod("2024-W50")

func dec(day, hour int) time.Time {
	return time.Date(2024, 12, day, hour, 0, 0, 0, time.UTC)
}

func resolvedAt(day, hour int) *time.Time {
	t := dec(day, hour)
	return &t
}

// ticketFixture has four tickets in 2024-W50 for S1 and S2 and one ticket in
// 2024-W49 for S3.
func ticketFixture() model.TicketDataset {
	return model.NewTicketDataset("fixture", []model.TicketRecord{
		{ID: "T1", StaffID: "S1", StaffName: "Anna", Complexity: model.ComplexityLow, CreatedAt: dec(9, 8), ResolvedAt: resolvedAt(9, 10)},
		{ID: "T2", StaffID: "S1", StaffName: "Anna", Complexity: model.ComplexityHigh, CreatedAt: dec(10, 8), ResolvedAt: resolvedAt(10, 18)},
		{ID: "T3", StaffID: "S2", Complexity: model.ComplexityMedium, CreatedAt: dec(11, 9)},
		{ID: "T4", StaffID: "S2", StaffName: "Jonas", Complexity: model.ComplexityLow, CreatedAt: dec(12, 9), ResolvedAt: resolvedAt(12, 13)},
		{ID: "T5", StaffID: "S3", Complexity: model.ComplexityHigh, CreatedAt: dec(3, 9), ResolvedAt: resolvedAt(4, 9)},
	})
}

// invoiceFixture: S1 registers 2 invoices in 30 minutes (4/h), S2 one in 30
// minutes (2/h), S3 three in 60 minutes (3/h). The team rate is 3/h.
func invoiceFixture() model.InvoiceDataset {
	return model.NewInvoiceDataset("fixture", []model.InvoiceRecord{
		{ID: "I1", StaffID: "S1", StaffName: "Anna", Amount: 1000, ProcessingMinutes: 10, RegisteredAt: dec(9, 9)},
		{ID: "I2", StaffID: "S1", StaffName: "Anna", Amount: 3000, ProcessingMinutes: 20, RegisteredAt: dec(10, 9)},
		{ID: "I3", StaffID: "S2", Amount: 2000, ProcessingMinutes: 30, RegisteredAt: dec(11, 9)},
		{ID: "I4", StaffID: "S3", Amount: 500, ProcessingMinutes: 15, RegisteredAt: dec(12, 9)},
		{ID: "I5", StaffID: "S3", Amount: 500, ProcessingMinutes: 15, RegisteredAt: dec(13, 9)},
		{ID: "I6", StaffID: "S3", Amount: 1000, ProcessingMinutes: 30, RegisteredAt: dec(15, 9)},
		{ID: "I7", StaffID: "S4", Amount: 9999, ProcessingMinutes: 5, RegisteredAt: dec(2, 9)},
	})
}

func staffKPIs(id string, metrics map[string]float64) model.StaffKPIs {
	return model.StaffKPIs{StaffID: id, KPIs: model.NewKPISet(week50, metrics)}
}
