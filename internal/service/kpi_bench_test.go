package service

import (
	"testing"

	"github.com/godilite/procurement-kpi/internal/loader"
	"go.uber.org/zap"
)

func BenchmarkWorkloadCalculateKPIs(b *testing.B) {
	ds, err := loader.LoadTickets("../../data/sample/tickets_sample.csv")
	if err != nil {
		b.Fatalf("failed to load sample tickets: %v", err)
	}
	a := NewWorkloadAnalyzer(zap.NewNop())

	b.ReportAllocs()

	for b.Loop() {
		_ = a.CalculateKPIs(ds, week50)
	}
}

func BenchmarkInvoiceBenchmarkAgainstTeam(b *testing.B) {
	ds, err := loader.LoadInvoices("../../data/sample/invoices_sample.csv")
	if err != nil {
		b.Fatalf("failed to load sample invoices: %v", err)
	}
	c := NewInvoiceKPICalculator(zap.NewNop())
	kpis := c.CalculateKPIs(ds, week50)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = c.BenchmarkAgainstTeam(kpis, "S001")
	}
}
