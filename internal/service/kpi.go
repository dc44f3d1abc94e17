package service

import (
	"context"
	"fmt"
	"time"

	"github.com/godilite/procurement-kpi/internal/model"
	"go.uber.org/zap"
)

const loadTimeout = 30 * time.Second

// WorkloadSummary is the outcome of one workload analysis run.
type WorkloadSummary struct {
	Loaded  int
	KPIs    model.PeriodKPIs
	Balance []model.BalanceRow
}

// InvoiceSummary is the outcome of one invoice analysis run.
type InvoiceSummary struct {
	Loaded   int
	KPIs     model.PeriodKPIs
	Training []model.TrainingNeed
}

// KPIService loads datasets from its sources and hands them to the
// calculators. Datasets are reloaded on every call.
type KPIService struct {
	tickets  TicketSource
	invoices InvoiceSource
	workload *WorkloadAnalyzer
	invoice  *InvoiceKPICalculator
	logger   *zap.Logger
}

// NewKPIService creates a new KPIService instance.
func NewKPIService(tickets TicketSource, invoices InvoiceSource, workload *WorkloadAnalyzer, invoice *InvoiceKPICalculator, logger *zap.Logger) *KPIService {
	if tickets == nil || invoices == nil {
		panic("sources must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workload == nil {
		workload = NewWorkloadAnalyzer(logger)
	}
	if invoice == nil {
		invoice = NewInvoiceKPICalculator(logger)
	}
	return &KPIService{
		tickets:  tickets,
		invoices: invoices,
		workload: workload,
		invoice:  invoice,
		logger:   logger.Named("kpi-service"),
	}
}

// Ranker is the ranking used for benchmarks, so reports can list staff in
// the same order.
func (s *KPIService) Ranker() Ranker { return s.invoice.Ranker() }

func (s *KPIService) loadTickets(ctx context.Context) (model.TicketDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	ds, err := s.tickets.LoadTickets(ctx)
	if err != nil {
		s.logger.Error("failed to load tickets", zap.Error(err))
		return model.TicketDataset{}, fmt.Errorf("%w: tickets: %w", ErrLoadFailure, err)
	}
	return ds, nil
}

func (s *KPIService) loadInvoices(ctx context.Context) (model.InvoiceDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	ds, err := s.invoices.LoadInvoices(ctx)
	if err != nil {
		s.logger.Error("failed to load invoices", zap.Error(err))
		return model.InvoiceDataset{}, fmt.Errorf("%w: invoices: %w", ErrLoadFailure, err)
	}
	return ds, nil
}

// Workload loads tickets and computes KPIs and the balance table for p.
func (s *KPIService) Workload(ctx context.Context, p model.Period) (WorkloadSummary, error) {
	ds, err := s.loadTickets(ctx)
	if err != nil {
		return WorkloadSummary{}, err
	}
	kpis := s.workload.CalculateKPIs(ds, p)
	return WorkloadSummary{
		Loaded:  ds.Len(),
		KPIs:    kpis,
		Balance: s.workload.WorkloadBalance(kpis),
	}, nil
}

// Invoices loads invoices and computes KPIs and training needs for p.
func (s *KPIService) Invoices(ctx context.Context, p model.Period, trainingPercentile float64) (InvoiceSummary, error) {
	ds, err := s.loadInvoices(ctx)
	if err != nil {
		return InvoiceSummary{}, err
	}
	kpis := s.invoice.CalculateKPIs(ds, p)
	training, err := s.invoice.IdentifyTrainingNeeds(kpis, trainingPercentile)
	if err != nil {
		return InvoiceSummary{}, fmt.Errorf("training needs: %w", err)
	}
	return InvoiceSummary{Loaded: ds.Len(), KPIs: kpis, Training: training}, nil
}

// Benchmark loads invoices, computes KPIs for p and benchmarks staffID.
func (s *KPIService) Benchmark(ctx context.Context, p model.Period, staffID string) (model.BenchmarkResult, error) {
	ds, err := s.loadInvoices(ctx)
	if err != nil {
		return model.BenchmarkResult{}, err
	}
	kpis := s.invoice.CalculateKPIs(ds, p)
	res, err := s.invoice.BenchmarkAgainstTeam(kpis, staffID)
	if err != nil {
		return model.BenchmarkResult{}, fmt.Errorf("benchmark: %w", err)
	}
	return res, nil
}
