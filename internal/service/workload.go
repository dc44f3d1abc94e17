package service

import (
	"sort"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ComplexityWeights converts a ticket's complexity into workload units.
type ComplexityWeights struct {
	Low    float64
	Medium float64
	High   float64
}

var DefaultComplexityWeights = ComplexityWeights{Low: 1, Medium: 2, High: 3}

func (w ComplexityWeights) For(c model.Complexity) float64 {
	switch c {
	case model.ComplexityLow:
		return w.Low
	case model.ComplexityMedium:
		return w.Medium
	case model.ComplexityHigh:
		return w.High
	}
	return 0
}

// BalanceThresholds are load index bounds, 100 being the team mean.
type BalanceThresholds struct {
	Overload  float64
	Underload float64
}

var DefaultBalanceThresholds = BalanceThresholds{Overload: 120, Underload: 80}

func (b BalanceThresholds) Classify(loadIndex float64) model.BalanceStatus {
	switch {
	case loadIndex >= b.Overload:
		return model.BalanceOverloaded
	case loadIndex <= b.Underload:
		return model.BalanceUnderloaded
	default:
		return model.BalanceBalanced
	}
}

type WorkloadOption func(*WorkloadAnalyzer)

func WithComplexityWeights(w ComplexityWeights) WorkloadOption {
	return func(a *WorkloadAnalyzer) { a.weights = w }
}

func WithBalanceThresholds(b BalanceThresholds) WorkloadOption {
	return func(a *WorkloadAnalyzer) { a.thresholds = b }
}

// WorkloadAnalyzer derives ticket workload KPIs. It holds configuration only;
// every call works on the dataset it is given.
type WorkloadAnalyzer struct {
	weights    ComplexityWeights
	thresholds BalanceThresholds
	logger     *zap.Logger
}

func NewWorkloadAnalyzer(logger *zap.Logger, opts ...WorkloadOption) *WorkloadAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &WorkloadAnalyzer{
		weights:    DefaultComplexityWeights,
		thresholds: DefaultBalanceThresholds,
		logger:     logger.Named("workload"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CalculateKPIs computes team and per-staff workload metrics for the tickets
// created in p. An empty period yields zero-valued team metrics and no staff.
func (a *WorkloadAnalyzer) CalculateKPIs(ds model.TicketDataset, p model.Period) model.PeriodKPIs {
	tickets := ds.InPeriod(p).Records()
	previous := ds.InPeriod(p.Previous()).Len()

	byStaff := lo.GroupBy(tickets, func(t model.TicketRecord) string { return t.StaffID })
	staffIDs := lo.Keys(byStaff)
	sort.Strings(staffIDs)

	weighted := make(map[string]float64, len(byStaff))
	for id, ts := range byStaff {
		weighted[id] = lo.SumBy(ts, func(t model.TicketRecord) float64 { return a.weights.For(t.Complexity) })
	}
	loads := lo.Map(staffIDs, func(id string, _ int) float64 { return weighted[id] })
	teamWeighted := lo.Sum(loads)
	meanLoad := mean(loads)

	resolvedHours := resolutionHours(tickets)
	resolved := len(resolvedHours)
	total := len(tickets)

	team := model.NewKPISet(p, map[string]float64{
		model.MetricTicketCount:           float64(total),
		model.MetricResolvedCount:         float64(resolved),
		model.MetricOpenCount:             float64(total - resolved),
		model.MetricResolutionRatePct:     safeDiv(float64(resolved), float64(total)) * 100,
		model.MetricAvgResolutionHours:    mean(resolvedHours),
		model.MetricMedianResolutionHours: median(resolvedHours),
		model.MetricP90ResolutionHours:    percentile(resolvedHours, 90),
		model.MetricAvgComplexity:         averageComplexity(tickets),
		model.MetricWeightedWorkload:      teamWeighted,
		model.MetricStaffCount:            float64(len(staffIDs)),
		model.MetricAvgTicketsPerStaff:    safeDiv(float64(total), float64(len(staffIDs))),
		model.MetricWorkloadCVPct:         coefficientOfVariation(loads),
		model.MetricPreviousTicketCount:   float64(previous),
		model.MetricTicketChangePct:       pctChange(float64(total), float64(previous)),
	})

	staff := make([]model.StaffKPIs, 0, len(staffIDs))
	for _, id := range staffIDs {
		ts := byStaff[id]
		hours := resolutionHours(ts)
		staff = append(staff, model.StaffKPIs{
			StaffID:   id,
			StaffName: staffName(ts),
			KPIs: model.NewKPISet(p, map[string]float64{
				model.MetricTicketCount:        float64(len(ts)),
				model.MetricResolvedCount:      float64(len(hours)),
				model.MetricResolutionRatePct:  safeDiv(float64(len(hours)), float64(len(ts))) * 100,
				model.MetricAvgResolutionHours: mean(hours),
				model.MetricAvgComplexity:      averageComplexity(ts),
				model.MetricWeightedWorkload:   weighted[id],
				model.MetricWorkloadSharePct:   safeDiv(weighted[id], teamWeighted) * 100,
				model.MetricLoadIndex:          safeDiv(weighted[id], meanLoad) * 100,
			}),
		})
	}

	if total == 0 {
		a.logger.Info("no tickets in period", zap.String("period", p.String()), zap.Int("dataset_size", ds.Len()))
	} else {
		a.logger.Info("workload kpis calculated",
			zap.String("period", p.String()),
			zap.Int("tickets", total),
			zap.Int("staff", len(staffIDs)))
	}

	return model.PeriodKPIs{Period: p, Team: team, Staff: staff}
}

// WorkloadBalance returns one row per staff member, heaviest load first.
func (a *WorkloadAnalyzer) WorkloadBalance(k model.PeriodKPIs) []model.BalanceRow {
	rows := lo.Map(k.Staff, func(s model.StaffKPIs, _ int) model.BalanceRow {
		idx := s.KPIs.Value(model.MetricLoadIndex)
		return model.BalanceRow{
			StaffID:          s.StaffID,
			StaffName:        s.StaffName,
			Tickets:          int(s.KPIs.Value(model.MetricTicketCount)),
			WeightedWorkload: s.KPIs.Value(model.MetricWeightedWorkload),
			SharePct:         s.KPIs.Value(model.MetricWorkloadSharePct),
			LoadIndex:        idx,
			Status:           a.thresholds.Classify(idx),
		}
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LoadIndex != rows[j].LoadIndex {
			return rows[i].LoadIndex > rows[j].LoadIndex
		}
		return rows[i].StaffID < rows[j].StaffID
	})
	return rows
}

func (a *WorkloadAnalyzer) Thresholds() BalanceThresholds { return a.thresholds }

func resolutionHours(ts []model.TicketRecord) []float64 {
	return lo.FilterMap(ts, func(t model.TicketRecord, _ int) (float64, bool) {
		return t.ResolutionTime().Hours(), t.IsResolved()
	})
}

func averageComplexity(ts []model.TicketRecord) float64 {
	levels := lo.Map(ts, func(t model.TicketRecord, _ int) float64 { return float64(t.Complexity.Level()) })
	return mean(levels)
}

func staffName(ts []model.TicketRecord) string {
	for _, t := range ts {
		if t.StaffName != "" {
			return t.StaffName
		}
	}
	return ""
}
