package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type InvoiceOption func(*InvoiceKPICalculator)

// WithRanker replaces the default productivity ranking used by benchmarks.
func WithRanker(r Ranker) InvoiceOption {
	return func(c *InvoiceKPICalculator) { c.ranker = r }
}

// InvoiceKPICalculator derives invoice registration KPIs, training needs and
// staff benchmarks.
type InvoiceKPICalculator struct {
	ranker Ranker
	logger *zap.Logger
}

func NewInvoiceKPICalculator(logger *zap.Logger, opts ...InvoiceOption) *InvoiceKPICalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InvoiceKPICalculator{
		ranker: DefaultRanker(),
		logger: logger.Named("invoices"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ranker is the ordering BenchmarkAgainstTeam ranks staff with.
func (c *InvoiceKPICalculator) Ranker() Ranker { return c.ranker }

// CalculateKPIs computes team and per-staff invoice metrics for the invoices
// registered in p. An empty period yields zero-valued team metrics and no staff.
func (c *InvoiceKPICalculator) CalculateKPIs(ds model.InvoiceDataset, p model.Period) model.PeriodKPIs {
	invoices := ds.InPeriod(p).Records()

	byStaff := lo.GroupBy(invoices, func(inv model.InvoiceRecord) string { return inv.StaffID })
	staffIDs := lo.Keys(byStaff)
	sort.Strings(staffIDs)

	n := float64(len(invoices))
	totalAmount := lo.SumBy(invoices, func(inv model.InvoiceRecord) float64 { return inv.Amount })
	minutes := lo.Map(invoices, func(inv model.InvoiceRecord, _ int) float64 { return inv.ProcessingMinutes })
	totalMinutes := lo.Sum(minutes)
	teamRate := invoicesPerHour(n, totalMinutes)

	team := model.NewKPISet(p, map[string]float64{
		model.MetricInvoiceCount:            n,
		model.MetricTotalAmount:             totalAmount,
		model.MetricAvgAmount:               safeDiv(totalAmount, n),
		model.MetricTotalMinutes:            totalMinutes,
		model.MetricAvgMinutesPerInvoice:    safeDiv(totalMinutes, n),
		model.MetricMedianMinutesPerInvoice: median(minutes),
		model.MetricInvoicesPerHour:         teamRate,
		model.MetricStaffCount:              float64(len(staffIDs)),
		model.MetricAvgInvoicesPerStaff:     safeDiv(n, float64(len(staffIDs))),
	})

	staff := make([]model.StaffKPIs, 0, len(staffIDs))
	for _, id := range staffIDs {
		invs := byStaff[id]
		count := float64(len(invs))
		mins := lo.SumBy(invs, func(inv model.InvoiceRecord) float64 { return inv.ProcessingMinutes })
		rate := invoicesPerHour(count, mins)

		staff = append(staff, model.StaffKPIs{
			StaffID:   id,
			StaffName: invoiceStaffName(invs),
			KPIs: model.NewKPISet(p, map[string]float64{
				model.MetricInvoiceCount:         count,
				model.MetricTotalAmount:          lo.SumBy(invs, func(inv model.InvoiceRecord) float64 { return inv.Amount }),
				model.MetricTotalMinutes:         mins,
				model.MetricAvgMinutesPerInvoice: safeDiv(mins, count),
				model.MetricInvoicesPerHour:      rate,
				model.MetricProductivityScore:    safeDiv(rate, teamRate) * model.ProductivityBaseline,
			}),
		})
	}

	if len(invoices) == 0 {
		c.logger.Info("no invoices in period", zap.String("period", p.String()), zap.Int("dataset_size", ds.Len()))
	} else {
		c.logger.Info("invoice kpis calculated",
			zap.String("period", p.String()),
			zap.Int("invoices", len(invoices)),
			zap.Int("staff", len(staffIDs)),
			zap.Float64("invoices_per_hour", teamRate))
	}

	return model.PeriodKPIs{Period: p, Team: team, Staff: staff}
}

// IdentifyTrainingNeeds lists staff whose productivity score is below the
// given percentile of the team's scores, lowest score first.
func (c *InvoiceKPICalculator) IdentifyTrainingNeeds(k model.PeriodKPIs, thresholdPercentile float64) ([]model.TrainingNeed, error) {
	if math.IsNaN(thresholdPercentile) || thresholdPercentile < 0 || thresholdPercentile > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPercentile, thresholdPercentile)
	}
	if k.IsEmpty() {
		return []model.TrainingNeed{}, nil
	}

	scores := lo.Map(k.Staff, func(s model.StaffKPIs, _ int) float64 {
		return s.KPIs.Value(model.MetricProductivityScore)
	})
	threshold := percentile(scores, thresholdPercentile)

	needs := lo.FilterMap(k.Staff, func(s model.StaffKPIs, _ int) (model.TrainingNeed, bool) {
		score := s.KPIs.Value(model.MetricProductivityScore)
		return model.TrainingNeed{
			StaffID:           s.StaffID,
			StaffName:         s.StaffName,
			ProductivityScore: score,
			Threshold:         threshold,
			Gap:               threshold - score,
		}, score < threshold
	})
	sort.SliceStable(needs, func(i, j int) bool {
		if needs[i].ProductivityScore != needs[j].ProductivityScore {
			return needs[i].ProductivityScore < needs[j].ProductivityScore
		}
		return needs[i].StaffID < needs[j].StaffID
	})

	c.logger.Debug("training needs identified",
		zap.String("period", k.Period.String()),
		zap.Float64("percentile", thresholdPercentile),
		zap.Float64("threshold", threshold),
		zap.Int("staff_below", len(needs)))

	return needs, nil
}

// BenchmarkAgainstTeam compares one staff member with the team averages of
// an already computed period.
func (c *InvoiceKPICalculator) BenchmarkAgainstTeam(k model.PeriodKPIs, staffID string) (model.BenchmarkResult, error) {
	s, ok := k.FindStaff(staffID)
	if !ok {
		return model.BenchmarkResult{}, fmt.Errorf("%w: %q in %s", ErrStaffNotFound, staffID, k.Period)
	}

	ranked, err := c.ranker.Rank(k.Staff)
	if err != nil {
		return model.BenchmarkResult{}, err
	}
	entry, _ := lo.Find(ranked, func(r RankedStaff) bool { return r.Staff.StaffID == staffID })

	deltas := make(map[string]float64, s.KPIs.Len())
	for _, name := range s.KPIs.Names() {
		avg := mean(lo.Map(k.Staff, func(o model.StaffKPIs, _ int) float64 { return o.KPIs.Value(name) }))
		deltas[name] = pctDelta(s.KPIs.Value(name), avg)
	}

	result := model.BenchmarkResult{
		StaffID:                 s.StaffID,
		StaffName:               s.StaffName,
		Period:                  k.Period,
		InvoicesVsAvgPct:        pctDelta(s.KPIs.Value(model.MetricInvoiceCount), k.Team.Value(model.MetricAvgInvoicesPerStaff)),
		TimeVsAvgPct:            pctDelta(s.KPIs.Value(model.MetricAvgMinutesPerInvoice), k.Team.Value(model.MetricAvgMinutesPerInvoice)),
		ProductivityVsAvgPoints: s.KPIs.Value(model.MetricProductivityScore) - model.ProductivityBaseline,
		Deltas:                  deltas,
		RankMetric:              c.ranker.Metric,
		Rank:                    entry.Rank,
		TotalStaff:              len(k.Staff),
	}

	c.logger.Info("staff benchmarked",
		zap.String("staff_id", staffID),
		zap.String("period", k.Period.String()),
		zap.Int("rank", result.Rank),
		zap.Int("total_staff", result.TotalStaff))

	return result, nil
}

func invoicesPerHour(count, minutes float64) float64 {
	return safeDiv(count, minutes/60)
}

func invoiceStaffName(invs []model.InvoiceRecord) string {
	for _, inv := range invs {
		if inv.StaffName != "" {
			return inv.StaffName
		}
	}
	return ""
}
