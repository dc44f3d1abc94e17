package model

import (
	"sort"

	"github.com/samber/lo"
)

// Workload metric names.
const (
	MetricTicketCount           = "ticket_count"
	MetricResolvedCount         = "resolved_count"
	MetricOpenCount             = "open_count"
	MetricResolutionRatePct     = "resolution_rate_pct"
	MetricAvgResolutionHours    = "avg_resolution_hours"
	MetricMedianResolutionHours = "median_resolution_hours"
	MetricP90ResolutionHours    = "p90_resolution_hours"
	MetricAvgComplexity         = "avg_complexity"
	MetricWeightedWorkload      = "weighted_workload"
	MetricAvgTicketsPerStaff    = "avg_tickets_per_staff"
	MetricWorkloadCVPct         = "workload_cv_pct"
	MetricPreviousTicketCount   = "previous_ticket_count"
	MetricTicketChangePct       = "ticket_change_pct"
	MetricWorkloadSharePct      = "workload_share_pct"
	MetricLoadIndex             = "load_index"
)

// Invoice metric names.
const (
	MetricInvoiceCount            = "invoice_count"
	MetricTotalAmount             = "total_amount"
	MetricAvgAmount               = "avg_amount"
	MetricTotalMinutes            = "total_minutes"
	MetricAvgMinutesPerInvoice    = "avg_minutes_per_invoice"
	MetricMedianMinutesPerInvoice = "median_minutes_per_invoice"
	MetricInvoicesPerHour         = "invoices_per_hour"
	MetricAvgInvoicesPerStaff     = "avg_invoices_per_staff"
	MetricProductivityScore       = "productivity_score"
)

const MetricStaffCount = "staff_count"

// InvoiceStaffMetrics lists the metrics present on every per-staff invoice
// KPI set, i.e. the metrics a staff ranking can use.
var InvoiceStaffMetrics = []string{
	MetricInvoiceCount,
	MetricTotalAmount,
	MetricTotalMinutes,
	MetricAvgMinutesPerInvoice,
	MetricInvoicesPerHour,
	MetricProductivityScore,
}

// ProductivityBaseline is the team rate expressed as a productivity score.
const ProductivityBaseline = 100.0

// KPISet maps metric names to values for one period. It is never modified
// after NewKPISet returns.
type KPISet struct {
	Period  Period
	metrics map[string]float64
}

func NewKPISet(p Period, metrics map[string]float64) KPISet {
	m := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		m[k] = v
	}
	return KPISet{Period: p, metrics: m}
}

// Value returns 0 for metrics that are not part of the set.
func (k KPISet) Value(name string) float64 {
	return k.metrics[name]
}

func (k KPISet) Has(name string) bool {
	_, ok := k.metrics[name]
	return ok
}

func (k KPISet) Names() []string {
	names := lo.Keys(k.metrics)
	sort.Strings(names)
	return names
}

func (k KPISet) Len() int { return len(k.metrics) }

// Map returns a copy of the metrics.
func (k KPISet) Map() map[string]float64 {
	out := make(map[string]float64, len(k.metrics))
	for n, v := range k.metrics {
		out[n] = v
	}
	return out
}

// StaffKPIs is the KPI set of one staff member.
type StaffKPIs struct {
	StaffID   string
	StaffName string
	KPIs      KPISet
}

// DisplayName falls back to the ID when no name was loaded.
func (s StaffKPIs) DisplayName() string {
	if s.StaffName != "" {
		return s.StaffName
	}
	return s.StaffID
}

// PeriodKPIs holds the team KPIs of a period and one set per staff member,
// ordered by staff ID.
type PeriodKPIs struct {
	Period Period
	Team   KPISet
	Staff  []StaffKPIs
}

// IsEmpty reports whether no records fell into the period.
func (p PeriodKPIs) IsEmpty() bool {
	return len(p.Staff) == 0
}

func (p PeriodKPIs) FindStaff(id string) (StaffKPIs, bool) {
	return lo.Find(p.Staff, func(s StaffKPIs) bool { return s.StaffID == id })
}

// BalanceStatus classifies a staff member's share of the workload.
type BalanceStatus string

const (
	BalanceOverloaded  BalanceStatus = "overloaded"
	BalanceBalanced    BalanceStatus = "balanced"
	BalanceUnderloaded BalanceStatus = "underloaded"
)

// BalanceRow is one line of the workload balance table.
type BalanceRow struct {
	StaffID          string
	StaffName        string
	Tickets          int
	WeightedWorkload float64
	SharePct         float64
	LoadIndex        float64
	Status           BalanceStatus
}

// TrainingNeed flags a staff member below the productivity threshold.
type TrainingNeed struct {
	StaffID           string
	StaffName         string
	ProductivityScore float64
	Threshold         float64
	Gap               float64
}

// BenchmarkResult compares one staff member to the team.
type BenchmarkResult struct {
	StaffID   string
	StaffName string
	Period    Period

	InvoicesVsAvgPct        float64
	TimeVsAvgPct            float64
	ProductivityVsAvgPoints float64

	// Deltas holds the percentage delta against the team average for every
	// staff metric.
	Deltas map[string]float64

	RankMetric string
	Rank       int
	TotalStaff int
}
