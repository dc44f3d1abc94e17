// Package report turns computed KPIs into plain-text tables. Nothing here
// recomputes a metric; identical input always renders identical text.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/service"
)

const ruleWidth = 80

// Section renders a framed section header.
func Section(title string) string {
	rule := strings.Repeat("=", ruleWidth)
	return fmt.Sprintf("\n%s\n  %s\n%s\n\n", rule, title, rule)
}

// Banner is printed once at the top of the demo.
func Banner() string {
	inner := ruleWidth - 2
	line := func(s string) string {
		return "║" + center(s, inner) + "║\n"
	}
	var b strings.Builder
	b.WriteString("\n╔" + strings.Repeat("═", inner) + "╗\n")
	b.WriteString(line(""))
	b.WriteString(line("KPI SYSTEM DEMONSTRATION"))
	b.WriteString(line("Public Procurement Operations Analytics"))
	b.WriteString(line(""))
	b.WriteString("╚" + strings.Repeat("═", inner) + "╝\n")
	return b.String()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func noData(title string, p model.Period) string {
	return fmt.Sprintf("%s\nNo data for period %s.\n", title, p)
}

type metricRow struct {
	label    string
	metric   string
	decimals int
}

func metricTable(title string, set model.KPISet, rows []metricRow) Table {
	return Table{
		Title:   title,
		Columns: []Column{{Label: "Metric"}, {Label: "Value", Align: AlignRight}},
		Rows: lo.Map(rows, func(r metricRow, _ int) []string {
			return []string{r.label, num(set.Value(r.metric), r.decimals)}
		}),
	}
}

var workloadTeamRows = []metricRow{
	{"Tickets", model.MetricTicketCount, 0},
	{"Resolved", model.MetricResolvedCount, 0},
	{"Open", model.MetricOpenCount, 0},
	{"Resolution rate (%)", model.MetricResolutionRatePct, 1},
	{"Avg resolution (h)", model.MetricAvgResolutionHours, 1},
	{"Median resolution (h)", model.MetricMedianResolutionHours, 1},
	{"P90 resolution (h)", model.MetricP90ResolutionHours, 1},
	{"Avg complexity", model.MetricAvgComplexity, 2},
	{"Weighted workload", model.MetricWeightedWorkload, 1},
	{"Staff", model.MetricStaffCount, 0},
	{"Avg tickets per staff", model.MetricAvgTicketsPerStaff, 1},
	{"Workload CV (%)", model.MetricWorkloadCVPct, 1},
	{"Previous week tickets", model.MetricPreviousTicketCount, 0},
	{"Change vs previous week (%)", model.MetricTicketChangePct, 1},
}

var invoiceTeamRows = []metricRow{
	{"Invoices", model.MetricInvoiceCount, 0},
	{"Total amount", model.MetricTotalAmount, 2},
	{"Avg amount", model.MetricAvgAmount, 2},
	{"Total minutes", model.MetricTotalMinutes, 0},
	{"Avg minutes per invoice", model.MetricAvgMinutesPerInvoice, 1},
	{"Median minutes per invoice", model.MetricMedianMinutesPerInvoice, 1},
	{"Invoices per hour", model.MetricInvoicesPerHour, 2},
	{"Staff", model.MetricStaffCount, 0},
	{"Avg invoices per staff", model.MetricAvgInvoicesPerStaff, 1},
}

// WorkloadTeamTable lists the team-level ticket metrics.
func WorkloadTeamTable(k model.PeriodKPIs) Table {
	return metricTable(fmt.Sprintf("Team workload, %s", k.Period), k.Team, workloadTeamRows)
}

// WorkloadStaffTable has one row per staff member in ID order.
func WorkloadStaffTable(k model.PeriodKPIs) Table {
	return Table{
		Title: "Per staff",
		Columns: []Column{
			{Label: "Staff ID"}, {Label: "Name"},
			{Label: "Tickets", Align: AlignRight},
			{Label: "Resolved", Align: AlignRight},
			{Label: "Res. rate %", Align: AlignRight},
			{Label: "Avg hours", Align: AlignRight},
			{Label: "Avg complexity", Align: AlignRight},
			{Label: "Workload", Align: AlignRight},
			{Label: "Load index", Align: AlignRight},
		},
		Rows: lo.Map(k.Staff, func(s model.StaffKPIs, _ int) []string {
			return []string{
				s.StaffID, s.StaffName,
				num(s.KPIs.Value(model.MetricTicketCount), 0),
				num(s.KPIs.Value(model.MetricResolvedCount), 0),
				num(s.KPIs.Value(model.MetricResolutionRatePct), 1),
				num(s.KPIs.Value(model.MetricAvgResolutionHours), 1),
				num(s.KPIs.Value(model.MetricAvgComplexity), 2),
				num(s.KPIs.Value(model.MetricWeightedWorkload), 1),
				num(s.KPIs.Value(model.MetricLoadIndex), 1),
			}
		}),
	}
}

// WorkloadReport renders the ticket KPIs of one period.
func WorkloadReport(k model.PeriodKPIs) string {
	title := fmt.Sprintf("WORKLOAD KPI REPORT: %s", k.Period)
	if k.IsEmpty() {
		return noData(title, k.Period)
	}
	return title + "\n\n" + WorkloadTeamTable(k).String() + "\n" + WorkloadStaffTable(k).String()
}

// InvoiceTeamTable lists the team-level invoice metrics.
func InvoiceTeamTable(k model.PeriodKPIs) Table {
	return metricTable(fmt.Sprintf("Team invoices, %s", k.Period), k.Team, invoiceTeamRows)
}

// InvoiceStaffTable orders staff with ranker and keeps the first topN rows;
// topN <= 0 keeps everyone.
func InvoiceStaffTable(k model.PeriodKPIs, topN int, ranker service.Ranker) Table {
	ranked, err := ranker.Rank(k.Staff)
	if err != nil {
		ranked = lo.Map(k.Staff, func(s model.StaffKPIs, i int) service.RankedStaff {
			return service.RankedStaff{Staff: s, Rank: i + 1}
		})
	}
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}

	by := "productivity"
	if ranker.Metric != model.MetricProductivityScore {
		by = ranker.Metric
	}
	title := "Staff by " + by
	if topN > 0 {
		title = fmt.Sprintf("Top %d staff by %s", topN, by)
	}
	return Table{
		Title: title,
		Columns: []Column{
			{Label: "Rank", Align: AlignRight},
			{Label: "Staff ID"}, {Label: "Name"},
			{Label: "Invoices", Align: AlignRight},
			{Label: "Amount", Align: AlignRight},
			{Label: "Avg min", Align: AlignRight},
			{Label: "Inv/hour", Align: AlignRight},
			{Label: "Score", Align: AlignRight},
		},
		Rows: lo.Map(ranked, func(r service.RankedStaff, _ int) []string {
			s := r.Staff
			return []string{
				fmt.Sprint(r.Rank), s.StaffID, s.StaffName,
				num(s.KPIs.Value(model.MetricInvoiceCount), 0),
				num(s.KPIs.Value(model.MetricTotalAmount), 2),
				num(s.KPIs.Value(model.MetricAvgMinutesPerInvoice), 1),
				num(s.KPIs.Value(model.MetricInvoicesPerHour), 2),
				num(s.KPIs.Value(model.MetricProductivityScore), 1),
			}
		}),
	}
}

// InvoiceReport renders the invoice KPIs of one period.
func InvoiceReport(k model.PeriodKPIs, topN int, ranker service.Ranker) string {
	title := fmt.Sprintf("INVOICE REGISTRATION KPI REPORT: %s", k.Period)
	if k.IsEmpty() {
		return noData(title, k.Period)
	}
	return title + "\n\n" + InvoiceTeamTable(k).String() + "\n" + InvoiceStaffTable(k, topN, ranker).String()
}

// BalanceTable renders workload balance rows in the order given.
func BalanceTable(rows []model.BalanceRow) Table {
	return Table{
		Columns: []Column{
			{Label: "Staff ID"}, {Label: "Name"},
			{Label: "Tickets", Align: AlignRight},
			{Label: "Workload", Align: AlignRight},
			{Label: "Share %", Align: AlignRight},
			{Label: "Load index", Align: AlignRight},
			{Label: "Status"},
		},
		Rows: lo.Map(rows, func(r model.BalanceRow, _ int) []string {
			return []string{
				r.StaffID, r.StaffName,
				fmt.Sprint(r.Tickets),
				num(r.WeightedWorkload, 1),
				num(r.SharePct, 1),
				num(r.LoadIndex, 1),
				string(r.Status),
			}
		}),
	}
}

// Balance renders the balance table, or a notice when nobody worked.
func Balance(rows []model.BalanceRow) string {
	if len(rows) == 0 {
		return "No staff with tickets in this period.\n"
	}
	return BalanceTable(rows).String()
}

func TrainingTable(needs []model.TrainingNeed) Table {
	return Table{
		Columns: []Column{
			{Label: "Staff ID"}, {Label: "Name"},
			{Label: "Score", Align: AlignRight},
			{Label: "Threshold", Align: AlignRight},
			{Label: "Gap", Align: AlignRight},
		},
		Rows: lo.Map(needs, func(n model.TrainingNeed, _ int) []string {
			return []string{
				n.StaffID, n.StaffName,
				num(n.ProductivityScore, 1),
				num(n.Threshold, 1),
				num(n.Gap, 1),
			}
		}),
	}
}

// Training renders training recommendations.
func Training(needs []model.TrainingNeed) string {
	if len(needs) == 0 {
		return "No staff members below training threshold.\n"
	}
	return TrainingTable(needs).String()
}

// BenchmarkSummary renders one staff member's comparison with the team.
func BenchmarkSummary(res model.BenchmarkResult) string {
	who := res.StaffID
	if res.StaffName != "" {
		who = fmt.Sprintf("%s (%s)", res.StaffID, res.StaffName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Staff Member: %s\n", who)
	fmt.Fprintf(&b, "  Invoices vs Team Avg: %s\n", signedPct(res.InvoicesVsAvgPct))
	fmt.Fprintf(&b, "  Time vs Team Avg: %s\n", signedPct(res.TimeVsAvgPct))
	fmt.Fprintf(&b, "  Productivity vs Baseline: %+.1f points\n", res.ProductivityVsAvgPoints)
	fmt.Fprintf(&b, "  Team Rank: %d of %d\n", res.Rank, res.TotalStaff)
	return b.String()
}

// BenchmarkTable lists the delta against the team average for every metric.
func BenchmarkTable(res model.BenchmarkResult) Table {
	names := lo.Keys(res.Deltas)
	slices.Sort(names)
	return Table{
		Title:   fmt.Sprintf("%s vs team average, %s", res.StaffID, res.Period),
		Columns: []Column{{Label: "Metric"}, {Label: "Delta", Align: AlignRight}},
		Rows: lo.Map(names, func(name string, _ int) []string {
			return []string{name, signedPct(res.Deltas[name])}
		}),
	}
}
