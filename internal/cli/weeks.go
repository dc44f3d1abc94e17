package cli

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/report"
)

func weeksTable(counts map[model.Period]int) report.Table {
	periods := lo.Keys(counts)
	slices.SortFunc(periods, func(a, b model.Period) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Week - b.Week
	})
	return report.Table{
		Columns: []report.Column{{Label: "Week"}, {Label: "Tickets", Align: report.AlignRight}},
		Rows: lo.Map(periods, func(p model.Period, _ int) []string {
			return []string{p.String(), fmt.Sprint(counts[p])}
		}),
		Summary: &report.Summary{Label: "Total", Values: []string{fmt.Sprint(lo.Sum(lo.Values(counts)))}},
	}
}
