package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/godilite/procurement-kpi/internal/model"
)

// Comparator orders two staff members whose rank metric is equal. It returns
// a negative number when a ranks ahead of b.
type Comparator func(a, b model.StaffKPIs) int

// TieBreak names a configurable tie-break policy.
type TieBreak string

const (
	// TieBreakStaffID orders ties by staff ID ascending.
	TieBreakStaffID TieBreak = "staff_id"
	// TieBreakInvoiceCount puts the higher invoice count first, then staff ID.
	TieBreakInvoiceCount TieBreak = "invoice_count"
	// TieBreakShared gives tied staff the same rank (1, 1, 3).
	TieBreakShared TieBreak = "shared"
)

func ParseTieBreak(s string) (TieBreak, error) {
	switch tb := TieBreak(strings.ToLower(strings.TrimSpace(s))); tb {
	case TieBreakStaffID, TieBreakInvoiceCount, TieBreakShared:
		return tb, nil
	case "":
		return TieBreakStaffID, nil
	}
	return "", fmt.Errorf("unknown tie-break policy %q", s)
}

func ByStaffID(a, b model.StaffKPIs) int {
	return strings.Compare(a.StaffID, b.StaffID)
}

// ByMetricDesc builds a comparator that prefers the higher value of metric.
func ByMetricDesc(metric string) Comparator {
	return func(a, b model.StaffKPIs) int {
		return cmp.Compare(b.KPIs.Value(metric), a.KPIs.Value(metric))
	}
}

// Then chains a second comparator for remaining ties.
func (c Comparator) Then(next Comparator) Comparator {
	return func(a, b model.StaffKPIs) int {
		if r := c(a, b); r != 0 {
			return r
		}
		return next(a, b)
	}
}

// Ranker produces a total ordering of staff over one metric.
type Ranker struct {
	Metric     string
	Descending bool
	TieBreak   Comparator
	// Shared assigns equal ranks to equal metric values.
	Shared bool
}

// DefaultRanker ranks by productivity score, highest first, ties by staff ID.
func DefaultRanker() Ranker {
	return Ranker{
		Metric:     model.MetricProductivityScore,
		Descending: true,
		TieBreak:   ByStaffID,
	}
}

// NewRanker builds a descending ranker over metric using the named policy.
func NewRanker(metric string, policy TieBreak) (Ranker, error) {
	if metric == "" {
		metric = model.MetricProductivityScore
	}
	r := Ranker{Metric: metric, Descending: true, TieBreak: ByStaffID}
	switch policy {
	case TieBreakStaffID, "":
	case TieBreakInvoiceCount:
		r.TieBreak = ByMetricDesc(model.MetricInvoiceCount).Then(ByStaffID)
	case TieBreakShared:
		r.Shared = true
	default:
		return Ranker{}, fmt.Errorf("unknown tie-break policy %q", policy)
	}
	return r, nil
}

// RankedStaff pairs a staff member with a 1-based rank.
type RankedStaff struct {
	Staff model.StaffKPIs
	Rank  int
}

// Rank orders staff by the ranker's metric. Remaining ties after TieBreak are
// broken by staff ID so the order is always total.
func (r Ranker) Rank(staff []model.StaffKPIs) ([]RankedStaff, error) {
	for _, s := range staff {
		if !s.KPIs.Has(r.Metric) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, r.Metric)
		}
	}

	primary := func(a, b model.StaffKPIs) int {
		if r.Descending {
			return cmp.Compare(b.KPIs.Value(r.Metric), a.KPIs.Value(r.Metric))
		}
		return cmp.Compare(a.KPIs.Value(r.Metric), b.KPIs.Value(r.Metric))
	}
	order := Comparator(primary)
	if r.TieBreak != nil {
		order = order.Then(r.TieBreak)
	}
	order = order.Then(ByStaffID)

	sorted := slices.Clone(staff)
	slices.SortFunc(sorted, order)

	out := make([]RankedStaff, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		if r.Shared && i > 0 && primary(sorted[i-1], s) == 0 {
			rank = out[i-1].Rank
		}
		out[i] = RankedStaff{Staff: s, Rank: rank}
	}
	return out, nil
}
