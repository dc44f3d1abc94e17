package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Complexity is the effort marker carried by a ticket.
type Complexity int

const (
	ComplexityUnknown Complexity = iota
	ComplexityLow
	ComplexityMedium
	ComplexityHigh
)

// ParseComplexity accepts low|medium|high in any case, or 1|2|3.
func ParseComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "1":
		return ComplexityLow, nil
	case "medium", "2":
		return ComplexityMedium, nil
	case "high", "3":
		return ComplexityHigh, nil
	}
	return ComplexityUnknown, fmt.Errorf("unknown complexity %q", s)
}

func (c Complexity) String() string {
	switch c {
	case ComplexityLow:
		return "low"
	case ComplexityMedium:
		return "medium"
	case ComplexityHigh:
		return "high"
	}
	return "unknown"
}

// Level is the numeric rank of the marker (1..3), 0 when unknown.
func (c Complexity) Level() int {
	return int(c)
}

// TicketRecord is one support/procurement ticket.
type TicketRecord struct {
	ID         string
	StaffID    string
	StaffName  string
	Category   string
	Complexity Complexity
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

func (t TicketRecord) IsResolved() bool {
	return t.ResolvedAt != nil
}

// ResolutionTime is zero for open tickets.
func (t TicketRecord) ResolutionTime() time.Duration {
	if t.ResolvedAt == nil {
		return 0
	}
	return t.ResolvedAt.Sub(t.CreatedAt)
}

// InvoiceRecord is one invoice registration event.
type InvoiceRecord struct {
	ID                string
	StaffID           string
	StaffName         string
	Supplier          string
	Amount            float64
	ProcessingMinutes float64
	RegisteredAt      time.Time
}

// TicketDataset is an immutable set of tickets read from one source.
type TicketDataset struct {
	source  string
	records []TicketRecord
}

func NewTicketDataset(source string, records []TicketRecord) TicketDataset {
	return TicketDataset{source: source, records: cloneTickets(records)}
}

func (d TicketDataset) Source() string { return d.source }

func (d TicketDataset) Len() int { return len(d.records) }

// Records returns a copy; callers cannot change the dataset.
func (d TicketDataset) Records() []TicketRecord {
	return cloneTickets(d.records)
}

// InPeriod returns the tickets created within p.
func (d TicketDataset) InPeriod(p Period) TicketDataset {
	in := lo.Filter(d.records, func(t TicketRecord, _ int) bool {
		return p.Contains(t.CreatedAt)
	})
	return TicketDataset{source: d.source, records: in}
}

// StaffIDs returns the distinct staff, sorted.
func (d TicketDataset) StaffIDs() []string {
	return sortedStaff(lo.Map(d.records, func(t TicketRecord, _ int) string { return t.StaffID }))
}

// InvoiceDataset is an immutable set of invoices read from one source.
type InvoiceDataset struct {
	source  string
	records []InvoiceRecord
}

func NewInvoiceDataset(source string, records []InvoiceRecord) InvoiceDataset {
	return InvoiceDataset{source: source, records: append([]InvoiceRecord(nil), records...)}
}

func (d InvoiceDataset) Source() string { return d.source }

func (d InvoiceDataset) Len() int { return len(d.records) }

func (d InvoiceDataset) Records() []InvoiceRecord {
	return append([]InvoiceRecord(nil), d.records...)
}

// InPeriod returns the invoices registered within p.
func (d InvoiceDataset) InPeriod(p Period) InvoiceDataset {
	in := lo.Filter(d.records, func(inv InvoiceRecord, _ int) bool {
		return p.Contains(inv.RegisteredAt)
	})
	return InvoiceDataset{source: d.source, records: in}
}

func (d InvoiceDataset) StaffIDs() []string {
	return sortedStaff(lo.Map(d.records, func(inv InvoiceRecord, _ int) string { return inv.StaffID }))
}

func sortedStaff(ids []string) []string {
	out := lo.Uniq(ids)
	sort.Strings(out)
	return out
}

// ResolvedAt pointers are copied so the clone shares nothing with the input.
func cloneTickets(in []TicketRecord) []TicketRecord {
	out := make([]TicketRecord, len(in))
	for i, t := range in {
		if t.ResolvedAt != nil {
			r := *t.ResolvedAt
			t.ResolvedAt = &r
		}
		out[i] = t
	}
	return out
}
