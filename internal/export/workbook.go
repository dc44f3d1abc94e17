// Package export writes report tables to an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/report"
	"github.com/godilite/procurement-kpi/internal/service"
)

var ErrNoSheets = errors.New("workbook needs at least one sheet")

// Sheet is one table written to its own worksheet.
type Sheet struct {
	Name  string
	Table report.Table
}

// PeriodSheets lays out the tables of one workload and one invoice run.
func PeriodSheets(w service.WorkloadSummary, inv service.InvoiceSummary, topN int, ranker service.Ranker) []Sheet {
	return []Sheet{
		{Name: "Workload team", Table: report.WorkloadTeamTable(w.KPIs)},
		{Name: "Workload staff", Table: report.WorkloadStaffTable(w.KPIs)},
		{Name: "Balance", Table: report.BalanceTable(w.Balance)},
		{Name: "Invoices team", Table: report.InvoiceTeamTable(inv.KPIs)},
		{Name: "Invoices staff", Table: report.InvoiceStaffTable(inv.KPIs, topN, ranker)},
		{Name: "Training", Table: report.TrainingTable(inv.Training)},
	}
}

type Exporter struct {
	logger *zap.Logger
}

func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{logger: logger.Named("xlsx")}
}

// Write saves sheets to path, header row first on every sheet. Cells of
// right-aligned columns that parse as numbers are stored as numbers.
func (e *Exporter) Write(path string, sheets []Sheet) (err error) {
	if len(sheets) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), s.Name)
		} else {
			_, err = f.NewSheet(s.Name)
		}
		if err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		if err := writeTable(f, s.Name, s.Table, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Info("workbook written", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return nil
}

func writeTable(f *excelize.File, sheet string, t report.Table, headerStyle int) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	rows := t.Rows
	if t.Summary != nil {
		rows = append(rows[:len(rows):len(rows)], append([]string{t.Summary.Label}, t.Summary.Values...))
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = cellValue(t, i, v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(t report.Table, col int, v string) any {
	if col < len(t.Columns) && t.Columns[col].Align == report.AlignRight {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return v
}
