package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/godilite/procurement-kpi/internal/report"
)

func TestExporterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.xlsx")
	sheets := []Sheet{
		{Name: "Balance", Table: report.Table{
			Columns: []report.Column{{Label: "Staff ID"}, {Label: "Tickets", Align: report.AlignRight}, {Label: "Change", Align: report.AlignRight}},
			Rows:    [][]string{{"S001", "7", "+12.5%"}, {"S002", "3", "-4.0%"}},
			Summary: &report.Summary{Label: "Total", Values: []string{"10", "+8.0%"}},
		}},
		{Name: "Training", Table: report.Table{
			Columns: []report.Column{{Label: "Staff ID"}},
		}},
	}

	require.NoError(t, NewExporter(zap.NewNop()).Write(path, sheets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Balance", "Training"}, f.GetSheetList())

	rows, err := f.GetRows("Balance")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Staff ID", "Tickets", "Change"}, rows[0])
	assert.Equal(t, []string{"S001", "7", "+12.5%"}, rows[1])
	assert.Equal(t, []string{"Total", "10", "+8.0%"}, rows[3])

	training, err := f.GetRows("Training")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Staff ID"}}, training)
}

func TestExporterNoSheets(t *testing.T) {
	err := NewExporter(nil).Write(filepath.Join(t.TempDir(), "x.xlsx"), nil)
	assert.ErrorIs(t, err, ErrNoSheets)
}
