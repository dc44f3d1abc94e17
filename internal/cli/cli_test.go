package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/procurement-kpi/internal/config"
	"github.com/godilite/procurement-kpi/internal/loader"
	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/service"
)

func writeConfig(t *testing.T, ticketsPath string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
log_level: error
data:
  source: csv
  tickets_path: %s
  invoices_path: ../../data/sample/invoices_sample.csv
database:
  path: %s
`, ticketsPath, filepath.Join(dir, "kpi.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cfg := writeConfig(t, "../../data/sample/tickets_sample.csv")
	err := newCommand(&out).Run(context.Background(), append([]string{"kpi", "--config", cfg}, args...))
	return out.String(), err
}

func TestRootRunsDemo(t *testing.T) {
	out, err := run(t)

	require.NoError(t, err)
	assert.Contains(t, out, "KPI SYSTEM DEMONSTRATION")
	assert.Contains(t, out, "DEMO COMPLETE")
}

func TestDemoFailure(t *testing.T) {
	var out bytes.Buffer
	cfg := writeConfig(t, "does/not/exist.csv")

	err := newCommand(&out).Run(context.Background(), []string{"kpi", "--config", cfg, "demo"})

	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrFileNotFound)
	assert.ErrorAs(t, err, &reportedError{})
	assert.Contains(t, out.String(), "❌ Error during demo: ")
	assert.Contains(t, out.String(), "Troubleshooting:")
}

func TestDemoSetupFailure(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unopenable database",
			body: "data:\n  source: sqlite3\ndatabase:\n  path: /nonexistent/dir/kpi.db\n",
			want: "❌ Error during demo: database init failed",
		},
		{
			name: "invalid config",
			body: "benchmark:\n  tie_break: coin_flip\n",
			want: "❌ Error during demo: invalid config",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"+tc.body), 0o600))
			var out bytes.Buffer

			err := newCommand(&out).Run(context.Background(), []string{"kpi", "--config", path})

			require.Error(t, err)
			assert.ErrorAs(t, err, &reportedError{})
			assert.Contains(t, out.String(), tc.want)
			assert.Contains(t, out.String(), "Troubleshooting:")
		})
	}

	t.Run("subcommands return the setup error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  tie_break: coin_flip\n"), 0o600))
		var out bytes.Buffer

		err := newCommand(&out).Run(context.Background(), []string{"kpi", "--config", path, "workload"})

		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.False(t, errors.As(err, &reportedError{}))
		assert.Empty(t, out.String())
	})
}

func TestSubcommands(t *testing.T) {
	t.Run("workload", func(t *testing.T) {
		out, err := run(t, "workload", "--period", "2024-W49")
		require.NoError(t, err)
		assert.Contains(t, out, "WORKLOAD KPI REPORT: 2024-W49")
	})

	t.Run("workload on an empty week", func(t *testing.T) {
		out, err := run(t, "workload", "-p", "2024-W10")
		require.NoError(t, err)
		assert.Contains(t, out, "No data for period 2024-W10.")
	})

	t.Run("invoices top", func(t *testing.T) {
		out, err := run(t, "invoices", "--top", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "Top 3 staff by productivity")
	})

	t.Run("benchmark", func(t *testing.T) {
		out, err := run(t, "benchmark", "--staff", "S003", "--detailed")
		require.NoError(t, err)
		assert.Contains(t, out, "Staff Member: S003")
		assert.Contains(t, out, "vs team average")
	})

	t.Run("benchmark unknown staff", func(t *testing.T) {
		_, err := run(t, "benchmark", "--staff", "S404")
		assert.ErrorIs(t, err, service.ErrStaffNotFound)
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := run(t, "workload", "--period", "week 50")
		assert.ErrorIs(t, err, model.ErrInvalidPeriod)
	})

	t.Run("import then weeks", func(t *testing.T) {
		var out bytes.Buffer
		cfg := writeConfig(t, "../../data/sample/tickets_sample.csv")

		require.NoError(t, newCommand(&out).Run(context.Background(), []string{"kpi", "-c", cfg, "import"}))
		assert.Contains(t, out.String(), "✓ Imported 40 tickets and 60 invoices")

		out.Reset()
		require.NoError(t, newCommand(&out).Run(context.Background(), []string{"kpi", "-c", cfg, "weeks"}))
		assert.Contains(t, out.String(), "2024-W49")
		assert.Contains(t, out.String(), "2024-W50")
		assert.Contains(t, out.String(), "40")
	})

	t.Run("export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xlsx")
		out, err := run(t, "export", "--output", path)
		require.NoError(t, err)
		assert.Contains(t, out, "✓ Wrote "+path)
		assert.FileExists(t, path)
	})
}

func TestWeeksTable(t *testing.T) {
	table := weeksTable(map[model.Period]int{
		model.MustParsePeriod("2025-W01"): 2,
		model.MustParsePeriod("2024-W52"): 5,
	})

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2024-W52", "5"}, table.Rows[0])
	assert.Equal(t, []string{"7"}, table.Summary.Values)
}
