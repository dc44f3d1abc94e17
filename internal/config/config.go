package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/godilite/procurement-kpi/internal/model"
	"github.com/godilite/procurement-kpi/internal/service"
)

// DefaultPath is read when no config file is named explicitly.
const DefaultPath = "config/config.yaml"

const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the application.
type Config struct {
	AppEnv    string          `yaml:"app_env"`
	LogLevel  string          `yaml:"log_level"`
	Data      DataConfig      `yaml:"data"`
	Database  DatabaseConfig  `yaml:"database"`
	Workload  WorkloadConfig  `yaml:"workload"`
	Invoices  InvoicesConfig  `yaml:"invoices"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Demo      DemoConfig      `yaml:"demo"`
}

type DataConfig struct {
	// Source is "csv" or "sqlite3".
	Source       string `yaml:"source"`
	TicketsPath  string `yaml:"tickets_path"`
	InvoicesPath string `yaml:"invoices_path"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type WorkloadConfig struct {
	ComplexityWeights struct {
		Low    float64 `yaml:"low"`
		Medium float64 `yaml:"medium"`
		High   float64 `yaml:"high"`
	} `yaml:"complexity_weights"`
	OverloadThreshold  float64 `yaml:"overload_threshold"`
	UnderloadThreshold float64 `yaml:"underload_threshold"`
}

type InvoicesConfig struct {
	TopN               int     `yaml:"top_n"`
	TrainingPercentile float64 `yaml:"training_percentile"`
}

type BenchmarkConfig struct {
	RankMetric string `yaml:"rank_metric"`
	TieBreak   string `yaml:"tie_break"`
}

type DemoConfig struct {
	Period  string `yaml:"period"`
	StaffID string `yaml:"staff_id"`
}

// Default returns the configuration the demo runs with out of the box.
func Default() *Config {
	cfg := &Config{
		AppEnv:   "development",
		LogLevel: "warn",
		Data: DataConfig{
			Source:       SourceCSV,
			TicketsPath:  "data/sample/tickets_sample.csv",
			InvoicesPath: "data/sample/invoices_sample.csv",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "./data/kpi.db",
		},
		Invoices: InvoicesConfig{
			TopN:               6,
			TrainingPercentile: 25,
		},
		Benchmark: BenchmarkConfig{
			RankMetric: model.MetricProductivityScore,
			TieBreak:   string(service.TieBreakStaffID),
		},
		Demo: DemoConfig{
			Period:  "2024-W50",
			StaffID: "S001",
		},
	}
	w := service.DefaultComplexityWeights
	cfg.Workload.ComplexityWeights.Low = w.Low
	cfg.Workload.ComplexityWeights.Medium = w.Medium
	cfg.Workload.ComplexityWeights.High = w.High
	t := service.DefaultBalanceThresholds
	cfg.Workload.OverloadThreshold = t.Overload
	cfg.Workload.UnderloadThreshold = t.Underload
	return cfg
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path means DefaultPath, which
// may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Data.Source = getEnv("KPI_DATA_SOURCE", c.Data.Source)
	c.Data.TicketsPath = getEnv("TICKETS_PATH", c.Data.TicketsPath)
	c.Data.InvoicesPath = getEnv("INVOICES_PATH", c.Data.InvoicesPath)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
}

// Validate reports every problem found, joined, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	switch c.Data.Source {
	case SourceCSV:
		if c.Data.TicketsPath == "" || c.Data.InvoicesPath == "" {
			errs = append(errs, errors.New("data.tickets_path and data.invoices_path are required for csv source"))
		}
	case SourceSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3 source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data.source %q", c.Data.Source))
	}

	w := c.Workload.ComplexityWeights
	if w.Low < 0 || w.Medium < 0 || w.High < 0 {
		errs = append(errs, errors.New("complexity weights must not be negative"))
	}
	if c.Workload.UnderloadThreshold < 0 || c.Workload.UnderloadThreshold >= c.Workload.OverloadThreshold {
		errs = append(errs, fmt.Errorf("underload threshold %.1f must be below overload threshold %.1f",
			c.Workload.UnderloadThreshold, c.Workload.OverloadThreshold))
	}
	if p := c.Invoices.TrainingPercentile; p < 0 || p > 100 {
		errs = append(errs, fmt.Errorf("invoices.training_percentile %.1f outside [0, 100]", p))
	}
	if m := c.Benchmark.RankMetric; m != "" && !slices.Contains(model.InvoiceStaffMetrics, m) {
		errs = append(errs, fmt.Errorf("unknown benchmark.rank_metric %q", m))
	}
	if _, err := service.ParseTieBreak(c.Benchmark.TieBreak); err != nil {
		errs = append(errs, err)
	}
	if _, err := model.ParsePeriod(c.Demo.Period); err != nil {
		errs = append(errs, fmt.Errorf("demo.period: %w", err))
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Weights converts the workload section into calculator weights.
func (c *Config) Weights() service.ComplexityWeights {
	w := c.Workload.ComplexityWeights
	return service.ComplexityWeights{Low: w.Low, Medium: w.Medium, High: w.High}
}

// Thresholds converts the workload section into balance thresholds.
func (c *Config) Thresholds() service.BalanceThresholds {
	return service.BalanceThresholds{
		Overload:  c.Workload.OverloadThreshold,
		Underload: c.Workload.UnderloadThreshold,
	}
}

// Ranker builds the benchmark ranker from the benchmark section.
func (c *Config) Ranker() (service.Ranker, error) {
	tb, err := service.ParseTieBreak(c.Benchmark.TieBreak)
	if err != nil {
		return service.Ranker{}, err
	}
	return service.NewRanker(c.Benchmark.RankMetric, tb)
}

// NewLogger creates a new Zap logger based on the config. Logs always go to
// stderr so reports on stdout stay clean.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
