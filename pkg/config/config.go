package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the repository root when no path is given.
const DefaultConfigFile = ".diffscope.yaml"

type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Usage      UsageConfig      `yaml:"usage"`
	Graph      GraphConfig      `yaml:"graph"`
	Review     ReviewConfig     `yaml:"review"`
	Log        LogConfig        `yaml:"log"`
}

type ExtractionConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type UsageConfig struct {
	Workers              int      `yaml:"workers"`
	HighUsageThreshold   int      `yaml:"high_usage_threshold"`
	MediumUsageThreshold int      `yaml:"medium_usage_threshold"`
	Exclude              []string `yaml:"exclude"`
}

type GraphConfig struct {
	Extensions   []string `yaml:"extensions"`
	MaxFiles     int      `yaml:"max_files"`
	FetchWorkers int      `yaml:"fetch_workers"`
}

type ReviewConfig struct {
	// Timeout bounds the analysis after the diff is read. An explicit 0
	// disables the bound; leaving the key out keeps the default.
	Timeout    time.Duration `yaml:"timeout"`
	ReportPath string        `yaml:"report_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{BatchSize: 10},
		Usage: UsageConfig{
			Workers:              8,
			HighUsageThreshold:   10,
			MediumUsageThreshold: 3,
		},
		Graph: GraphConfig{
			Extensions:   []string{".ts", ".tsx", ".js", ".jsx"},
			MaxFiles:     2000,
			FetchWorkers: 8,
		},
		Review: ReviewConfig{
			Timeout:    60 * time.Second,
			ReportPath: "diffscope-report.md",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a YAML (or JSON) file over the defaults. A missing file is
// not an error.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills zero values left by a partial file. review.timeout is
// not touched: zero there is a valid setting.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Extraction.BatchSize == 0 {
		c.Extraction.BatchSize = d.Extraction.BatchSize
	}
	if c.Usage.Workers == 0 {
		c.Usage.Workers = d.Usage.Workers
	}
	if c.Usage.HighUsageThreshold == 0 {
		c.Usage.HighUsageThreshold = d.Usage.HighUsageThreshold
	}
	if c.Usage.MediumUsageThreshold == 0 {
		c.Usage.MediumUsageThreshold = d.Usage.MediumUsageThreshold
	}
	if len(c.Graph.Extensions) == 0 {
		c.Graph.Extensions = d.Graph.Extensions
	}
	if c.Graph.MaxFiles == 0 {
		c.Graph.MaxFiles = d.Graph.MaxFiles
	}
	if c.Graph.FetchWorkers == 0 {
		c.Graph.FetchWorkers = d.Graph.FetchWorkers
	}
	if c.Review.ReportPath == "" {
		c.Review.ReportPath = d.Review.ReportPath
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	for i, ext := range c.Graph.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Graph.Extensions[i] = "." + ext
		}
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Extraction.BatchSize < 0:
		return fmt.Errorf("extraction.batch_size must be positive, got %d", c.Extraction.BatchSize)
	case c.Usage.Workers < 0:
		return fmt.Errorf("usage.workers must be positive, got %d", c.Usage.Workers)
	case c.Usage.MediumUsageThreshold > c.Usage.HighUsageThreshold:
		return fmt.Errorf("usage.medium_usage_threshold (%d) exceeds usage.high_usage_threshold (%d)",
			c.Usage.MediumUsageThreshold, c.Usage.HighUsageThreshold)
	case c.Graph.MaxFiles < 0:
		return fmt.Errorf("graph.max_files must be positive, got %d", c.Graph.MaxFiles)
	case c.Graph.FetchWorkers < 0:
		return fmt.Errorf("graph.fetch_workers must be positive, got %d", c.Graph.FetchWorkers)
	case c.Review.Timeout < 0:
		return fmt.Errorf("review.timeout must not be negative, got %s", c.Review.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a log.level value onto an slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", level)
	}
}
