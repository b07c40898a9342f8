package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. STATSKETCH_MAX_ROWS.
const EnvPrefix = "STATSKETCH"

// Global configuration structure.
type Global struct {
	// Parsing
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Reports
	SampleRows       int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	HistogramBins    int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`

	// Charts
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	Workers   int    `mapstructure:"workers" yaml:"workers"`
}

var defaults = map[string]any{
	"delimiter":           "",
	"decimal_separator":   "",
	"thousands_separator": "",
	"max_rows":            100000,
	"sample_rows":         5,
	"outlier_threshold":   3.5,
	"histogram_bins":      10,
	"chart_format":        "svg",
	"chart_width":         800,
	"chart_height":        400,
	"output_dir":          "statsketch-out",
	"serve_addr":          "127.0.0.1:8080",
	"log_level":           "info",
	"log_format":          "console",
	"workers":             4,
}

// Keys lists every configuration key in display order.
func Keys() []string {
	return []string{
		"delimiter", "decimal_separator", "thousands_separator", "max_rows",
		"sample_rows", "outlier_threshold", "histogram_bins",
		"chart_format", "chart_width", "chart_height",
		"output_dir", "serve_addr", "log_level", "log_format", "workers",
	}
}

// Defaults returns the built-in configuration, ignoring files and environment.
func Defaults() *Global {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".statsketch"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.statsketch/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv exports the variables of the given .env files (default ".env")
// without overriding what the environment already sets. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load loads configuration from .env, env, file, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no command could use.
func (c *Global) Validate() error {
	switch {
	case c.MaxRows < 0:
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	case c.SampleRows < 0:
		return fmt.Errorf("sample_rows must be >= 0, got %d", c.SampleRows)
	case c.OutlierThreshold <= 0:
		return fmt.Errorf("outlier_threshold must be > 0, got %g", c.OutlierThreshold)
	case c.HistogramBins < 1:
		return fmt.Errorf("histogram_bins must be >= 1, got %d", c.HistogramBins)
	case c.ChartWidth < 1 || c.ChartHeight < 1:
		return fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	case c.Workers < 1:
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	switch strings.ToLower(c.ChartFormat) {
	case "svg", "png":
	default:
		return fmt.Errorf("invalid chart_format: %s (use svg or png)", c.ChartFormat)
	}
	return nil
}

// Get returns the value of key formatted for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSeparator, nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "chart_format":
		return c.ChartFormat, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "output_dir":
		return c.OutputDir, nil
	case "serve_addr":
		return c.ServeAddr, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val for key and stores it. The result is validated as a whole.
func (c *Global) Set(key, val string) error {
	next := *c
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	var err error
	switch key {
	case "delimiter":
		next.Delimiter = val
	case "decimal_separator":
		next.DecimalSeparator = val
	case "thousands_separator":
		next.ThousandsSeparator = val
	case "max_rows":
		next.MaxRows, err = atoi()
	case "sample_rows":
		next.SampleRows, err = atoi()
	case "outlier_threshold":
		next.OutlierThreshold, err = strconv.ParseFloat(val, 64)
		if err != nil {
			err = fmt.Errorf("invalid float for %s: %w", key, err)
		}
	case "histogram_bins":
		next.HistogramBins, err = atoi()
	case "chart_format":
		next.ChartFormat = strings.ToLower(val)
	case "chart_width":
		next.ChartWidth, err = atoi()
	case "chart_height":
		next.ChartHeight, err = atoi()
	case "output_dir":
		next.OutputDir = val
	case "serve_addr":
		next.ServeAddr = val
	case "log_level":
		next.LogLevel = val
	case "log_format":
		next.LogFormat = val
	case "workers":
		next.Workers, err = atoi()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
