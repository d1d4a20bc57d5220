// Package config loads settings for the command and the HTTP service from
// defaults, an optional YAML file, a .env file, the environment and flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cioplenu/pdf-lib/layout"
)

// EnvPrefix is prepended to every environment variable, e.g. PDFLIB_WORKERS
const EnvPrefix = "PDFLIB"

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config stores all configuration for the application.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Workers      int    `mapstructure:"workers"`
	OutputFormat string `mapstructure:"output_format"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	ListenAddr  string `mapstructure:"listen_addr"`
	DataDir     string `mapstructure:"data_dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`

	ObjectCacheSize   int     `mapstructure:"object_cache_size"`
	LineBandTolerance float64 `mapstructure:"line_band_tolerance"`
	SpaceGapRatio     float64 `mapstructure:"space_gap_ratio"`
}

// flagKeys maps flag names that differ from their key
var flagKeys = map[string]string{
	"format": "output_format",
	"listen": "listen_addr",
}

// defaults lists every key with its default value
func defaults() map[string]any {
	line := layout.DefaultLineConfig()
	return map[string]any{
		"log_level":           "info",
		"log_format":          "json",
		"workers":             4,
		"output_format":       FormatJSON,
		"metrics_addr":        "",
		"listen_addr":         ":8080",
		"data_dir":            os.TempDir(),
		"max_upload_mb":       64,
		"object_cache_size":   512,
		"line_band_tolerance": line.BandTolerance,
		"space_gap_ratio":     line.SpaceGapRatio,
	}
}

// Load reads configuration. path names an optional YAML config file; an
// empty path skips it. A .env file in the working directory is loaded into
// the environment when present. flags, when non-nil, override everything
// else for the flags the user set; a flag named log-level maps to the key
// log_level, and --format and --listen to output_format and listen_addr.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		keys := defaults()
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if _, ok := keys[key]; !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot use
func (c *Config) Validate() error {
	var problems []string
	if c.Workers <= 0 {
		problems = append(problems, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	switch c.OutputFormat {
	case FormatJSON, FormatYAML:
	default:
		problems = append(problems, fmt.Sprintf("output_format %q: want %s or %s", c.OutputFormat, FormatJSON, FormatYAML))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q: want json or console", c.LogFormat))
	}
	if c.ObjectCacheSize <= 0 {
		problems = append(problems, fmt.Sprintf("object_cache_size must be positive, got %d", c.ObjectCacheSize))
	}
	if c.MaxUploadMB <= 0 {
		problems = append(problems, fmt.Sprintf("max_upload_mb must be positive, got %d", c.MaxUploadMB))
	}
	if c.LineBandTolerance < 0 || c.SpaceGapRatio < 0 {
		problems = append(problems, "line_band_tolerance and space_gap_ratio must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LineConfig returns the aggregation parameters
func (c *Config) LineConfig() layout.LineConfig {
	cfg := layout.DefaultLineConfig()
	cfg.BandTolerance = c.LineBandTolerance
	cfg.SpaceGapRatio = c.SpaceGapRatio
	return cfg
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
