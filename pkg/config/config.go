package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Store   StoreConfig   `yaml:"store" json:"store" jsonschema:"description=Remote signal store"`
	Report  ReportConfig  `yaml:"report" json:"report" jsonschema:"description=Generated report"`
	Preview PreviewConfig `yaml:"preview" json:"preview" jsonschema:"description=Optional preview server"`
}

// StoreConfig defines access to the remote tabular store
type StoreConfig struct {
	URL     string        `yaml:"url" json:"url" jsonschema:"description=Base URL of the store (SIGNALS_URL)"`
	Key     string        `yaml:"key" json:"key" jsonschema:"description=Access key sent as apikey and bearer token (SIGNALS_KEY)"`
	Table   string        `yaml:"table" json:"table" jsonschema:"default=signals,description=Table to read signals from"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Request timeout, zero keeps the client default"`
}

// ReportConfig defines the generated dashboard
type ReportConfig struct {
	Output   string `yaml:"output" json:"output" jsonschema:"default=index.html,description=Output html file"`
	Title    string `yaml:"title" json:"title" jsonschema:"default=BuySignal AI - Reddit Buying Intent Dashboard,description=Page title and heading"`
	PageSize int    `yaml:"page_size" json:"page_size" jsonschema:"default=20,minimum=1,description=Rows per page in the table widget"`
	Notice   string `yaml:"notice" json:"notice" jsonschema:"description=Optional html notice shown above the table (sanitized)"`
	RSS      string `yaml:"rss" json:"rss" jsonschema:"description=Optional RSS companion feed file"`
	BaseURL  string `yaml:"base_url" json:"base_url" jsonschema:"description=Public URL of the report, used for RSS links"`
}

// PreviewConfig defines the preview server
type PreviewConfig struct {
	Listen  string        `yaml:"listen" json:"listen" jsonschema:"description=Listen address, empty disables preview"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Preview server read/write timeout"`
}

// Error is a configuration error, reported before any network call
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

// Load reads configuration from a YAML file. Empty path returns defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.SetDefaults()

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		log.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

// SetDefaults fills unset values
func (c *Config) SetDefaults() {
	if c.Store.Table == "" {
		c.Store.Table = "signals"
	}
	if c.Report.Output == "" {
		c.Report.Output = "index.html"
	}
	if c.Report.Title == "" {
		c.Report.Title = "BuySignal AI - Reddit Buying Intent Dashboard"
	}
	if c.Report.PageSize == 0 {
		c.Report.PageSize = 20
	}
	if c.Preview.Timeout == 0 {
		c.Preview.Timeout = 30 * time.Second
	}
}

// Validate checks configuration for correctness. Store url and key are required, missing values
// are reported as *Error.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.URL == "" {
		errs = append(errs, &Error{Field: "store.url", Msg: "is required (set SIGNALS_URL or --url)"})
	}
	if c.Store.Key == "" {
		errs = append(errs, &Error{Field: "store.key", Msg: "is required (set SIGNALS_KEY or --key)"})
	}
	if c.Store.Timeout < 0 {
		errs = append(errs, &Error{Field: "store.timeout", Msg: "must not be negative"})
	}
	if c.Report.PageSize < 1 {
		errs = append(errs, &Error{Field: "report.page_size", Msg: "must be at least 1"})
	}
	if c.Report.Output == "" {
		errs = append(errs, &Error{Field: "report.output", Msg: "is required"})
	}
	if c.Preview.Listen != "" && c.Preview.Timeout < time.Second {
		errs = append(errs, &Error{Field: "preview.timeout", Msg: "must be at least 1 second"})
	}
	return errors.Join(errs...)
}

// GetServerConfig returns preview server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Preview.Listen, c.Preview.Timeout
}
