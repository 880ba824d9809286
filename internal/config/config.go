package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default report period. The consolidated group report is pinned to a single
// month; override it in the config file or via flags.
const (
	DefaultFromDate = "2021-12-01"
	DefaultToDate   = "2021-12-31"
)

// Config carries everything the web app and the CLI need to talk to Xero and
// to persist run artifacts.
type Config struct {
	Xero struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"`
		Scopes       []string `yaml:"scopes"`
	} `yaml:"xero"`

	Report struct {
		FromDate string `yaml:"from_date"` // YYYY-MM-DD
		ToDate   string `yaml:"to_date"`   // YYYY-MM-DD
	} `yaml:"report"`

	Artifacts struct {
		Dir    string `yaml:"dir"`
		Bucket string `yaml:"bucket"` // optional GCS mirror
	} `yaml:"artifacts"`

	BigQuery struct {
		Project string `yaml:"project"` // empty disables the sink
		Dataset string `yaml:"dataset"`
	} `yaml:"bigquery"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	TokenFile string `yaml:"token_file"`
}

// Load reads the YAML config file at path, applies defaults, and lets
// environment variables override the Xero credentials so secrets can stay out
// of the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		// A missing file is fine, everything can come from env and defaults.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if cfg.Xero.ClientID == "" || cfg.Xero.ClientSecret == "" {
		return nil, fmt.Errorf("xero client_id and client_secret are required (config file or XERO_CLIENT_ID / XERO_CLIENT_SECRET)")
	}
	if _, _, err := cfg.ReportPeriod(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Report.FromDate == "" {
		c.Report.FromDate = DefaultFromDate
	}
	if c.Report.ToDate == "" {
		c.Report.ToDate = DefaultToDate
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "."
	}
	if c.BigQuery.Dataset == "" {
		c.BigQuery.Dataset = "pnl"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.TokenFile == "" {
		c.TokenFile = "xero_token.json"
	}
	if c.Xero.RedirectURL == "" {
		c.Xero.RedirectURL = "http://localhost:" + c.Server.Port + "/callback"
	}
	if len(c.Xero.Scopes) == 0 {
		c.Xero.Scopes = []string{
			"offline_access", "openid", "profile", "email",
			"accounting.transactions", "accounting.reports.read",
			"accounting.journals.read", "accounting.settings",
			"accounting.contacts", "accounting.attachments",
			"assets", "projects",
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("XERO_CLIENT_ID"); v != "" {
		c.Xero.ClientID = v
	}
	if v := os.Getenv("XERO_CLIENT_SECRET"); v != "" {
		c.Xero.ClientSecret = v
	}
	if v := os.Getenv("GCS_BUCKET"); v != "" {
		c.Artifacts.Bucket = v
	}
	if v := os.Getenv("BIGQUERY_PROJECT"); v != "" {
		c.BigQuery.Project = v
	}
}

// ReportPeriod parses the configured date range.
func (c *Config) ReportPeriod() (from, to time.Time, err error) {
	from, err = time.Parse("2006-01-02", c.Report.FromDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report from_date %q: %w", c.Report.FromDate, err)
	}
	to, err = time.Parse("2006-01-02", c.Report.ToDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report to_date %q: %w", c.Report.ToDate, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("report to_date %s is before from_date %s", c.Report.ToDate, c.Report.FromDate)
	}
	return from, to, nil
}
