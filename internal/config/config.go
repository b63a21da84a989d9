package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config models auditline.yml.
type Config struct {
	Service struct {
		Timezone    string `yaml:"timezone"`
		SandboxMode bool   `yaml:"sandbox_mode"`
		BasePath    string `yaml:"base_path"`
		LogLevel    string `yaml:"log_level"`
	} `yaml:"service"`
	Periods Periods `yaml:"periods"`
	Calendar struct {
		File    string          `yaml:"file"`
		Version string          `yaml:"version"`
		Days    map[string]bool `yaml:"days"`
		Short   []string        `yaml:"short"`
	} `yaml:"calendar"`
	DocService struct {
		URL     string `yaml:"url"`
		KeySeed string `yaml:"key_seed"`
	} `yaml:"docservice"`
	Tenders struct {
		URL     string `yaml:"url"`
		Token   string `yaml:"token"`
		Timeout string `yaml:"timeout"`
	} `yaml:"tenders"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Periods are counted in working days.
type Periods struct {
	MonitoringTime                int `yaml:"monitoring_time"`
	MonitoringEndPeriod           int `yaml:"monitoring_end_period"`
	EliminationPeriod             int `yaml:"elimination_period"`
	EliminationPeriodNoViolations int `yaml:"elimination_period_no_violations"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with auditline config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.service.timezone: %w", err)
	}
	periods := map[string]int{
		"monitoring_time":                  c.Periods.MonitoringTime,
		"monitoring_end_period":            c.Periods.MonitoringEndPeriod,
		"elimination_period":               c.Periods.EliminationPeriod,
		"elimination_period_no_violations": c.Periods.EliminationPeriodNoViolations,
	}
	for name, days := range periods {
		if days <= 0 {
			return fmt.Errorf("config.periods.%s must be positive", name)
		}
	}
	if c.Periods.MonitoringEndPeriod < c.Periods.MonitoringTime {
		return fmt.Errorf("config.periods.monitoring_end_period must not be shorter than monitoring_time")
	}
	for d := range c.Calendar.Days {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("config.calendar.days has invalid date %q", d)
		}
	}
	if c.DocService.URL == "" {
		return fmt.Errorf("config.docservice.url is required")
	}
	if _, err := url.Parse(c.DocService.URL); err != nil {
		return fmt.Errorf("config.docservice.url: %w", err)
	}
	if c.DocService.KeySeed != "" {
		seed, err := hex.DecodeString(c.DocService.KeySeed)
		if err != nil || len(seed) != 32 {
			return fmt.Errorf("config.docservice.key_seed must be 64 hex characters")
		}
	}
	if c.Tenders.Timeout != "" {
		if _, err := time.ParseDuration(c.Tenders.Timeout); err != nil {
			return fmt.Errorf("config.tenders.timeout: %w", err)
		}
	}
	return nil
}

// Location returns the timezone deadlines are computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Service.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Service.Timezone)
}

// TendersTimeout returns the tenders API request timeout.
func (c *Config) TendersTimeout() time.Duration {
	d, err := time.ParseDuration(c.Tenders.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "auditline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the default config if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
// Keys absent from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `service:
  timezone: Europe/Kiev
  sandbox_mode: false
  base_path: /api/2.4
  log_level: info

periods:
  monitoring_time: 15
  monitoring_end_period: 30
  elimination_period: 10
  elimination_period_no_violations: 3

calendar:
  # file: working_days.yml
  version: builtin
  days:
    "2018-01-01": true
    "2018-01-08": true
    "2018-03-08": true
    "2018-04-09": true
    "2018-05-01": true
    "2018-05-09": true
    "2018-05-28": true
    "2018-06-28": true
    "2018-08-24": true
    "2018-10-15": true
    "2018-12-25": true

docservice:
  url: http://localhost:6543

tenders:
  url: http://localhost:6543/api/2.4
  timeout: 10s
`
