// Package config provides configuration management for the status generator.
package config

import (
	"path/filepath"
	"time"
)

// Account sources supported by the collector.
const (
	SourceSQLite = "sqlite" // read account.sqlite and actor stores directly
	SourceXRPC   = "xrpc"   // page through com.atproto.sync.listRepos
)

// Config is the root configuration structure.
type Config struct {
	Service    ServiceConfig    `mapstructure:"service" yaml:"service"`
	Host       HostConfig       `mapstructure:"host" yaml:"host"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Report     ReportConfig     `mapstructure:"report" yaml:"report"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Run        RunConfig        `mapstructure:"run" yaml:"run"`
}

// ServiceConfig describes where the PDS keeps its data and how to enumerate accounts.
type ServiceConfig struct {
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	EnvFile   string `mapstructure:"env_file" yaml:"env_file"`     // pds.env, relative to data_dir
	AccountDB string `mapstructure:"account_db" yaml:"account_db"` // relative to data_dir
	ActorsDir string `mapstructure:"actors_dir" yaml:"actors_dir"` // relative to data_dir
	BlocksDir string `mapstructure:"blocks_dir" yaml:"blocks_dir"` // relative to data_dir
	Hostname  string `mapstructure:"hostname" yaml:"hostname"`

	Source   string        `mapstructure:"source" yaml:"source" validate:"oneof=sqlite xrpc"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"` // per HTTP request

	EnumerationTimeout time.Duration `mapstructure:"enumeration_timeout" yaml:"enumeration_timeout"`
	MaxAccounts        int           `mapstructure:"max_accounts" yaml:"max_accounts" validate:"gte=1"`
	Concurrency        int           `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1,lte=64"`
}

// HostConfig controls host sampling.
type HostConfig struct {
	CPUSampleInterval time.Duration `mapstructure:"cpu_sample_interval" yaml:"cpu_sample_interval"`
	NetworkInterface  string        `mapstructure:"network_interface" yaml:"network_interface"`
	DiskPath          string        `mapstructure:"disk_path" yaml:"disk_path"` // defaults to service.data_dir
}

// ThresholdsConfig contains the levels used to color host metrics.
type ThresholdsConfig struct {
	CPUUsage    ThresholdPair `mapstructure:"cpu_usage" yaml:"cpu_usage"`
	MemoryUsage ThresholdPair `mapstructure:"memory_usage" yaml:"memory_usage"`
	DiskUsage   ThresholdPair `mapstructure:"disk_usage" yaml:"disk_usage"`
}

// ThresholdPair defines warning and critical thresholds for a metric.
type ThresholdPair struct {
	Warning  float64 `mapstructure:"warning" yaml:"warning" validate:"gte=0,lte=100"`
	Critical float64 `mapstructure:"critical" yaml:"critical" validate:"gte=0,lte=100"`
}

// ReportConfig contains configurations for report generation.
type ReportConfig struct {
	Output       string `mapstructure:"output" yaml:"output" validate:"required"`
	ExcelOutput  string `mapstructure:"excel_output" yaml:"excel_output"`
	Title        string `mapstructure:"title" yaml:"title"`
	HTMLTemplate string `mapstructure:"html_template" yaml:"html_template"`
	Timezone     string `mapstructure:"timezone" yaml:"timezone" validate:"timezone"`
	FileMode     string `mapstructure:"file_mode" yaml:"file_mode" validate:"filemode"`
	ShowAccounts bool   `mapstructure:"show_accounts" yaml:"show_accounts"`
}

// LoggingConfig contains configurations for logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// HTTPConfig contains HTTP client configurations including retry settings.
type HTTPConfig struct {
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

// RunConfig bounds a single invocation.
type RunConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	StaleTempAge time.Duration `mapstructure:"stale_temp_age" yaml:"stale_temp_age"`
}

// AccountDBPath returns the absolute location of the account database.
func (s *ServiceConfig) AccountDBPath() string {
	return s.resolve(s.AccountDB)
}

// ActorsPath returns the root of the per-account actor stores.
func (s *ServiceConfig) ActorsPath() string {
	return s.resolve(s.ActorsDir)
}

// BlocksPath returns the root of the per-account blob directories.
func (s *ServiceConfig) BlocksPath() string {
	return s.resolve(s.BlocksDir)
}

// EnvFilePath returns the location of the PDS environment file, or "" if unset.
func (s *ServiceConfig) EnvFilePath() string {
	if s.EnvFile == "" {
		return ""
	}
	return s.resolve(s.EnvFile)
}

func (s *ServiceConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataDir, p)
}
