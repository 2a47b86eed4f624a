// Package config provides configuration management for the status generator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PDSSTATUS"

// Load reads configuration from the specified YAML file and environment variables,
// fills service fields from the PDS env file and validates the result.
// Environment variables take precedence over file values.
// Environment variable format: PDSSTATUS_<SECTION>_<KEY> (e.g., PDSSTATUS_SERVICE_DATA_DIR).
// An empty configPath loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if _, err := ApplyServiceEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read loads defaults, the optional YAML file and environment overrides
// without validating. Callers that override fields afterwards must call
// ApplyServiceEnv and Validate themselves.
func Read(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options. Every key
// needs one, even if empty, or AutomaticEnv will not see its variable.
func setDefaults(v *viper.Viper) {
	// Service defaults follow the stock PDS layout under /pds
	v.SetDefault("service.data_dir", "/pds")
	v.SetDefault("service.env_file", "pds.env")
	v.SetDefault("service.account_db", "account.sqlite")
	v.SetDefault("service.actors_dir", "actors")
	v.SetDefault("service.blocks_dir", "blocks")
	v.SetDefault("service.hostname", "")
	v.SetDefault("service.endpoint", "")
	v.SetDefault("service.source", SourceSQLite)
	v.SetDefault("service.timeout", 10*time.Second)
	v.SetDefault("service.enumeration_timeout", 30*time.Second)
	v.SetDefault("service.max_accounts", 10000)
	v.SetDefault("service.concurrency", 4)

	// Host defaults
	v.SetDefault("host.cpu_sample_interval", 1*time.Second)
	v.SetDefault("host.network_interface", "eth0")
	v.SetDefault("host.disk_path", "")

	// Thresholds defaults
	v.SetDefault("thresholds.cpu_usage.warning", 70.0)
	v.SetDefault("thresholds.cpu_usage.critical", 90.0)
	v.SetDefault("thresholds.memory_usage.warning", 80.0)
	v.SetDefault("thresholds.memory_usage.critical", 95.0)
	v.SetDefault("thresholds.disk_usage.warning", 80.0)
	v.SetDefault("thresholds.disk_usage.critical", 90.0)

	// Report defaults
	v.SetDefault("report.output", "status.html")
	v.SetDefault("report.excel_output", "")
	v.SetDefault("report.html_template", "")
	v.SetDefault("report.title", "Server Status")
	v.SetDefault("report.timezone", "UTC")
	v.SetDefault("report.file_mode", "0644")
	v.SetDefault("report.show_accounts", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// HTTP retry defaults
	v.SetDefault("http.retry.max_retries", 2)
	v.SetDefault("http.retry.base_delay", 500*time.Millisecond)

	// Run defaults
	v.SetDefault("run.timeout", 2*time.Minute)
	v.SetDefault("run.stale_temp_age", 1*time.Hour)
}

// ApplyServiceEnv reads the PDS environment file (dotenv format) and fills
// service fields that are still empty: the public hostname from PDS_HOSTNAME
// and a loopback endpoint from PDS_PORT. It reports whether a file was read.
// A missing file is not an error.
func ApplyServiceEnv(cfg *Config) (bool, error) {
	path := cfg.Service.EnvFilePath()
	if path == "" {
		return false, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	if cfg.Service.Hostname == "" {
		cfg.Service.Hostname = v.GetString("pds_hostname")
	}
	if cfg.Service.Endpoint == "" {
		if port := v.GetString("pds_port"); port != "" {
			cfg.Service.Endpoint = "http://localhost:" + port
		}
	}

	return true, nil
}
