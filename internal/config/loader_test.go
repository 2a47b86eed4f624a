// Package config provides configuration management for the status generator.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig writes content to a temporary YAML file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeTempConfig(t, `
service:
  data_dir: "/srv/pds"
report:
  output: "/var/www/status/index.html"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify required values
	if cfg.Service.DataDir != "/srv/pds" {
		t.Errorf("DataDir = %v, want /srv/pds", cfg.Service.DataDir)
	}
	if cfg.Report.Output != "/var/www/status/index.html" {
		t.Errorf("Output = %v, want /var/www/status/index.html", cfg.Report.Output)
	}

	// Verify defaults
	if cfg.Service.Source != SourceSQLite {
		t.Errorf("Source = %v, want sqlite", cfg.Service.Source)
	}
	if cfg.Service.EnumerationTimeout != 30*time.Second {
		t.Errorf("EnumerationTimeout = %v, want 30s", cfg.Service.EnumerationTimeout)
	}
	if cfg.Service.MaxAccounts != 10000 {
		t.Errorf("MaxAccounts = %v, want 10000", cfg.Service.MaxAccounts)
	}
	if cfg.Host.NetworkInterface != "eth0" {
		t.Errorf("NetworkInterface = %v, want eth0", cfg.Host.NetworkInterface)
	}
	if cfg.Report.FileModeValue() != 0o644 {
		t.Errorf("FileMode = %o, want 644", cfg.Report.FileModeValue())
	}
	if cfg.Run.Timeout != 2*time.Minute {
		t.Errorf("Run.Timeout = %v, want 2m", cfg.Run.Timeout)
	}
	if got := cfg.Service.AccountDBPath(); got != "/srv/pds/account.sqlite" {
		t.Errorf("AccountDBPath() = %v, want /srv/pds/account.sqlite", got)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Service.DataDir != "/pds" {
		t.Errorf("DataDir = %v, want /pds", cfg.Service.DataDir)
	}
	if cfg.Report.Output != "status.html" {
		t.Errorf("Output = %v, want status.html", cfg.Report.Output)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeTempConfig(t, `
service:
  source: "ftp"
report:
  file_mode: "rw-r--r--"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail validation")
	}
	for _, want := range []string{"service.source", "report.file_mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %s", want, err.Error())
		}
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeTempConfig(t, `
service:
  data_dir: "/from/file"
`)

	t.Setenv("PDSSTATUS_SERVICE_DATA_DIR", "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment variable should override file value
	if cfg.Service.DataDir != "/from/env" {
		t.Errorf("DataDir = %v, want /from/env (env override)", cfg.Service.DataDir)
	}
}

func TestLoad_EnvironmentOnlyKeys(t *testing.T) {
	t.Setenv("PDSSTATUS_SERVICE_ENDPOINT", "http://10.0.0.9:2583")
	t.Setenv("PDSSTATUS_SERVICE_HOSTNAME", "pds.example.org")
	t.Setenv("PDSSTATUS_REPORT_EXCEL_OUTPUT", "/var/www/status.xlsx")
	t.Setenv("PDSSTATUS_REPORT_HTML_TEMPLATE", "/etc/pds-status/page.html")
	t.Setenv("PDSSTATUS_HOST_DISK_PATH", "/srv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := map[string][2]string{
		"service.endpoint":     {cfg.Service.Endpoint, "http://10.0.0.9:2583"},
		"service.hostname":     {cfg.Service.Hostname, "pds.example.org"},
		"report.excel_output":  {cfg.Report.ExcelOutput, "/var/www/status.xlsx"},
		"report.html_template": {cfg.Report.HTMLTemplate, "/etc/pds-status/page.html"},
		"host.disk_path":       {cfg.Host.DiskPath, "/srv"},
	}
	for key, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", key, c[0], c[1])
		}
	}
}

func TestLoad_XRPCEndpointFromEnvFile(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "pds.env"), []byte("PDS_PORT=3000\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	path := writeTempConfig(t, `
service:
  data_dir: "`+dataDir+`"
  source: xrpc
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Endpoint != "http://localhost:3000" {
		t.Errorf("Endpoint = %q, want http://localhost:3000", cfg.Service.Endpoint)
	}
}

func TestRead_DoesNotValidate(t *testing.T) {
	path := writeTempConfig(t, `
service:
  source: xrpc
`)

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Service.Source != SourceXRPC {
		t.Errorf("Source = %q, want xrpc", cfg.Service.Source)
	}
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error without endpoint")
	}
}

func TestApplyServiceEnv(t *testing.T) {
	dataDir := t.TempDir()
	env := "PDS_HOSTNAME=pds.example.com\nPDS_PORT=3000\nPDS_DATA_DIRECTORY=/pds\n"
	if err := os.WriteFile(filepath.Join(dataDir, "pds.env"), []byte(env), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Run("fills empty fields", func(t *testing.T) {
		cfg := newValidConfig()
		cfg.Service.DataDir = dataDir
		cfg.Service.EnvFile = "pds.env"

		loaded, err := ApplyServiceEnv(cfg)
		if err != nil {
			t.Fatalf("ApplyServiceEnv() error = %v", err)
		}
		if !loaded {
			t.Fatal("expected env file to be loaded")
		}
		if cfg.Service.Hostname != "pds.example.com" {
			t.Errorf("Hostname = %q, want pds.example.com", cfg.Service.Hostname)
		}
		if cfg.Service.Endpoint != "http://localhost:3000" {
			t.Errorf("Endpoint = %q, want http://localhost:3000", cfg.Service.Endpoint)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := newValidConfig()
		cfg.Service.DataDir = dataDir
		cfg.Service.EnvFile = "pds.env"
		cfg.Service.Endpoint = "http://10.0.0.2:2583"

		if _, err := ApplyServiceEnv(cfg); err != nil {
			t.Fatalf("ApplyServiceEnv() error = %v", err)
		}
		if cfg.Service.Endpoint != "http://10.0.0.2:2583" {
			t.Errorf("Endpoint = %q, want explicit value kept", cfg.Service.Endpoint)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		cfg := newValidConfig()
		cfg.Service.DataDir = t.TempDir()
		cfg.Service.EnvFile = "pds.env"

		loaded, err := ApplyServiceEnv(cfg)
		if err != nil {
			t.Fatalf("ApplyServiceEnv() error = %v", err)
		}
		if loaded {
			t.Error("expected loaded = false for missing file")
		}
	})
}

func TestDump(t *testing.T) {
	cfg := newValidConfig()

	var buf bytes.Buffer
	if err := Dump(cfg, &buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"data_dir: /pds", "enumeration_timeout: 30s", "output: status.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump should contain %q, got:\n%s", want, out)
		}
	}
}
