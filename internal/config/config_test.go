package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to be valid: %v", err)
	}
	if cfg.IsProduction() {
		t.Error("expected development by default")
	}

	settings := cfg.Settings()
	if settings.FailurePolicy != qrcatalog.FailureBlank || settings.CellSize != qrcatalog.DefaultCellSize {
		t.Errorf("unexpected default settings %+v", settings)
	}
	if settings.Columns != qrcatalog.DefaultSheetColumns() {
		t.Errorf("unexpected default columns %+v", settings.Columns)
	}
	if cfg.Fetch.Timeout.Duration != qrcatalog.DefaultFetchTimeout {
		t.Errorf("expected %s timeout, got %s", qrcatalog.DefaultFetchTimeout, cfg.Fetch.Timeout)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qrcatalog.yaml")
	data := `
env: production
paths:
  output_dir: /srv/catalogs
catalog:
  failure_policy: skip
  workers: 4
  page_numbers: true
fetch:
  timeout: 30s
server:
  host: 0.0.0.0
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CATALOG_WORKERS", "2")
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_FALLBACK_CODE", "SIN-CODIGO")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production from the file")
	}
	if cfg.Paths.OutputDir != "/srv/catalogs" {
		t.Errorf("expected output dir from the file, got %s", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LabelDir != qrcatalog.NewDefaultConfig().LabelDir {
		t.Errorf("expected default label dir, got %s", cfg.Paths.LabelDir)
	}
	if cfg.Catalog.FailurePolicy != "skip" || !cfg.Catalog.PageNumbers {
		t.Errorf("unexpected catalog config %+v", cfg.Catalog)
	}
	if cfg.Catalog.Workers != 2 {
		t.Errorf("expected the environment to override workers, got %d", cfg.Catalog.Workers)
	}
	if cfg.Catalog.FallbackCode != "SIN-CODIGO" {
		t.Errorf("expected fallback code from the environment, got %s", cfg.Catalog.FallbackCode)
	}
	if cfg.Fetch.Timeout.Duration != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Fetch.Timeout)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("expected host from the file and port from the environment, got %s", cfg.Server.Addr())
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err != nil {
		t.Errorf("expected a missing file to fall back to defaults, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("fetch:\n  timeout: soon\n"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected an error for an invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "Unknown policy", modify: func(c *Config) { c.Catalog.FailurePolicy = "retry" }, errMsg: "FailurePolicy must be one of"},
		{name: "Zero cell size", modify: func(c *Config) { c.Catalog.CellSize = 0 }, errMsg: "CellSize must be greater than or equal to 1"},
		{name: "Blank fallback", modify: func(c *Config) { c.Catalog.FallbackCode = "  " }, errMsg: "FallbackCode must not be empty"},
		{name: "Port not a number", modify: func(c *Config) { c.Server.Port = "http" }, errMsg: "Port must be a number"},
		{name: "No upload size", modify: func(c *Config) { c.Server.MaxUploadMB = 0 }, errMsg: "MaxUploadMB must be greater than or equal to 1"},
		{name: "Minio without bucket", modify: func(c *Config) { c.Minio.ENABLED = true; c.Minio.BUCKET = "" }, errMsg: "BUCKET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected %q in %q", tt.errMsg, err.Error())
			}
		})
	}
}
