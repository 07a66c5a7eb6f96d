package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("got %+v, want defaults", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
max_upload_bytes: 1024
database_path: /tmp/study.db
session_ttl: 30m
allowed_origins: [https://a.example]
ocr:
  enabled: true
  timeout: 5s
  scanned_pdfs: true
  dpi: 150
  max_pages: 3
  max_concurrent: 4
`)
	t.Setenv("PORT", "7070")
	t.Setenv("OCR_SCANNED_PDFS", "false")
	t.Setenv("OCR_MAX_CONCURRENT", "1")
	t.Setenv("ALLOWED_ORIGINS", "https://b.example, https://c.example,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Port = %q, env should win", cfg.Port)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.OCR.Timeout != 5*time.Second || cfg.OCR.DPI != 150 || cfg.OCR.MaxPages != 3 {
		t.Errorf("OCR = %+v", cfg.OCR)
	}
	if cfg.OCR.ScannedPDFs {
		t.Error("OCR_SCANNED_PDFS=false should override the file")
	}
	if cfg.OCR.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, OCR_MAX_CONCURRENT should override the file", cfg.OCR.MaxConcurrent)
	}
	if want := []string{"https://b.example", "https://c.example"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.CachePath != "extract-cache.db" {
		t.Errorf("CachePath = %q, unset keys keep defaults", cfg.CachePath)
	}
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "jwt_secret: s3cret\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "port: [unclosed"},
		{name: "bad upload limit env", env: map[string]string{"MAX_UPLOAD_BYTES": "lots"}},
		{name: "bad duration env", env: map[string]string{"OCR_TIMEOUT": "soon"}},
		{name: "bad bool env", env: map[string]string{"OCR_ENABLED": "maybe"}},
		{name: "zero upload limit", file: "max_upload_bytes: 0"},
		{name: "negative upload env", env: map[string]string{"MAX_UPLOAD_BYTES": "-1"}},
		{name: "zero dpi with ocr", file: "ocr:\n  enabled: true\n  dpi: 0"},
		{name: "zero concurrency with ocr", env: map[string]string{"OCR_MAX_CONCURRENT": "0"}},
		{name: "bad concurrency env", env: map[string]string{"OCR_MAX_CONCURRENT": "many"}},
		{name: "empty port", env: map[string]string{"PORT": ""}},
		{name: "bad origin", env: map[string]string{"ALLOWED_ORIGINS": "localhost:3000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("Load() error = nil, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestValidate_DisabledOCRIgnoresEngineSettings(t *testing.T) {
	cfg := Default()
	cfg.OCR = OCRConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
