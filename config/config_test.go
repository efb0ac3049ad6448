package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate keeps the developer's environment and config dir out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") || name == "GEMINI_API_KEY" {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locode.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := Defaults()
	if cfg.Addr != d.Addr || cfg.Model != d.Model || cfg.MaxUpload != d.MaxUpload || cfg.SessionTTL != d.SessionTTL {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, d)
	}
	if cfg.StrictValidation || cfg.Mock || cfg.ConfigFile != "" {
		t.Fatalf("unexpected non-default values: %+v", cfg)
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "addr: \":7000\"\nmodel: file-model\nlog-level: warn\nsession-ttl: 5m\nstrict-validation: true\n")

	t.Setenv("LOCODE_MODEL", "env-model")
	t.Setenv("LOCODE_LOG_LEVEL", "debug")

	cfg, err := Load(newFlags(t, "--config", path, "--log-level", "error"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("Addr = %q, want file value", cfg.Addr)
	}
	if cfg.Model != "env-model" {
		t.Fatalf("Model = %q, want env value", cfg.Model)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("LogLevel = %q, want flag value", cfg.LogLevel)
	}
	if cfg.SessionTTL != 5*time.Minute || !cfg.StrictValidation {
		t.Fatalf("SessionTTL = %s, StrictValidation = %v", cfg.SessionTTL, cfg.StrictValidation)
	}
}

func TestLoad_APIKeySources(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "from-gemini")
	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-gemini" {
		t.Fatalf("APIKey = %q, want GEMINI_API_KEY value", cfg.APIKey)
	}

	t.Setenv("LOCODE_API_KEY", "from-locode")
	cfg, _ = Load(newFlags(t))
	if cfg.APIKey != "from-locode" {
		t.Fatalf("APIKey = %q, want LOCODE_API_KEY value", cfg.APIKey)
	}

	cfg, _ = Load(newFlags(t, "--api-key", "from-flag"))
	if cfg.APIKey != "from-flag" {
		t.Fatalf("APIKey = %q, want flag value", cfg.APIKey)
	}
}

func TestLoad_DefaultConfigFile(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "locode")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "locode.yaml"), []byte("mock: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Mock {
		t.Fatal("Mock = false, want value from default config file")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("Validate() = %v, want API key error", err)
	}

	cfg.Mock = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(mock) = %v", err)
	}

	cfg = Defaults()
	cfg.APIKey = "k"
	cfg.MaxUpload = 0
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max-upload") || !strings.Contains(err.Error(), "log format") {
		t.Fatalf("Validate() = %v", err)
	}
}
