package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgconfig "github.com/starford/rollcall/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestHTTPConfig_InvalidPort(t *testing.T) {
	cfg := HTTPConfig{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("port above 65535 should fail validation")
	}
}

func TestHTTPConfig_CORSOrigins(t *testing.T) {
	cfg := HTTPConfig{Port: 8080, CORSOrigins: []string{"*", "http://localhost:5173"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid origins should pass: %v", err)
	}

	cfg.CORSOrigins = []string{""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty origin should fail validation")
	}
}

func TestSeedConfig_PathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Seed.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch missing seed path")
	}
}

func TestEventsConfig_NegativeThrottle(t *testing.T) {
	cfg := EventsConfig{SummaryThrottle: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative throttle should fail validation")
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("ROLLCALL_TEST_SEED", "/srv/seed")
	data := "app:\n  http:\n    port: 9090\nseed:\n  path: ${ROLLCALL_TEST_SEED}\n  watch: true\nevents:\n  summary_throttle: 500ms\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Seed.Path != "/srv/seed" || !cfg.Seed.Watch {
		t.Errorf("seed = %+v", cfg.Seed)
	}
	if cfg.Assets.Path != "./images" {
		t.Errorf("assets default lost: %q", cfg.Assets.Path)
	}
	if cfg.Events.SummaryThrottle != 500*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Events.SummaryThrottle)
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", cfg); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 || cfg.Seed.Path != "./seed" {
		t.Errorf("defaults changed: %+v", cfg)
	}
}

func TestLoadWithDefaults_FallbackFile(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "default.yaml")
	if err := os.WriteFile(fallback, []byte("app:\n  http:\n    port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(filepath.Join(dir, "missing.yaml"), fallback, cfg); err == nil {
		t.Fatal("fallback file with port 0 should fail validation")
	}
}
