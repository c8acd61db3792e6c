package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Ingest struct {
		SaveDir      string        `koanf:"save_dir"`
		Workers      int           `koanf:"workers"`
		PollInterval time.Duration `koanf:"poll_interval"`
	} `koanf:"ingest"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "starledger.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/starledger.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/etc/starledger.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
	if NewLoader().envPrefix != DefaultEnvPrefix {
		t.Errorf("default envPrefix = %q", NewLoader().envPrefix)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
ingest:
  save_dir: "/saves"
  workers: 6
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("ingest.save_dir"); got != "/saves" {
		t.Errorf("ingest.save_dir = %q", got)
	}
	if got := l.GetInt("ingest.workers"); got != 6 {
		t.Errorf("ingest.workers = %d", got)
	}

	if err := l.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestLoader_LoadEnv_Nesting(t *testing.T) {
	t.Setenv("STARLEDGER_INGEST__SAVE_DIR", "/from/env")
	t.Setenv("STARLEDGER_LOG__LEVEL", "debug")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("ingest.save_dir"); got != "/from/env" {
		t.Errorf("ingest.save_dir = %q", got)
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
ingest:
  save_dir: "/from/file"
  workers: 2
  poll_interval: 45s
log:
  level: warn
`)
	t.Setenv("STARLEDGER_INGEST__SAVE_DIR", "/from/env")
	t.Setenv("STARLEDGER_LOG__LEVEL", "debug")

	l := NewLoader(WithConfigFile(path), WithOverrides(map[string]any{
		"log.level": "error",
	}))

	var cfg testConfig
	cfg.Ingest.Workers = 99
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load()")
	}

	if cfg.Ingest.SaveDir != "/from/env" {
		t.Errorf("SaveDir = %q, env should override file", cfg.Ingest.SaveDir)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, overrides should win", cfg.Log.Level)
	}
	if cfg.Ingest.Workers != 2 {
		t.Errorf("Workers = %d, want 2 from file", cfg.Ingest.Workers)
	}
	if cfg.Ingest.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.Ingest.PollInterval)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Ingest.Workers = 4
	cfg.Log.Level = "info"

	if err := NewLoader(WithEnvPrefix("STARLEDGER_TEST_UNUSED_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ingest.Workers != 4 || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"ingest.workers": 3, "log.level": "warn"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if l.GetInt("ingest.workers") != 3 || l.GetString("log.level") != "warn" {
		t.Errorf("Keys() = %v", l.Keys())
	}
	if _, err := mapProvider(nil).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}
