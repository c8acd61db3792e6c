package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"
)

// Verify validates the configuration. requireSaveDir is set by commands
// that read save files.
func Verify(cfg *Config, requireSaveDir bool) error {
	if err := verifyIngest(&cfg.Ingest, requireSaveDir); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if cfg.History.BudgetTolerance < 0 {
		return errors.New("history.budget_tolerance must not be negative")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log.format %q is not json or text", cfg.Log.Format)
	}
	return nil
}

func verifyIngest(cfg *IngestSection, requireSaveDir bool) error {
	if requireSaveDir {
		if cfg.SaveDir == "" {
			return errors.New("ingest.save_dir is required")
		}
		info, err := os.Stat(cfg.SaveDir)
		if err != nil {
			return fmt.Errorf("ingest.save_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("ingest.save_dir %s is not a directory", cfg.SaveDir)
		}
	}
	if cfg.Workers < 1 {
		return errors.New("ingest.workers must be at least 1")
	}
	if cfg.SkipSaves < 0 {
		return errors.New("ingest.skip_saves must not be negative")
	}
	if cfg.ReadAttempts < 1 {
		return errors.New("ingest.read_attempts must be at least 1")
	}
	if cfg.PollInterval < time.Second {
		return errors.New("ingest.poll_interval must be at least 1s")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	if _, err := time.ParseDuration(cfg.GCInterval); err != nil {
		return fmt.Errorf("storage.gc_interval: %w", err)
	}
	return nil
}
