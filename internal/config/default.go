package config

import (
	"runtime"
	"time"
)

// Default configuration values.
const (
	DefaultDataDir      = "starledger-data"
	DefaultPollInterval = 30 * time.Second
	DefaultDebounce     = 2 * time.Second
	DefaultReadAttempts = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	DefaultGCInterval   = "10m"

	DefaultBudgetTolerance = 0.05

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Ingest: IngestSection{
			Workers:      runtime.NumCPU(),
			PollInterval: DefaultPollInterval,
			Debounce:     DefaultDebounce,
			ReadAttempts: DefaultReadAttempts,
			RetryDelay:   DefaultRetryDelay,
		},
		Storage: StorageSection{
			DataDir:           DefaultDataDir,
			SyncWrites:        true,
			GCInterval:        DefaultGCInterval,
			CompressSnapshots: true,
		},
		History: HistorySection{
			BudgetTolerance: DefaultBudgetTolerance,
			PopEvents:       true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
