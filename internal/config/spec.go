package config

import "time"

// Config is the root configuration of starledger.
type Config struct {
	Ingest  IngestSection  `koanf:"ingest" json:"ingest" yaml:"ingest"`
	Storage StorageSection `koanf:"storage" json:"storage" yaml:"storage"`
	History HistorySection `koanf:"history" json:"history" yaml:"history"`
	Names   NamesSection   `koanf:"names" json:"names" yaml:"names"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// IngestSection configures save discovery and the monitor.
type IngestSection struct {
	// SaveDir is the directory holding one subdirectory per game session.
	SaveDir string `koanf:"save_dir" json:"save_dir" yaml:"save_dir"`

	// Filter keeps only save files whose name, without extension, contains
	// it. Matching ignores case.
	Filter string `koanf:"filter" json:"filter" yaml:"filter"`

	// SessionPrefix keeps only sessions whose name starts with it.
	SessionPrefix string `koanf:"session_prefix" json:"session_prefix" yaml:"session_prefix"`

	// SkipSaves processes every (SkipSaves+1)th file of a session.
	// Default: 0 (every file)
	SkipSaves int `koanf:"skip_saves" json:"skip_saves" yaml:"skip_saves"`

	// Workers bounds the parallel read/parse/extract stage.
	// Default: number of CPUs
	Workers int `koanf:"workers" json:"workers" yaml:"workers"`

	// ProcessExisting makes the monitor ingest saves already present at
	// startup instead of marking them processed.
	ProcessExisting bool `koanf:"process_existing" json:"process_existing" yaml:"process_existing"`

	// PollInterval is the rescan period on top of file system events.
	// Default: 30s
	PollInterval time.Duration `koanf:"poll_interval" json:"poll_interval" yaml:"poll_interval"`

	// Debounce is the minimum time between two event-triggered rescans.
	// Default: 2s
	Debounce time.Duration `koanf:"debounce" json:"debounce" yaml:"debounce"`

	// ReadAttempts and RetryDelay control re-reading of archives that are
	// still being written.
	ReadAttempts int           `koanf:"read_attempts" json:"read_attempts" yaml:"read_attempts"`
	RetryDelay   time.Duration `koanf:"retry_delay" json:"retry_delay" yaml:"retry_delay"`

	// PlayerName picks the player country of multiplayer saves.
	PlayerName string `koanf:"player_name" json:"player_name" yaml:"player_name"`

	// LenientQuotes accepts unterminated quoted strings at end of input.
	LenientQuotes bool `koanf:"lenient_quotes" json:"lenient_quotes" yaml:"lenient_quotes"`
}

// StorageSection configures the history store.
type StorageSection struct {
	DataDir  string `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	InMemory bool   `koanf:"in_memory" json:"in_memory" yaml:"in_memory"`

	// SyncWrites fsyncs every commit.
	// Default: true
	SyncWrites bool `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`

	// GCInterval is the Badger value log GC period.
	// Default: 10m
	GCInterval string `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`

	// CompressSnapshots stores the last snapshot of each session with zstd.
	// Default: true
	CompressSnapshots bool `koanf:"compress_snapshots" json:"compress_snapshots" yaml:"compress_snapshots"`
}

// HistorySection configures the diff engine.
type HistorySection struct {
	// BudgetTolerance is the relative budget residual above which economy
	// rows are flagged approximate.
	BudgetTolerance float64 `koanf:"budget_tolerance" json:"budget_tolerance" yaml:"budget_tolerance"`

	// PopEvents enables pop created/removed events.
	PopEvents bool `koanf:"pop_events" json:"pop_events" yaml:"pop_events"`
}

// NamesSection lists localization files for name rendering.
type NamesSection struct {
	Files []string `koanf:"files" json:"files" yaml:"files"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr enables /metrics when set, e.g. "127.0.0.1:9464".
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
