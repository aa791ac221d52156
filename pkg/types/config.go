package types

import "time"

// Config selects and parameterizes the storage backend and the write-behind
// persistence layer.
type Config struct {
	Backend     string            `json:"backend" yaml:"backend"`
	DataDir     string            `json:"data_dir" yaml:"data_dir"`
	PostgresDSN string            `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
	Images      ImagesConfig      `json:"images" yaml:"images"`
}

// Supported backend names.
const (
	BackendWorkspace = "workspace"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
)

// Persistence modes.
const (
	// ModeDeferred queues operations and flushes them periodically.
	ModeDeferred = "deferred"
	// ModeImmediate persists every operation as it is recorded.
	ModeImmediate = "immediate"
	// ModeDisabled drops every operation (tutorial projects).
	ModeDisabled = "disabled"
)

// Image drivers.
const (
	ImagesFilesystem = "fs"
	ImagesS3         = "s3"
	ImagesMemory     = "memory"
)

// Defaults applied by the CLI when the config file leaves a value unset.
const (
	DefaultFlushInterval    = 60 * time.Second
	DefaultShutdownAttempts = 30
	DefaultShutdownDelay    = time.Second
)

// PersistenceConfig tunes the flush scheduler.
type PersistenceConfig struct {
	Mode             string        `json:"mode" yaml:"mode"`
	FlushInterval    time.Duration `json:"flush_interval" yaml:"flush_interval"`
	ShutdownAttempts int           `json:"shutdown_attempts" yaml:"shutdown_attempts"`
	ShutdownDelay    time.Duration `json:"shutdown_delay" yaml:"shutdown_delay"`
}

// ImagesConfig selects where character avatars are stored.
type ImagesConfig struct {
	Driver string   `json:"driver" yaml:"driver"`
	S3     S3Config `json:"s3" yaml:"s3"`
}

// S3Config addresses an S3 or MinIO bucket.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
}

var knownBackends = map[string]bool{
	BackendWorkspace: true,
	BackendSQLite:    true,
	BackendPostgres:  true,
}

var knownModes = map[string]bool{
	"":            true,
	ModeDeferred:  true,
	ModeImmediate: true,
	ModeDisabled:  true,
}

var knownImageDrivers = map[string]bool{
	"":               true,
	ImagesFilesystem: true,
	ImagesS3:         true,
	ImagesMemory:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.PostgresDSN == "" {
		return ErrDSNEmpty
	}
	if !knownModes[c.Persistence.Mode] {
		return ErrModeUnknown
	}
	if c.Persistence.FlushInterval < 0 {
		return ErrFlushIntervalNeg
	}
	if c.Persistence.ShutdownAttempts < 0 || c.Persistence.ShutdownDelay < 0 {
		return ErrShutdownBudget
	}
	if !knownImageDrivers[c.Images.Driver] {
		return ErrImageDriverUnknown
	}
	if c.Images.Driver == ImagesS3 && c.Images.S3.Bucket == "" {
		return ErrImageBucketRequired
	}
	return nil
}
