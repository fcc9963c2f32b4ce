package config

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Skryldev/photo-quality/errors"
)

// Backend selects the pixel decoder implementation.
type Backend string

const (
	BackendStdlib Backend = "stdlib"
	BackendVips   Backend = "vips"
)

// StorageBackend selects the storage adapter used to archive validated images.
type StorageBackend string

const (
	StorageNone  StorageBackend = "none"
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Worker pool controls.
	WorkerCount int           `mapstructure:"worker_count"` // default: runtime.NumCPU()
	QueueSize   int           `mapstructure:"queue_size"`   // max queued jobs before backpressure; default: 256
	JobTimeout  time.Duration `mapstructure:"job_timeout"`

	// Retry of transient archive failures.
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// Input limits.
	MaxImageBytes int64 `mapstructure:"max_image_bytes"` // 0 = no limit
	ChunkSize     int   `mapstructure:"chunk_size"`      // streaming chunk size in bytes; default 32 KiB

	Backend Backend `mapstructure:"backend"`

	// Storage.
	Storage StorageBackend `mapstructure:"storage"`
	Local   LocalConfig    `mapstructure:"local"`
	S3      S3Config       `mapstructure:"s3"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `mapstructure:"log_format"` // "json" or "console"

	Rules Rules `mapstructure:"rules"`
}

// LocalConfig configures the local filesystem storage adapter.
type LocalConfig struct {
	RootDir     string `mapstructure:"root_dir"`
	Permissions uint32 `mapstructure:"permissions"` // default 0644
}

// S3Config configures the AWS S3 storage adapter.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // optional custom endpoint (MinIO, etc.)
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		WorkerCount:   0, // resolved at runtime to NumCPU
		QueueSize:     256,
		JobTimeout:    30 * time.Second,
		MaxRetries:    3,
		RetryDelay:    200 * time.Millisecond,
		MaxImageBytes: 16 * 1024 * 1024,
		ChunkSize:     32 * 1024,
		Backend:       BackendStdlib,
		Storage:       StorageNone,
		Local: LocalConfig{
			RootDir:     "storage",
			Permissions: 0o644,
		},
		LogLevel:  "info",
		LogFormat: "json",
		Rules:     DefaultRules(),
	}
}

// Validate returns an error if the configuration is inconsistent.  Every
// returned error satisfies errors.IsInvalidConfig.
func Validate(c Config) error {
	if err := validateEngine(c); err != nil {
		return apperrors.InvalidConfig("config.validate", err)
	}
	return ValidateRules(c.Rules)
}

func validateEngine(c Config) error {
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("config: MaxRetries must not be negative")
	}
	switch c.Backend {
	case BackendStdlib, BackendVips:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Storage {
	case StorageNone:
	case StorageLocal:
		if c.Local.RootDir == "" {
			return errors.New("config: Local.RootDir is required for local storage")
		}
	case StorageS3:
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return errors.New("config: S3.Bucket and S3.Region are required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	return nil
}
