package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/cryptox"
	"github.com/spf13/pflag"
)

const (
	BlobBackendFS = "fs"
	BlobBackendS3 = "s3"
)

// Config holds runtime settings for the dripvault CLI and engine.
//
// DatabaseDSN empty means a SQLite file inside VaultDir; a postgres:// URL
// selects PostgreSQL. BlobDir empty means <VaultDir>/blobs.
type Config struct {
	VaultDir    string `env:"VAULT_DIR"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	BlobBackend    string `env:"BLOB_BACKEND"`
	BlobDir        string `env:"BLOB_DIR"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Prefix       string `env:"S3_PREFIX"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE"`

	TempDir string `env:"TEMP_DIR"`

	DailyLimit    int    `env:"DAILY_LIMIT"`
	DayStartHour  int    `env:"DAY_START_HOUR"`
	Timezone      string `env:"TIMEZONE"`
	KDFIterations int    `env:"KDF_ITERATIONS"`

	LogLevel string `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.VaultDir = defaultVaultDir()
	c.BlobBackend = BlobBackendFS
	c.TempDir = os.TempDir()
	c.DailyLimit = 7
	c.DayStartHour = 7
	c.Timezone = "Local"
	c.KDFIterations = cryptox.DefaultIterations
	c.LogLevel = "warn"
}

// Load builds a Config from defaults, the JSON file named by the "config"
// flag (or DRIPVAULT_CONFIG), the environment and the flags in fs that were
// set explicitly. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path := os.Getenv(envPrefix + "CONFIG")
	if fs != nil {
		if f := fs.Lookup(flagConfig); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.VaultDir == "" && (c.DatabaseDSN == "" || c.BlobDir == "") {
		errs = append(errs, errors.New("vault dir is required"))
	}
	switch c.BlobBackend {
	case BlobBackendFS:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required for the s3 blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob backend %q", c.BlobBackend))
	}
	if c.DailyLimit < 1 {
		errs = append(errs, fmt.Errorf("daily limit must be positive, got %d", c.DailyLimit))
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		errs = append(errs, fmt.Errorf("day start hour must be within 0..23, got %d", c.DayStartHour))
	}
	if c.KDFIterations < 1 {
		errs = append(errs, fmt.Errorf("kdf iterations must be positive, got %d", c.KDFIterations))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DSN returns the database DSN, defaulting to <VaultDir>/vault.db.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return filepath.Join(c.VaultDir, "vault.db")
}

// BlobDirectory returns the fs blob directory, defaulting to <VaultDir>/blobs.
func (c *Config) BlobDirectory() string {
	if c.BlobDir != "" {
		return c.BlobDir
	}
	return filepath.Join(c.VaultDir, "blobs")
}

// Location resolves Timezone; "" and "Local" mean the system zone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", tz, err)
	}
	return loc, nil
}

func defaultVaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dripvault")
	}
	return ".dripvault"
}
