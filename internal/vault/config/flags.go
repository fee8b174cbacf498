package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared with the CLI.
const (
	flagConfig       = "config"
	flagVaultDir     = "vault-dir"
	flagDatabaseDSN  = "database-dsn"
	flagBlobBackend  = "blob-backend"
	flagBlobDir      = "blob-dir"
	flagS3Bucket     = "s3-bucket"
	flagS3Endpoint   = "s3-endpoint"
	flagS3Region     = "s3-region"
	flagTempDir      = "temp-dir"
	flagDailyLimit   = "daily-limit"
	flagDayStartHour = "day-start-hour"
	flagTimezone     = "timezone"
	flagLogLevel     = "log-level"
)

// RegisterFlags declares the configuration flags on fs. Defaults shown in
// help are informational; only flags the user sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to a JSON config file")
	fs.StringP(flagVaultDir, "d", d.VaultDir, "vault directory")
	fs.String(flagDatabaseDSN, "", "database DSN (sqlite path or postgres:// URL)")
	fs.String(flagBlobBackend, d.BlobBackend, "blob storage backend: fs or s3")
	fs.String(flagBlobDir, "", "directory for encrypted blobs (fs backend)")
	fs.String(flagS3Bucket, "", "bucket for encrypted blobs (s3 backend)")
	fs.String(flagS3Endpoint, "", "S3-compatible endpoint URL")
	fs.String(flagS3Region, "", "S3 region")
	fs.String(flagTempDir, d.TempDir, "directory for decrypted temporary files")
	fs.Int(flagDailyLimit, d.DailyLimit, "items offered per day")
	fs.Int(flagDayStartHour, d.DayStartHour, "local hour at which a new day starts")
	fs.String(flagTimezone, d.Timezone, "IANA timezone for day boundaries")
	fs.String(flagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		flagVaultDir:    &cfg.VaultDir,
		flagDatabaseDSN: &cfg.DatabaseDSN,
		flagBlobBackend: &cfg.BlobBackend,
		flagBlobDir:     &cfg.BlobDir,
		flagS3Bucket:    &cfg.S3Bucket,
		flagS3Endpoint:  &cfg.S3BaseEndpoint,
		flagS3Region:    &cfg.S3Region,
		flagTempDir:     &cfg.TempDir,
		flagTimezone:    &cfg.Timezone,
		flagLogLevel:    &cfg.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		flagDailyLimit:   &cfg.DailyLimit,
		flagDayStartHour: &cfg.DayStartHour,
	}
	for name, dst := range ints {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}
