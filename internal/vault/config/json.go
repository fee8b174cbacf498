package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell absent keys apart from zero values, so a partial file only
// overrides what it names.
type JsonConfig struct {
	VaultDir    *string `json:"vault_dir"`
	DatabaseDSN *string `json:"database_dsn"`

	BlobBackend    *string `json:"blob_backend"`
	BlobDir        *string `json:"blob_dir"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Prefix       *string `json:"s3_prefix"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3UsePathStyle *bool   `json:"s3_use_path_style"`

	TempDir *string `json:"temp_dir"`

	DailyLimit    *int    `json:"daily_limit"`
	DayStartHour  *int    `json:"day_start_hour"`
	Timezone      *string `json:"timezone"`
	KDFIterations *int    `json:"kdf_iterations"`

	LogLevel *string `json:"log_level"`
}

// parseJSON overlays cfg with the values present in the file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&cfg.VaultDir, jc.VaultDir)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.BlobBackend, jc.BlobBackend)
	set(&cfg.BlobDir, jc.BlobDir)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Prefix, jc.S3Prefix)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.S3UsePathStyle, jc.S3UsePathStyle)
	set(&cfg.TempDir, jc.TempDir)
	set(&cfg.DailyLimit, jc.DailyLimit)
	set(&cfg.DayStartHour, jc.DayStartHour)
	set(&cfg.Timezone, jc.Timezone)
	set(&cfg.KDFIterations, jc.KDFIterations)
	set(&cfg.LogLevel, jc.LogLevel)

	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
