// Package config loads runtime settings from a .env file and the
// environment. Command-line flags are applied on top by the commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultRoot      = "."
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultCacheSize = 8
	DefaultBucket    = "modelport-artifacts"
	DefaultRegion    = "us-east-1"
)

// Config holds settings shared by every command.
type Config struct {
	Root      string // Project root for setup, MODELPORT_ROOT
	LogLevel  string // debug, info, warn or error
	LogFormat string // text or json
	CacheSize int    // Parsed artifacts kept by the exporter
	Artifact  ArtifactConfig
}

// ArtifactConfig configures the optional S3-compatible artifact store.
type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Load reads envFiles (".env" when none are given, ignored if absent) into
// the process environment without overriding variables already set, then
// builds a Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cacheSize := DefaultCacheSize
	if raw := strings.TrimSpace(os.Getenv("MODELPORT_EXPORT_CACHE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("MODELPORT_EXPORT_CACHE must be a non-negative integer, got %q", raw)
		}
		cacheSize = n
	}

	return &Config{
		Root:      firstNonEmpty(strings.TrimSpace(os.Getenv("MODELPORT_ROOT")), DefaultRoot),
		LogLevel:  strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("MODELPORT_LOG_LEVEL")), DefaultLogLevel)),
		LogFormat: strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("MODELPORT_LOG_FORMAT")), DefaultLogFormat)),
		CacheSize: cacheSize,
		Artifact:  loadArtifactConfig(),
	}, nil
}

func loadArtifactConfig() ArtifactConfig {
	endpoint := firstNonEmpty(
		strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")),
		strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")),
	)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), DefaultRegion),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), DefaultBucket),
		Prefix:    strings.Trim(strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")), "/"),
		UseSSL:    resolveUseSSL(),
	}
}

func resolveUseSSL() bool {
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
