// Package vconfig loads process configuration from the environment (and
// an optional YAML file), the way the teacher's services resolve
// DATABASE_URL/REDIS_URL/MINIO_* with sane local defaults.
package vconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// CacheMode mirrors the store's retention policy, spec.md §4.1.
type CacheMode string

const (
	EvictImmediately CacheMode = "EvictImmediately"
	EvictLate        CacheMode = "EvictLate"
	KeepUntilExecute CacheMode = "KeepUntilExecute"
	Never            CacheMode = "Never"
)

// Config is the process-wide configuration.
type Config struct {
	StoreID             string        `yaml:"store_id"`
	StoreMaxBytes       int64         `yaml:"store_max_bytes"`
	DefaultCacheMode    CacheMode     `yaml:"default_cache_mode"`
	DefaultCodec        string        `yaml:"default_codec"`
	AttachTimeout       time.Duration `yaml:"attach_timeout"`
	SessionKeyEnvVar    string        `yaml:"session_key_env_var"`
	DebugAPIEnabled     bool          `yaml:"debug_api_enabled"`
	DebugAPIAddr        string        `yaml:"debug_api_addr"`
	MetricsEnabled      bool          `yaml:"metrics_enabled"`
	CatalogRedisAddr    string        `yaml:"catalog_redis_addr"`
	ObjectStoreEndpoint string        `yaml:"object_store_endpoint"`
	ObjectStoreBucket   string        `yaml:"object_store_bucket"`
	LogJSON             bool          `yaml:"log_json"`
}

// Default returns the configuration used when no env vars or file are
// present, mirroring the teacher's "sensible local default" convention.
func Default() *Config {
	return &Config{
		StoreID:          "vistle",
		StoreMaxBytes:    1 << 30, // 1 GiB
		DefaultCacheMode: EvictLate,
		DefaultCodec:     "RangeCoded",
		AttachTimeout:    5 * time.Second,
		SessionKeyEnvVar: "VISTLE_SESSION_KEY",
		DebugAPIEnabled:  false,
		DebugAPIAddr:     ":8743",
		MetricsEnabled:   false,
		CatalogRedisAddr: "localhost:6379",
		LogJSON:          false,
	}
}

// Load builds a Config from, in increasing priority: defaults, an
// optional YAML file at path (ignored if empty or missing), a .env file
// in the working directory (loaded via godotenv, best-effort), and
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Best-effort local .env, as the teacher's services do for
	// developer convenience; a missing file is not an error.
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("vconfig: reading %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("vconfig: parsing %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VISTLE_STORE_ID"); v != "" {
		cfg.StoreID = v
	}
	if v := os.Getenv("VISTLE_STORE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.StoreMaxBytes = n
		}
	}
	if v := os.Getenv("VISTLE_CACHE_MODE"); v != "" {
		cfg.DefaultCacheMode = CacheMode(v)
	}
	if v := os.Getenv("VISTLE_CODEC"); v != "" {
		cfg.DefaultCodec = v
	}
	if v := os.Getenv("VISTLE_DEBUG_API"); v != "" {
		cfg.DebugAPIEnabled = v == "1" || v == "true"
	}
	if v := os.Getenv("VISTLE_DEBUG_API_ADDR"); v != "" {
		cfg.DebugAPIAddr = v
	}
	if v := os.Getenv("VISTLE_METRICS"); v != "" {
		cfg.MetricsEnabled = v == "1" || v == "true"
	}
	if v := os.Getenv("VISTLE_CATALOG_REDIS_ADDR"); v != "" {
		cfg.CatalogRedisAddr = v
	}
	if v := os.Getenv("VISTLE_OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.ObjectStoreEndpoint = v
	}
	if v := os.Getenv("VISTLE_OBJECT_STORE_BUCKET"); v != "" {
		cfg.ObjectStoreBucket = v
	}
	if v := os.Getenv("VISTLE_LOG_JSON"); v != "" {
		cfg.LogJSON = v == "1" || v == "true"
	}
}
