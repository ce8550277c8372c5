// Package config loads the settings surface that cmd/ entry points use to
// wire concrete backends onto the core. It is explicitly outside the core
// (queue + result-store + worker runtime) per the system's scope, kept here
// only as thin plumbing, and is not covered by the core's tested
// invariants.
package config

import (
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v2"
)

// BackendType selects which concrete backend a Queue or ResultStore binds
// to at construction.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendRemote BackendType = "remote"
)

// Config is the configuration surface the core's cmd/ wiring reads.
// Precedence, per field: environment variable > configuration file >
// built-in default.
type Config struct {
	QueueType BackendType `yaml:"queue_type"`
	RedisURL  string      `yaml:"redis_url"`

	ResultStoreType     BackendType   `yaml:"result_store_type"`
	ResultStoreTTL      time.Duration `yaml:"-"`
	ResultStoreTTLSec   int           `yaml:"result_store_ttl_seconds"`
	ResultStoreRedisURL string        `yaml:"result_store_redis_url"`

	APIWorkers int `yaml:"api_workers"`
}

// EnvPrefix is prepended to every environment-variable override name.
const EnvPrefix = "DQ_"

func defaults() Config {
	return Config{
		QueueType:           BackendMemory,
		RedisURL:            "127.0.0.1:6379",
		ResultStoreType:     BackendMemory,
		ResultStoreTTLSec:   3600,
		ResultStoreRedisURL: "127.0.0.1:6379",
		APIWorkers:          4,
	}
}

// Load builds a Config starting from built-in defaults, overlaying a YAML
// file at path (if it exists and path is non-empty), then overlaying
// DQ_-prefixed environment variables. A missing file at path is not an
// error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	cfg.ResultStoreTTL = time.Duration(cfg.ResultStoreTTLSec) * time.Second
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("QUEUE_TYPE"); ok {
		cfg.QueueType = BackendType(v)
	}
	if v, ok := lookupEnv("REDIS_URL"); ok {
		cfg.RedisURL = v
	}
	if v, ok := lookupEnv("RESULT_STORE_TYPE"); ok {
		cfg.ResultStoreType = BackendType(v)
	}
	if v, ok := lookupEnv("RESULT_STORE_TTL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ResultStoreTTLSec = n
		}
	}
	if v, ok := lookupEnv("RESULT_STORE_REDIS_URL"); ok {
		cfg.ResultStoreRedisURL = v
	}
	if v, ok := lookupEnv("API_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.APIWorkers = n
		}
	}
}

func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}
