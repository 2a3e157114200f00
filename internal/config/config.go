package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var dotEnvPath = ".env"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	NATS       NATSConfig       `yaml:"nats"`
	Simulation SimulationConfig `yaml:"simulation"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NATSConfig enables publishing notifications when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type SimulationConfig struct {
	// DefaultModel is used when a request names no model. Empty means
	// the first catalog entry.
	DefaultModel   string        `yaml:"default_model"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RunTTL         time.Duration `yaml:"run_ttl"`
	PruneInterval  time.Duration `yaml:"prune_interval"`
	WaitTimeout    time.Duration `yaml:"wait_timeout"`
}

type CatalogConfig struct {
	// Path to a YAML model list. Empty uses the builtin catalog.
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file, then .env and environment variable
// overrides. A missing file is not an error; defaults fill the gaps.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "lpr.notifications"
	}
	if cfg.Simulation.MaxUploadBytes == 0 {
		cfg.Simulation.MaxUploadBytes = 10 << 20
	}
	if cfg.Simulation.RunTTL == 0 {
		cfg.Simulation.RunTTL = 10 * time.Minute
	}
	if cfg.Simulation.PruneInterval == 0 {
		cfg.Simulation.PruneInterval = time.Minute
	}
	if cfg.Simulation.WaitTimeout == 0 {
		cfg.Simulation.WaitTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LPR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LPR_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("LPR_NATS_SUBJECT_PREFIX"); v != "" {
		cfg.NATS.SubjectPrefix = v
	}
	if v := os.Getenv("LPR_DEFAULT_MODEL"); v != "" {
		cfg.Simulation.DefaultModel = v
	}
	if v := os.Getenv("LPR_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("LPR_RUN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Simulation.RunTTL = d
		}
	}
	if v := os.Getenv("LPR_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("LPR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LPR_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
