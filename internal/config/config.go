// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/ezachrisen/verdict/store/sqlstore"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Eval   EvalConfig   `yaml:"eval"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
	BodyLimit    int    `yaml:"body_limit"`    // bytes
}

// StoreConfig selects the rule store.
type StoreConfig struct {
	Type     string          `yaml:"type"` // memory, sql, redis
	Database sqlstore.Config `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
}

// RedisConfig configures the redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	Output     string `yaml:"output"` // stdout, stderr, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
}

// EvalConfig selects the evaluator used by the service.
type EvalConfig struct {
	Backend string `yaml:"backend"` // tree, cel
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			BodyLimit:    4 * 1024 * 1024,
		},
		Store: StoreConfig{
			Type: "memory",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Eval: EvalConfig{
			Backend: "tree",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the enumerated settings hold known values.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "memory", "redis":
	case "sql":
		switch c.Store.Database.Driver {
		case "mysql", "postgres", "sqlite":
		default:
			return fmt.Errorf("store.database.driver: unsupported driver %q", c.Store.Database.Driver)
		}
	default:
		return fmt.Errorf("store.type: unknown store %q", c.Store.Type)
	}
	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file", "both":
	default:
		return fmt.Errorf("log.output: unknown output %q", c.Log.Output)
	}
	if (c.Log.Output == "file" || c.Log.Output == "both") && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path is required for output %q", c.Log.Output)
	}

	switch c.Eval.Backend {
	case "tree", "cel":
	default:
		return fmt.Errorf("eval.backend: unknown backend %q", c.Eval.Backend)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}
