package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, postgres or mysql
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the menu cache
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	TTL      time.Duration `yaml:"ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "pizzastore.db",
			Host:    "localhost",
			SSLMode: "disable",
		},
		Redis: RedisConfig{TTL: 10 * time.Minute},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Auth:  AuthConfig{TokenTTL: 24 * time.Hour},
		Log:   LogConfig{Level: "info", OutputPaths: []string{"stderr"}},
	}
}

// Load reads a YAML file over the defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PIZZA_DB_DRIVER", &c.Database.Driver)
	str("PIZZA_DB_PATH", &c.Database.Path)
	str("PIZZA_DB_HOST", &c.Database.Host)
	str("PIZZA_DB_NAME", &c.Database.Name)
	str("PIZZA_DB_USER", &c.Database.User)
	str("PIZZA_DB_PASSWORD", &c.Database.Password)
	str("PIZZA_DB_SSLMODE", &c.Database.SSLMode)
	str("PIZZA_REDIS_ADDR", &c.Redis.Addr)
	str("PIZZA_HTTP_ADDR", &c.HTTP.Addr)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("PIZZA_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("PIZZA_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PIZZA_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("PIZZA_TRACING"); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PIZZA_TRACING: %w", err)
		}
		c.Tracing.Enabled = on
	}
	return nil
}

// FromArgs builds the configuration in order: defaults, the -config YAML file,
// environment, then explicitly set flags. It returns the non-flag arguments.
func FromArgs(args []string, lookup LookupFunc) (Config, []string, error) {
	fs := flag.NewFlagSet("pizzastore", flag.ContinueOnError)
	var (
		path      = fs.String("config", "", "path to a YAML config file")
		driver    = fs.String("db-driver", "", "database driver: sqlite, postgres or mysql")
		dbPath    = fs.String("db-path", "", "sqlite database file")
		dbHost    = fs.String("db-host", "", "database host")
		dbPort    = fs.Int("db-port", 0, "database port")
		dbName    = fs.String("db-name", "", "database name")
		dbUser    = fs.String("db-user", "", "database user")
		redisAddr = fs.String("redis-addr", "", "redis address for the menu cache")
		httpAddr  = fs.String("http-addr", "", "HTTP listen address")
		logLevel  = fs.String("log-level", "", "log level")
		tracing   = fs.Bool("tracing", false, "export traces to stdout")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	configPath := *path
	if configPath == "" {
		if v, ok := lookup("PIZZA_CONFIG"); ok {
			configPath = v
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-driver":
			cfg.Database.Driver = *driver
		case "db-path":
			cfg.Database.Path = *dbPath
		case "db-host":
			cfg.Database.Host = *dbHost
		case "db-port":
			cfg.Database.Port = *dbPort
		case "db-name":
			cfg.Database.Name = *dbName
		case "db-user":
			cfg.Database.User = *dbUser
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "http-addr":
			cfg.HTTP.Addr = *httpAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "tracing":
			cfg.Tracing.Enabled = *tracing
		}
	})
	return cfg, fs.Args(), nil
}

// Validate checks the settings needed by the given command.
func (c Config) Validate(command string) error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres", "mysql":
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if command == "serve" {
		if c.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET must be set to serve HTTP")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("auth.token_ttl must be positive")
		}
	}
	return nil
}
