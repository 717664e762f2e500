package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, rest, err := FromArgs(nil, envMap(nil))
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected args %v", rest)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "pizzastore.db" {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default")
	}
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pizzastore.yaml")
	yml := `
database:
  driver: postgres
  host: db.internal
  port: 5432
  name: pizza
  user: file-user
redis:
  addr: cache:6379
  ttl: 5m
http:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := envMap(map[string]string{
		"PIZZA_DB_USER": "env-user",
		"PIZZA_DB_PORT": "6543",
		"JWT_SECRET":    "s3cret",
		"PIZZA_TRACING": "true",
	})

	cfg, rest, err := FromArgs([]string{"-config", path, "-http-addr", ":7000", "serve"}, env)
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if len(rest) != 1 || rest[0] != "serve" {
		t.Fatalf("rest = %v", rest)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Host != "db.internal" {
		t.Fatalf("file values lost: %+v", cfg.Database)
	}
	if cfg.Database.User != "env-user" || cfg.Database.Port != 6543 {
		t.Fatalf("env should override file: %+v", cfg.Database)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Fatalf("flag should override file, got %q", cfg.HTTP.Addr)
	}
	if cfg.Redis.TTL != 5*time.Minute || cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if !cfg.Tracing.Enabled || cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("env toggles not applied: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unset file field should keep default, got %v", cfg.Auth.TokenTTL)
	}
	if err := cfg.Validate("serve"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBadEnv(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(envMap(map[string]string{"PIZZA_DB_PORT": "abc"})); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate("shell"); err != nil {
		t.Fatalf("defaults should be valid for shell: %v", err)
	}
	if err := cfg.Validate("serve"); err == nil {
		t.Fatalf("serve without JWT secret should fail")
	}
	cfg.Database.Driver = "oracle"
	if err := cfg.Validate("shell"); err == nil {
		t.Fatalf("unknown driver should fail")
	}
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate("migrate"); err == nil {
		t.Fatalf("mysql without a database name should fail")
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
