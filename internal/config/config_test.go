package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_LOG_LEVEL",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"CACHE_PROFILE_TTL", "CACHE_BREAKER_MAX_FAILURES", "CACHE_BREAKER_TIMEOUT", "CACHE_BREAKER_HALF_OPEN_MAX_OPS",
	"WORKER_CONCURRENCY",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "BCRYPT_COST",
	"CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
}

const testSecret = "test-signing-secret"

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"JWT_SECRET": testSecret})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Port != "8000" {
		t.Errorf("Expected default port '8000', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != DriverMemory {
		t.Errorf("Expected default driver %q, got %q", DriverMemory, config.Database.Driver)
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected default access token TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Worker.Concurrency != 4 {
		t.Errorf("Expected default worker concurrency 4, got %d", config.Worker.Concurrency)
	}

	if len(config.CORS.AllowedOrigins) != 1 || config.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default CORS origins [*], got %v", config.CORS.AllowedOrigins)
	}

	if config.Cache.ProfileTTL != 15*time.Minute {
		t.Errorf("Expected default profile TTL 15m, got %v", config.Cache.ProfileTTL)
	}

	if config.Auth.JWTSecret != testSecret {
		t.Errorf("Expected JWT secret from environment, got %q", config.Auth.JWTSecret)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	envVars := map[string]string{
		"HOST":                 "127.0.0.1",
		"PORT":                 "9000",
		"ENVIRONMENT":          "production",
		"DB_DRIVER":            "SQLite",
		"REDIS_ENABLED":        "true",
		"REDIS_HOST":           "redis.example.com",
		"REDIS_PORT":           "6380",
		"JWT_SECRET":           "a-real-secret",
		"ACCESS_TOKEN_TTL":     "45m",
		"BCRYPT_COST":          "12",
		"WORKER_CONCURRENCY":   "8",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
	}
	clearEnvVars(allEnvVars)
	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.GetServerAddr() != "127.0.0.1:9000" {
		t.Errorf("Expected server addr 127.0.0.1:9000, got %s", config.GetServerAddr())
	}

	if !config.IsProduction() {
		t.Error("Expected production environment")
	}

	if config.Database.Driver != DriverSQLite {
		t.Errorf("Expected driver %q, got %q", DriverSQLite, config.Database.Driver)
	}

	if !config.Redis.Enabled || config.GetRedisAddr() != "redis.example.com:6380" {
		t.Errorf("Unexpected redis config: enabled=%v addr=%s", config.Redis.Enabled, config.GetRedisAddr())
	}

	if config.Auth.AccessTokenTTL != 45*time.Minute {
		t.Errorf("Expected TTL 45m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Auth.BCryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", config.Auth.BCryptCost)
	}

	if config.Worker.Concurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", config.Worker.Concurrency)
	}

	if len(config.CORS.AllowedOrigins) != 2 || config.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Unexpected CORS origins %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"JWT_SECRET":       testSecret,
		"REDIS_DB":         "not-a-number",
		"ACCESS_TOKEN_TTL": "forever",
		"REDIS_ENABLED":    "maybe",
	})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Redis.DB != 0 {
		t.Errorf("Expected fallback Redis DB 0, got %d", config.Redis.DB)
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected fallback TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Redis.Enabled {
		t.Error("Expected fallback REDIS_ENABLED=false")
	}
}

func TestLoadConfig_RequiresSecretInEveryEnvironment(t *testing.T) {
	for _, env := range []string{"", "development", "test", "production"} {
		for _, secret := range []string{"", "   "} {
			clearEnvVars(allEnvVars)
			setEnvVars(map[string]string{"ENVIRONMENT": env, "JWT_SECRET": secret})

			if _, err := LoadConfig(); err == nil {
				t.Errorf("Expected error for JWT_SECRET=%q with ENVIRONMENT=%q", secret, env)
			}
		}
	}
	clearEnvVars(allEnvVars)
}

func TestLoadConfig_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "postgres"}},
		{name: "bcrypt cost too low", env: map[string]string{"BCRYPT_COST": "2"}},
		{name: "bcrypt cost too high", env: map[string]string{"BCRYPT_COST": "40"}},
		{name: "zero worker concurrency", env: map[string]string{"WORKER_CONCURRENCY": "0"}},
		{name: "negative TTL", env: map[string]string{"ACCESS_TOKEN_TTL": "-1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(allEnvVars)
			setEnvVars(map[string]string{"JWT_SECRET": testSecret})
			setEnvVars(tt.env)
			defer clearEnvVars(allEnvVars)

			if _, err := LoadConfig(); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}
