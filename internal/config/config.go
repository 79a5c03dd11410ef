package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported deployment environments.
const (
	EnvDev  = "dev"
	EnvProd = "prod"
	EnvTest = "test"
)

// Config holds all application configuration.
type Config struct {
	Server           ServerConfig
	Neo4j            Neo4jConfig
	Redis            RedisConfig
	CORS             CORSConfig
	Log              LogConfig
	ReferenceDataDir string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port       string
	Env        string
	Production bool
	Debug      bool
	SiteURL    string
}

// IsDev reports whether the server runs in the development environment.
func (s ServerConfig) IsDev() bool { return !s.Production && s.Env == EnvDev }

// IsTest reports whether the server runs in the test environment.
func (s ServerConfig) IsTest() bool { return !s.Production && s.Env == EnvTest }

// Neo4jConfig holds graph database connection configuration.
// ConnectionString takes precedence over the individual fields.
type Neo4jConfig struct {
	ConnectionString string
	URL              string
	Database         string
	Username         string
	Password         string
	LogLevel         string
}

// RedisConfig holds cache configuration. An empty URL disables caching.
type RedisConfig struct {
	URL      string
	Password string
	CacheTTL time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
	File  string
}

// EnvFiles lists the dotenv files for env in load order. Later files
// override earlier ones.
func EnvFiles(dir, env string) []string {
	names := []string{".env", ".env.local"}
	if env != "" {
		names = append(names, ".env."+env, ".env."+env+".local")
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// LoadEnvFiles loads every existing dotenv file for env into the process
// environment and returns the paths that were loaded.
func LoadEnvFiles(dir, env string) ([]string, error) {
	var loaded []string
	for _, path := range EnvFiles(dir, env) {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Overload(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Read builds the configuration from environment variables without
// validating it. Commands that only need part of it call Read directly.
func Read() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", EnvDev)
	env := strings.ToLower(strings.TrimSpace(v.GetString("ENV")))
	production := v.GetBool("PRODUCTION") || env == EnvProd
	dev := !production && env == EnvDev

	v.SetDefault("PORT", "8000")
	v.SetDefault("DEBUG", dev)
	v.SetDefault("SITE_URL", "http://localhost:8000")
	v.SetDefault("NEO4J_DB", "neo4j")
	v.SetDefault("NEO4J_USERNAME", "neo4j")
	v.SetDefault("NEO4J_LOG_LEVEL", "ERROR")
	v.SetDefault("CACHE_TTL", 5*time.Minute)

	debug := v.GetBool("DEBUG")
	switch {
	case debug:
		v.SetDefault("LOG_LEVEL", "debug")
	case production:
		v.SetDefault("LOG_LEVEL", "warn")
	default:
		v.SetDefault("LOG_LEVEL", "info")
	}
	v.SetDefault("CORS_ORIGINS", v.GetString("SITE_URL"))

	return &Config{
		Server: ServerConfig{
			Port:       v.GetString("PORT"),
			Env:        env,
			Production: production,
			Debug:      debug,
			SiteURL:    v.GetString("SITE_URL"),
		},
		Neo4j: Neo4jConfig{
			ConnectionString: v.GetString("NEO4J_CONNECTION_STRING"),
			URL:              v.GetString("NEO4J_URL"),
			Database:         v.GetString("NEO4J_DB"),
			Username:         v.GetString("NEO4J_USERNAME"),
			Password:         v.GetString("NEO4J_PASSWORD"),
			LogLevel:         strings.ToUpper(v.GetString("NEO4J_LOG_LEVEL")),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Password: v.GetString("REDIS_PASSWORD"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
			File:  v.GetString("LOG_FILE"),
		},
		ReferenceDataDir: v.GetString("REFERENCE_DATA_DIR"),
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration is present and valid.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var problems []string

	switch c.Server.Env {
	case EnvDev, EnvProd, EnvTest:
	default:
		problems = append(problems, "ENV must be 'dev', 'prod', or 'test'")
	}
	if c.Server.Port == "" {
		problems = append(problems, "PORT is required")
	}
	if c.Server.SiteURL == "" {
		problems = append(problems, "SITE_URL is required")
	}

	problems = append(problems, c.Neo4j.problems()...)

	if c.Redis.URL != "" && c.Redis.CacheTTL <= 0 {
		problems = append(problems, "CACHE_TTL must be positive")
	}
	if len(c.CORS.Origins) == 0 {
		problems = append(problems, "CORS_ORIGINS is required")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ValidateNeo4j checks only the graph database settings.
func (c *Config) ValidateNeo4j() error {
	if problems := c.Neo4j.problems(); len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (n Neo4jConfig) problems() []string {
	if n.ConnectionString != "" {
		return nil
	}
	var problems []string
	if n.URL == "" {
		problems = append(problems, "NEO4J_CONNECTION_STRING or NEO4J_URL is required")
	}
	if n.Username == "" {
		problems = append(problems, "NEO4J_USERNAME is required")
	}
	if n.Password == "" {
		problems = append(problems, "NEO4J_PASSWORD is required")
	}
	if n.Database == "" {
		problems = append(problems, "NEO4J_DB is required")
	}
	return problems
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
