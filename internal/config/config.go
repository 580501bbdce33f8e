package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"collabforge/pkg/logger"
)

const devJWTSecret = "collabforge-dev-secret-change-me"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tasks     TasksConfig     `yaml:"tasks"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // postgres, sqlite, mysql
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TasksConfig struct {
	// AutoStartOnApprove moves an open task to in-progress when a join
	// request is approved.
	AutoStartOnApprove bool `yaml:"auto_start_on_approve"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "collabforge.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		JWT: JWTConfig{
			Secret:      devJWTSecret,
			ExpiryHours: 1,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		Tasks: TasksConfig{
			AutoStartOnApprove: true,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and finally the process environment.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getEnv("CONFIG_PATH", "config.yaml")
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		logger.Debug().Str("path", configPath).Msg("config file not found, using defaults")
	default:
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using system environment variables")
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Mode = getEnv("SERVER_MODE", c.Server.Mode)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if dsn, ok := os.LookupEnv("DB_DSN"); ok {
		c.Database.DSN = dsn
	} else if host, ok := os.LookupEnv("DB_HOST"); ok {
		c.Database.Driver = "postgres"
		c.Database.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host,
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "collabforge"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "collabforge_db"),
		)
	}

	if origins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); ok {
		c.CORS.AllowOrigins = splitList(origins)
	}

	var err error
	if c.JWT.ExpiryHours, err = getEnvInt("JWT_EXPIRY_HOURS", c.JWT.ExpiryHours); err != nil {
		return err
	}
	if c.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimit.RPS = rps
	}
	if v, ok := os.LookupEnv("TASKS_AUTO_START_ON_APPROVE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TASKS_AUTO_START_ON_APPROVE %q: %w", v, err)
		}
		c.Tasks.AutoStartOnApprove = b
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret must not be empty")
	}
	if c.Server.Mode == "release" && c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("JWT expiry must be greater than 0 hours")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN must not be empty")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return i, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
