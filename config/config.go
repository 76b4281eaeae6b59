// Package config loads the server configuration.
//
// Precedence, lowest first: defaults, YAML file, .env file, environment,
// command-line flags (applied by cmd/server).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/warp/liquidation-engine/liquidation"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Schedule struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		Target  string `yaml:"target"`
		Mode    string `yaml:"mode"`
	} `yaml:"schedule"`
}

const (
	DefaultPort   = 8080
	DefaultDBPath = "liquidations.db"
	DefaultCron   = "0 2 * * *"
)

// Load reads config from a YAML file, then .env and environment overrides.
// A missing file (or empty path) is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("LIQ_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LIQ_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LIQ_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LIQ_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("LIQ_SCHEDULE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("LIQ_SCHEDULE_ENABLED: %w", err)
		}
		cfg.Schedule.Enabled = enabled
	}
	if v := os.Getenv("LIQ_SCHEDULE_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("LIQ_SCHEDULE_TARGET"); v != "" {
		cfg.Schedule.Target = v
	}
	if v := os.Getenv("LIQ_SCHEDULE_MODE"); v != "" {
		cfg.Schedule.Mode = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBPath
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultCron
	}
	if cfg.Schedule.Target == "" {
		cfg.Schedule.Target = string(liquidation.TargetSixMonths)
	}
	if cfg.Schedule.Mode == "" {
		cfg.Schedule.Mode = string(liquidation.ModeIndividual)
	}

	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := liquidation.ParseTarget(c.Schedule.Target); err != nil {
		return fmt.Errorf("schedule.target: %w", err)
	}
	if _, err := liquidation.ParseMode(c.Schedule.Mode); err != nil {
		return fmt.Errorf("schedule.mode: %w", err)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
