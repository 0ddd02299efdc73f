// Package config provides configuration loading for interviewd.
//
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables, with hardcoded defaults applied last.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/interviewd/internal/logging"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config holds the complete interviewd configuration.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Log     logging.Config `koanf:"log"`
	Oracle  OracleConfig   `koanf:"oracle"`
	Catalog CatalogConfig  `koanf:"catalog"`
	Sandbox SandboxConfig  `koanf:"sandbox"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// OracleConfig holds language-model collaborator configuration.
type OracleConfig struct {
	BaseURL    string   `koanf:"base_url"`
	APIKey     Secret   `koanf:"api_key"`
	Model      string   `koanf:"model"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
}

// CatalogConfig holds the task/question catalog configuration.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// SandboxConfig holds the code-execution collaborator configuration.
type SandboxConfig struct {
	URL     string   `koanf:"url"`
	Timeout Duration `koanf:"timeout"`
}

// Load loads configuration from the given YAML file (optional) and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, ORACLE_API_KEY, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables map section-first: SERVER_PORT -> server.port,
// ORACLE_BASE_URL -> oracle.base_url, LOG_LEVEL -> log.level.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Environment overrides. Split on first underscore: section.field_name.
	// SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10e9)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.openai.com"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o-mini"
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = Duration(60e9)
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = 3
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "interviewd.db"
	}
	if cfg.Sandbox.URL == "" {
		cfg.Sandbox.URL = "http://localhost:8080"
	}
	if cfg.Sandbox.Timeout == 0 {
		cfg.Sandbox.Timeout = Duration(30e9)
	}
}
