// Package config holds application settings: defaults, then an optional YAML
// file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/coach"
)

type Config struct {
	Server ServerConfig     `yaml:"server"`
	Auth   AuthConfig       `yaml:"auth"`
	Coach  coach.Thresholds `yaml:"coach"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	BasePath        string `yaml:"base_path"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8431",
			BasePath:        "/fasting-api",
			ShutdownTimeout: "5s",
		},
		Auth: AuthConfig{
			Issuer:     "service-fasting-go",
			TokenTTL:   "24h",
			BcryptCost: 12,
		},
		Coach: coach.DefaultThresholds(),
	}
}

// Load reads path when it exists and applies env overrides. An empty path
// falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("HTTP_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		c.Auth.TokenTTL = v
	}
	for env, dst := range map[string]*float64{
		"COACH_DIFFICULTY_WARNING_HOURS": &c.Coach.DifficultyWarningHours,
		"COACH_GLUCOSE_URGENT":           &c.Coach.GlucoseUrgent,
		"COACH_GLUCOSE_CAUTION":          &c.Coach.GlucoseCaution,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = f
	}
	return nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.BasePath, "/") || strings.HasSuffix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start and not end with '/': %q", c.Server.BasePath)
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("invalid auth.token_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}
	if c.Coach.GlucoseUrgent > c.Coach.GlucoseCaution {
		return fmt.Errorf("coach.glucose_urgent (%v) must not exceed coach.glucose_caution (%v)",
			c.Coach.GlucoseUrgent, c.Coach.GlucoseCaution)
	}
	return nil
}

// GetTokenTTL returns the token lifetime; Validate has checked it parses.
func (c *Config) GetTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.TokenTTL)
	return d
}

func (c *Config) GetShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}
