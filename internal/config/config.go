// Package config loads the service configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration. An empty path falls back to
// CONFIG_FILE; a missing file is only an error when a path was given explicitly.
func Load(path string) (*domain.AppConfig, error) {
	cfg := domain.DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *domain.AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *domain.AppConfig, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
		return nil
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins, ok := lookup("CORS_ORIGINS"); ok && origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	str("LLM_MODE", &cfg.Provider.Mode)
	str("AWS_REGION", &cfg.Provider.Region)
	str("BEDROCK_MODEL_ID", &cfg.Provider.ModelID)
	str("OLLAMA_HOST", &cfg.Provider.LocalURL)
	str("LLM_REMOTE_URL", &cfg.Provider.RemoteURL)
	str("LLM_API_KEY", &cfg.Provider.APIKey)
	str("LLM_MODEL", &cfg.Provider.DefaultModel)

	str("S3_DEFAULT_REGION", &cfg.Destinations.S3Region)
	str("GRAPH_BASE_URL", &cfg.Destinations.GraphBaseURL)
	str("SCRATCH_DIR", &cfg.Destinations.ScratchDir)

	for key, dst := range map[string]*time.Duration{
		"SETTLE_DELAY":       &cfg.Delays.Settle,
		"PACING_DELAY":       &cfg.Delays.Pacing,
		"EMAIL_PACING_DELAY": &cfg.Delays.EmailPacing,
		"FILE_PACING_DELAY":  &cfg.Delays.FilePacing,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
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

// Validate rejects configurations the service cannot start with.
func Validate(cfg *domain.AppConfig) error {
	switch cfg.Provider.Mode {
	case "", "bedrock":
		if cfg.Provider.ModelID == "" {
			return fmt.Errorf("provider model_id is required when mode=bedrock")
		}
	case "local":
	case "remote":
		if cfg.Provider.RemoteURL == "" {
			return fmt.Errorf("provider remote_url is required when mode=remote")
		}
		if cfg.Provider.APIKey == "" {
			return fmt.Errorf("provider api_key is required when mode=remote")
		}
	default:
		return fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	d := cfg.Delays
	if d.Settle < 0 || d.Pacing < 0 || d.EmailPacing < 0 || d.FilePacing < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}
