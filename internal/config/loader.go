package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from, in increasing priority:
//  1. defaults (in code)
//  2. the YAML file named by CONFIG_FILE (if set and present)
//  3. environment variables
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto the configuration.
func applyEnv(cfg *Config) {
	setString := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = Environment(strings.ToLower(v))
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	setString("SUPABASE_URL", &cfg.Supabase.URL)
	setString("SUPABASE_SERVICE_ROLE_KEY", &cfg.Supabase.ServiceRoleKey)
	setString("SUPABASE_JWT_SECRET", &cfg.Supabase.JWTSecret)

	setString("STORE_DRIVER", &cfg.Store.Driver)

	setString("TABLE_NAME", &cfg.DynamoDB.TableName)
	setString("AWS_REGION", &cfg.DynamoDB.Region)
	setString("DYNAMODB_ENDPOINT", &cfg.DynamoDB.Endpoint)

	setString("INFERENCE_BASE_URL", &cfg.Inference.BaseURL)
	setString("INFERENCE_API_KEY", &cfg.Inference.APIKey)
	setString("INFERENCE_IMAGE_MODEL", &cfg.Inference.ImageModel)
	setString("INFERENCE_TEXT_MODEL", &cfg.Inference.TextModel)

	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		cfg.Events.Enabled = v == "true"
	}
	setString("EVENT_BUS_NAME", &cfg.Events.EventBusName)

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = v == "true"
	}
	setString("OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
}
