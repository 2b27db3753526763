// Package config provides configuration for the InstantHS Pro backend.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment identifies the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the root configuration for all components.
type Config struct {
	Environment Environment     `yaml:"environment" validate:"required,oneof=development staging production"`
	Server      ServerConfig    `yaml:"server"`
	Store       StoreConfig     `yaml:"store"`
	Supabase    SupabaseConfig  `yaml:"supabase"`
	DynamoDB    DynamoDBConfig  `yaml:"dynamodb"`
	Inference   InferenceConfig `yaml:"inference"`
	Events      EventsConfig    `yaml:"events"`
	Tracing     TracingConfig   `yaml:"tracing"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=memory dynamodb"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// SupabaseConfig configures the identity provider client.
type SupabaseConfig struct {
	URL            string `yaml:"url" validate:"required,url"`
	ServiceRoleKey string `yaml:"service_role_key" validate:"required"`
	JWTSecret      string `yaml:"jwt_secret" validate:"required"`
}

// DynamoDBConfig configures the document store.
type DynamoDBConfig struct {
	TableName string `yaml:"table_name" validate:"required"`
	Region    string `yaml:"region"`
	// Endpoint overrides the AWS endpoint for local development.
	Endpoint string `yaml:"endpoint"`
}

// InferenceConfig configures the generative inference endpoint.
type InferenceConfig struct {
	BaseURL    string `yaml:"base_url" validate:"required,url"`
	APIKey     string `yaml:"api_key" validate:"required"`
	ImageModel string `yaml:"image_model" validate:"required"`
	TextModel  string `yaml:"text_model" validate:"required"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	EventBusName string `yaml:"event_bus_name"`
	Source       string `yaml:"source"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the baseline configuration before overlays are applied.
func Default() Config {
	return Config{
		Environment: Development,
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173"},
		},
		Store: StoreConfig{
			Driver: "dynamodb",
		},
		DynamoDB: DynamoDBConfig{
			TableName: "instanthspro-dev",
			Region:    "us-east-1",
		},
		Inference: InferenceConfig{
			BaseURL:    "https://generativelanguage.googleapis.com",
			ImageModel: "gemini-2.5-flash-image-preview",
			TextModel:  "gemini-2.5-flash",
		},
		Events: EventsConfig{
			Source: "instanthspro.api",
		},
		Tracing: TracingConfig{
			Endpoint: "localhost:4317",
		},
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Events.Enabled && c.Events.EventBusName == "" {
		return fmt.Errorf("invalid configuration: events.event_bus_name required when events are enabled")
	}
	return nil
}

// IsDevelopment reports whether hot reloading and local fallbacks apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
