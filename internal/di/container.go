//go:build !wireinject
// +build !wireinject

// Package di assembles the application from its parts.
package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsDynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsEventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/config"
	"github.com/zack-george/instanthspro/internal/events"
	"github.com/zack-george/instanthspro/internal/inference"
	"github.com/zack-george/instanthspro/internal/interfaces/http/rest"
	wsinterface "github.com/zack-george/instanthspro/internal/interfaces/websocket"
	"github.com/zack-george/instanthspro/internal/observability"
	"github.com/zack-george/instanthspro/internal/service/assistant"
	"github.com/zack-george/instanthspro/internal/service/billing"
	"github.com/zack-george/instanthspro/internal/service/generation"
	"github.com/zack-george/instanthspro/internal/store"
	"github.com/zack-george/instanthspro/internal/store/ddb"
	"github.com/zack-george/instanthspro/internal/store/memory"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// Container holds every long-lived component of the backend.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	DynamoDBClient    *awsDynamodb.Client
	EventBridgeClient *awsEventbridge.Client

	Store     store.Store
	Publisher events.Publisher
	Inference *inference.GeminiClient
	Metrics   *observability.Collector

	Generator *generation.Service
	Billing   *billing.Service
	Assistant *assistant.Service

	Validator *auth.Validator
	WebSocket *wsinterface.Server
	Router    http.Handler

	shutdownFuncs []func(context.Context) error
}

// Options toggles optional surfaces per deployment target.
type Options struct {
	// EnableWebSocket mounts /ws. Disabled for the Lambda target, which
	// cannot hold long-lived connections behind the HTTP proxy.
	EnableWebSocket bool
}

// NewContainer builds the full dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.Metrics = observability.NewCollector("instanthspro")

	if err := c.initializeStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := c.initializePublisher(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	c.initializeInference()
	c.initializeServices()
	if err := c.initializeInterfaces(opts); err != nil {
		return nil, err
	}
	if err := c.initializeTracing(ctx); err != nil {
		// Tracing failures should not block startup.
		logger.Warn("failed to initialize tracing", zap.Error(err))
	}

	return c, nil
}

// initializeStore selects the persistence driver.
func (c *Container) initializeStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case "memory":
		c.Store = memory.NewStore(c.Logger)
		c.Logger.Info("using in-memory store")
		return nil

	case "dynamodb":
		awsCfg, err := c.loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		endpoint := c.Config.DynamoDB.Endpoint
		c.DynamoDBClient = awsDynamodb.NewFromConfig(awsCfg, func(o *awsDynamodb.Options) {
			o.HTTPClient = sharedHTTPClient
			o.RetryMaxAttempts = 3
			o.RetryMode = aws.RetryModeAdaptive
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
		c.Store = ddb.NewStore(c.DynamoDBClient, c.Config.DynamoDB.TableName, c.Logger)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", c.Config.Store.Driver)
	}
}

func (c *Container) initializePublisher(ctx context.Context) error {
	if !c.Config.Events.Enabled {
		c.Publisher = events.NopPublisher{}
		return nil
	}

	awsCfg, err := c.loadAWSConfig(ctx)
	if err != nil {
		return err
	}
	c.EventBridgeClient = awsEventbridge.NewFromConfig(awsCfg, func(o *awsEventbridge.Options) {
		o.HTTPClient = sharedHTTPClient
		o.RetryMaxAttempts = 3
	})
	c.Publisher = events.NewEventBridgePublisher(
		c.EventBridgeClient, c.Config.Events.EventBusName, c.Config.Events.Source, c.Logger)
	return nil
}

func (c *Container) initializeInference() {
	c.Inference = inference.NewGeminiClient(inference.GeminiConfig{
		BaseURL:    c.Config.Inference.BaseURL,
		APIKey:     c.Config.Inference.APIKey,
		ImageModel: c.Config.Inference.ImageModel,
		TextModel:  c.Config.Inference.TextModel,
	}, &http.Client{Timeout: 120 * time.Second}, c.Logger)
}

func (c *Container) initializeServices() {
	c.Generator = generation.NewService(c.Store, c.Store, c.Inference, c.Publisher, c.Metrics, c.Logger)
	c.Billing = billing.NewService(c.Store, c.Publisher, c.Metrics, c.Logger)
	c.Assistant = assistant.NewService(c.Inference, c.Logger)
}

func (c *Container) initializeInterfaces(opts Options) error {
	validator, err := auth.NewValidator(c.Config.Supabase.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to create token validator: %w", err)
	}
	c.Validator = validator

	var wsHandler http.HandlerFunc
	if opts.EnableWebSocket {
		c.WebSocket = wsinterface.NewServer(c.Store, validator, c.Config.Server.AllowedOrigins, c.Logger)
		wsHandler = c.WebSocket.HandleWebSocket
	}

	c.Router = rest.NewRouter(
		c.Store,
		c.Generator,
		c.Billing,
		c.Assistant,
		validator,
		c.Metrics,
		wsHandler,
		c.Config.Server.AllowedOrigins,
		c.Logger,
	).Setup()
	return nil
}

func (c *Container) initializeTracing(ctx context.Context) error {
	if !c.Config.Tracing.Enabled {
		return nil
	}
	shutdown, err := observability.InitTracing(ctx, "instanthspro", c.Config.Tracing.Endpoint)
	if err != nil {
		return err
	}
	c.shutdownFuncs = append(c.shutdownFuncs, shutdown)
	return nil
}

func (c *Container) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var opts []func(*awsConfig.LoadOptions) error
	if c.Config.DynamoDB.Region != "" {
		opts = append(opts, awsConfig.WithRegion(c.Config.DynamoDB.Region))
	}
	return awsConfig.LoadDefaultConfig(loadCtx, opts...)
}

// Shutdown flushes and closes everything the container owns.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, fn := range c.shutdownFuncs {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// sharedHTTPClient keeps connections alive across AWS calls; within one
// Lambda container warm invocations reuse the pool.
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}
