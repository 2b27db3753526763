package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/config"
	"github.com/zack-george/instanthspro/internal/di"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
)

// init runs during cold start.
func init() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// API Gateway cannot hold the long-lived /ws connections, so the
	// realtime surface stays off in this target.
	container, err = di.NewContainer(ctx, cfg, logger, di.Options{EnableWebSocket: false})
	if err != nil {
		logger.Fatal("failed to initialize container", zap.Error(err))
	}

	chiLambda = chiadapter.NewV2(container.Router.(*chi.Mux))

	logger.Info("cold start complete", zap.Duration("duration", time.Since(start)))
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}
