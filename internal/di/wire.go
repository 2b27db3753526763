//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/events"
	"github.com/zack-george/instanthspro/internal/inference"
	"github.com/zack-george/instanthspro/internal/observability"
	"github.com/zack-george/instanthspro/internal/service/generation"
	"github.com/zack-george/instanthspro/internal/store"
)

// InitializeGenerator builds the generation service graph. Kept for
// `wire` regeneration; runtime assembly goes through NewContainer.
func InitializeGenerator(
	st store.Store,
	model *inference.GeminiClient,
	publisher events.Publisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *generation.Service {
	wire.Build(ProviderSet)
	return nil
}
