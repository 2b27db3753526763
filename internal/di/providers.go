package di

import (
	"github.com/google/wire"

	"github.com/zack-george/instanthspro/internal/inference"
	"github.com/zack-george/instanthspro/internal/service/assistant"
	"github.com/zack-george/instanthspro/internal/service/billing"
	"github.com/zack-george/instanthspro/internal/service/generation"
	"github.com/zack-george/instanthspro/internal/store"
)

// ProviderSet wires the service layer for Wire-generated initializers.
// The manual container in container.go is the path used at runtime; this
// set exists so `wire` can regenerate an equivalent graph.
var ProviderSet = wire.NewSet(
	generation.NewService,
	billing.NewService,
	assistant.NewService,
	wire.Bind(new(store.ProfileStore), new(store.Store)),
	wire.Bind(new(store.GenerationStore), new(store.Store)),
	wire.Bind(new(inference.ImageModel), new(*inference.GeminiClient)),
	wire.Bind(new(inference.TextModel), new(*inference.GeminiClient)),
)
