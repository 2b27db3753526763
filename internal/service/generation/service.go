// Package generation contains the transactional core: it validates
// preconditions, reserves credits, runs per-image inference, persists the
// result batch, and reconciles the credit balance on every failure path.
package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/events"
	"github.com/zack-george/instanthspro/internal/inference"
	"github.com/zack-george/instanthspro/internal/observability"
	"github.com/zack-george/instanthspro/internal/store"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// SystemInstruction is the fixed instruction sent with every image call.
const SystemInstruction = "You are a professional photo retoucher. Transform the provided selfie " +
	"into a polished professional headshot: neutral studio background, flattering soft lighting, " +
	"business attire, natural skin texture. Preserve the subject's identity and facial features."

// DefaultStylePrompt is used when the user supplies no style request.
const DefaultStylePrompt = "A classic professional headshot with a neutral background."

// Service orchestrates the credit-debit-generate-refund flow.
type Service struct {
	profiles    store.ProfileStore
	generations store.GenerationStore
	model       inference.ImageModel
	publisher   events.Publisher
	metrics     *observability.Collector
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewService wires the orchestrator. publisher and metrics may be nil, in
// which case events are dropped and metrics are not recorded.
func NewService(
	profiles store.ProfileStore,
	generations store.GenerationStore,
	model inference.ImageModel,
	publisher events.Publisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles:    profiles,
		generations: generations,
		model:       model,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger.Named("GenerationService"),
		tracer:      observability.Tracer("generation"),
	}
}

// Generate runs one batch. profile is the caller's latest cached view of
// the ledger record; its balance is the refund target on failure.
//
// The debit is a pessimistic reservation, not a true transaction: it is
// written through before any inference call and compensated on every
// failure path, including the case where every call succeeded at the
// transport level but none yielded an image.
func (s *Service) Generate(
	ctx context.Context,
	uploads []domain.UploadImage,
	stylePrompt string,
	profile domain.Profile,
) (domain.GenerationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "Generate",
		trace.WithAttributes(attribute.Int("upload.count", len(uploads))))
	defer span.End()

	// Preconditions, checked before any side effect.
	if len(uploads) == 0 {
		return domain.GenerationRecord{}, appErrors.NewValidation("no images selected")
	}
	if len(uploads) > domain.MaxUploadImages {
		return domain.GenerationRecord{}, appErrors.NewValidation(
			fmt.Sprintf("at most %d images per batch", domain.MaxUploadImages))
	}
	if !profile.CanAfford() {
		return domain.GenerationRecord{}, appErrors.NewValidation("insufficient credits")
	}

	// Reserve: write the debit through before calling the endpoint.
	preDebit := profile.Credits
	debited, err := profile.Debit(domain.GenerationCost)
	if err != nil {
		return domain.GenerationRecord{}, err
	}
	if err := s.profiles.UpdateCredits(ctx, profile.IdentityID, debited); err != nil {
		return domain.GenerationRecord{}, appErrors.Wrap(err, "failed to reserve credits")
	}
	if s.metrics != nil {
		s.metrics.GenerationsStarted.Inc()
		s.metrics.CreditsDebited.Add(domain.GenerationCost)
	}

	record, err := s.run(ctx, uploads, stylePrompt, profile.IdentityID)
	if err != nil {
		s.refund(ctx, profile.IdentityID, preDebit, err)
		return domain.GenerationRecord{}, appErrors.Wrap(err,
			fmt.Sprintf("generation failed, your %d credits have been refunded", domain.GenerationCost))
	}

	if s.metrics != nil {
		s.metrics.GenerationsCompleted.Inc()
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.TypeGenerationCompleted, profile.IdentityID,
		map[string]any{"recordId": record.ID, "images": len(record.Images)})); err != nil {
		s.logger.Warn("failed to publish completion event", zap.Error(err))
	}
	return record, nil
}

// run executes the fallible middle of the flow: encode, per-image
// inference, aggregate, persist.
func (s *Service) run(
	ctx context.Context,
	uploads []domain.UploadImage,
	stylePrompt string,
	ownerID string,
) (domain.GenerationRecord, error) {
	if stylePrompt == "" {
		stylePrompt = DefaultStylePrompt
	}

	// Sequential by design: one failing call bounds its own blast radius
	// and partial-result accounting stays trivial.
	var results []string
	for i, upload := range uploads {
		start := time.Now()
		res, err := s.model.EditImage(ctx, inference.ImageRequest{
			SystemInstruction: SystemInstruction,
			StylePrompt:       stylePrompt,
			Source:            upload.Data,
			MIMEType:          upload.MIME,
		})
		if err != nil {
			s.observeInference(start, "error")
			s.logger.Warn("inference call failed",
				zap.Int("image", i), zap.String("ownerId", ownerID), zap.Error(err))
			return domain.GenerationRecord{}, err
		}
		if !res.HasImage() {
			s.observeInference(start, "no_image")
			s.logger.Warn("inference call yielded no image",
				zap.Int("image", i), zap.String("ownerId", ownerID))
			continue
		}
		s.observeInference(start, "ok")
		results = append(results, encodeDataURI(res.MIMEType, res.Data))
	}

	if len(results) == 0 {
		return domain.GenerationRecord{}, appErrors.NewEmptyResult("no images could be generated")
	}

	record := domain.NewGenerationRecord(ownerID, results)
	if err := s.generations.AppendGeneration(ctx, record); err != nil {
		return domain.GenerationRecord{}, appErrors.Wrap(err, "failed to persist generation record")
	}
	return record, nil
}

// refund writes the pre-debit balance back. The refund target is the
// caller's cached value, not a re-derived one; concurrent writers can make
// this stale, which mirrors the ledger's last-writer-wins semantics.
func (s *Service) refund(ctx context.Context, identityID string, preDebit int, cause error) {
	reason := string(appErrors.ErrorTypeInternal)
	if appErr, ok := cause.(*appErrors.AppError); ok {
		reason = string(appErr.Type)
	}
	if s.metrics != nil {
		s.metrics.GenerationsFailed.WithLabelValues(reason).Inc()
	}

	if err := s.profiles.UpdateCredits(ctx, identityID, preDebit); err != nil {
		// The debit sticks; this is the flow's known weak spot, so make
		// sure it is loud in the logs.
		s.logger.Error("refund failed after generation failure",
			zap.String("identityId", identityID),
			zap.Int("preDebitBalance", preDebit),
			zap.NamedError("generationError", cause),
			zap.Error(err))
	} else {
		if s.metrics != nil {
			s.metrics.CreditsRefunded.Add(domain.GenerationCost)
		}
		s.logger.Info("credits refunded after generation failure",
			zap.String("identityId", identityID),
			zap.Int("balance", preDebit))
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.TypeGenerationFailed, identityID,
		map[string]any{"reason": reason})); err != nil {
		s.logger.Warn("failed to publish failure event", zap.Error(err))
	}
}

func (s *Service) observeInference(start time.Time, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.InferenceDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// encodeDataURI renders image bytes as an inline data URI, the transport-
// safe form stored on generation records.
func encodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
