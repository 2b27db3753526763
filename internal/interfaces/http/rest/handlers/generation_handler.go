package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/service/generation"
	"github.com/zack-george/instanthspro/internal/store"
	"github.com/zack-george/instanthspro/pkg/api"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// GenerationHandler handles headshot generation requests.
type GenerationHandler struct {
	generator *generation.Service
	store     store.Store
	logger    *zap.Logger
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(generator *generation.Service, st store.Store, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{generator: generator, store: st, logger: logger}
}

// Generate handles POST /api/v1/generations. The full batch runs
// synchronously; the response carries the persisted record and the
// caller's balance after the debit.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	uploads := make([]domain.UploadImage, 0, len(req.Images))
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "Invalid image encoding: "+img.Name)
			return
		}
		uploads = append(uploads, domain.UploadImage{Name: img.Name, MIME: img.MIME, Data: data})
	}

	profile, err := loadOrCreateProfile(r.Context(), h.store, user)
	if err != nil {
		h.logger.Error("failed to load profile", zap.String("userID", user.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	record, err := h.generator.Generate(r.Context(), uploads, req.StylePrompt, profile)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	// Re-read the balance after the debit for the response.
	credits := profile.Credits - domain.GenerationCost
	if updated, err := h.store.GetProfile(r.Context(), user.UserID); err == nil {
		credits = updated.Credits
	}

	api.Success(w, http.StatusCreated, api.GenerateResponse{
		ID:        record.ID,
		Images:    record.Images,
		Credits:   credits,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
	})
}
