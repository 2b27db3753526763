package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
	"github.com/zack-george/instanthspro/pkg/api"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// ProfileHandler serves the caller's credit ledger record and gallery.
type ProfileHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(st store.Store, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: st, logger: logger}
}

// loadOrCreateProfile fetches the caller's profile, lazily creating a
// zero-balance record on first contact. Losing the creation race to a
// concurrent request is fine; the winner's record is read back.
func loadOrCreateProfile(ctx context.Context, st store.ProfileStore, user *auth.UserContext) (domain.Profile, error) {
	profile, err := st.GetProfile(ctx, user.UserID)
	if err == nil {
		return profile, nil
	}
	if !store.IsNotFound(err) {
		return domain.Profile{}, err
	}

	fresh := domain.NewProfile(user.UserID, user.Email)
	if err := st.CreateProfileIfAbsent(ctx, fresh); err != nil && !store.IsAlreadyExists(err) {
		return domain.Profile{}, err
	}
	return st.GetProfile(ctx, user.UserID)
}

// GetProfile handles GET /api/v1/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := loadOrCreateProfile(r.Context(), h.store, user)
	if err != nil {
		h.logger.Error("failed to load profile", zap.String("userID", user.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	api.Success(w, http.StatusOK, toProfileResponse(profile))
}

// GetGallery handles GET /api/v1/gallery. Images are deduplicated and
// ordered newest first.
func (h *ProfileHandler) GetGallery(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := h.store.ListGenerations(r.Context(), user.UserID)
	if err != nil {
		h.logger.Error("failed to list generations", zap.String("userID", user.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}

	api.Success(w, http.StatusOK, api.GalleryResponse{Images: domain.GalleryView(records)})
}

func toProfileResponse(profile domain.Profile) api.ProfileResponse {
	return api.ProfileResponse{
		IdentityID: profile.IdentityID,
		Email:      profile.Email,
		Credits:    profile.Credits,
		CreatedAt:  profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  profile.UpdatedAt.Format(time.RFC3339),
	}
}
