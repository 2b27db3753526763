package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/service/billing"
	"github.com/zack-george/instanthspro/pkg/api"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// BillingHandler handles credit pack listing and purchases.
type BillingHandler struct {
	billing *billing.Service
	logger  *zap.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(svc *billing.Service, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: svc, logger: logger}
}

// ListPacks handles GET /api/v1/credits/packs.
func (h *BillingHandler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs := make([]api.Pack, 0, len(billing.Packs))
	for _, p := range billing.Packs {
		packs = append(packs, api.Pack{ID: p.ID, Credits: p.Credits, PriceUSD: p.PriceCents / 100})
	}
	api.Success(w, http.StatusOK, api.PacksResponse{Packs: packs})
}

// Purchase handles POST /api/v1/credits/purchase.
func (h *BillingHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req api.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	pack, ok := billing.FindPack(req.PackID)
	if !ok {
		api.Error(w, http.StatusBadRequest, "unknown credit pack: "+req.PackID)
		return
	}

	balance, err := h.billing.Purchase(r.Context(), user.UserID, pack.ID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusOK, api.PurchaseResponse{
		PackID:  pack.ID,
		Added:   pack.Credits,
		Credits: balance,
	})
}
