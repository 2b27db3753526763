package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/service/assistant"
	"github.com/zack-george/instanthspro/pkg/api"
)

// AssistantHandler serves the text-generation helpers.
type AssistantHandler struct {
	assistant *assistant.Service
	logger    *zap.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(svc *assistant.Service, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: svc, logger: logger}
}

// SuggestStyles handles POST /api/v1/assistant/styles.
func (h *AssistantHandler) SuggestStyles(w http.ResponseWriter, r *http.Request) {
	var req api.SuggestStylesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	suggestions, err := h.assistant.SuggestStyles(r.Context(), req.Profession)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	out := make([]api.StyleSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, api.StyleSuggestion{Name: s.Name, Description: s.Description})
	}
	api.Success(w, http.StatusOK, api.SuggestStylesResponse{Suggestions: out})
}

// DraftBio handles POST /api/v1/assistant/bio.
func (h *AssistantHandler) DraftBio(w http.ResponseWriter, r *http.Request) {
	var req api.DraftBioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	bio, err := h.assistant.DraftBio(r.Context(), req.Name, req.Profession, req.Highlights)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusOK, api.DraftBioResponse{Bio: bio})
}
