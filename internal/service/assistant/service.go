// Package assistant provides the auxiliary text-generation features:
// style suggestions and bio drafting. Neither consumes credits.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/inference"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// Service runs one-shot prompts against the text model.
type Service struct {
	model  inference.TextModel
	logger *zap.Logger
}

// NewService creates the assistant service.
func NewService(model inference.TextModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		model:  model,
		logger: logger.Named("AssistantService"),
	}
}

// SuggestStyles asks the model for headshot style ideas as structured
// JSON. A malformed response is reported as a generic failure; there is no
// retry.
func (s *Service) SuggestStyles(ctx context.Context, profession string) ([]domain.StyleSuggestion, error) {
	prompt := s.buildStylePrompt(profession)

	response, err := s.model.Complete(ctx, prompt, inference.TextOptions{JSON: true})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get style suggestions")
	}

	suggestions, err := parseStyleResponse(response)
	if err != nil {
		s.logger.Warn("style suggestion response did not parse", zap.Error(err))
		return nil, appErrors.NewParse("could not generate style suggestions", err)
	}
	return suggestions, nil
}

// DraftBio asks the model for a short professional bio. The response is
// freeform text; no parsing is required.
func (s *Service) DraftBio(ctx context.Context, name, profession, highlights string) (string, error) {
	prompt := s.buildBioPrompt(name, profession, highlights)

	bio, err := s.model.Complete(ctx, prompt, inference.TextOptions{})
	if err != nil {
		return "", appErrors.Wrap(err, "failed to draft bio")
	}
	return strings.TrimSpace(bio), nil
}

func (s *Service) buildStylePrompt(profession string) string {
	if profession == "" {
		profession = "a corporate professional"
	}
	return fmt.Sprintf(`Suggest 4 headshot photography styles suited to %s.

Return a JSON array with this structure:
[
  {"name": "Style Name", "description": "one concise sentence describing the look"}
]

Rules:
1. Keep names to 2-3 words
2. Descriptions must be a single sentence
3. Styles should span formal to approachable
`, profession)
}

func (s *Service) buildBioPrompt(name, profession, highlights string) string {
	var b strings.Builder
	b.WriteString("Write a short, confident professional bio in the first person, 3-4 sentences, no headers.\n")
	if name != "" {
		fmt.Fprintf(&b, "Name: %s\n", name)
	}
	if profession != "" {
		fmt.Fprintf(&b, "Profession: %s\n", profession)
	}
	if highlights != "" {
		fmt.Fprintf(&b, "Career highlights: %s\n", highlights)
	}
	return b.String()
}

// parseStyleResponse parses the model's JSON, tolerating markdown fences.
func parseStyleResponse(response string) ([]domain.StyleSuggestion, error) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	var suggestions []domain.StyleSuggestion
	if err := json.Unmarshal([]byte(response), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var valid []domain.StyleSuggestion
	for _, suggestion := range suggestions {
		if suggestion.Name != "" {
			valid = append(valid, suggestion)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("response contained no usable suggestions")
	}
	return valid, nil
}
