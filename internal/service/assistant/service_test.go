package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-george/instanthspro/internal/inference"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

type fakeTextModel struct {
	response string
	err      error
	lastOpts inference.TextOptions
	prompt   string
}

func (f *fakeTextModel) Complete(_ context.Context, prompt string, opts inference.TextOptions) (string, error) {
	f.prompt = prompt
	f.lastOpts = opts
	return f.response, f.err
}

func TestSuggestStyles(t *testing.T) {
	model := &fakeTextModel{
		response: `[{"name":"Corporate Classic","description":"Neutral backdrop, formal attire."},
			{"name":"Creative Casual","description":"Soft light, relaxed pose."}]`,
	}
	svc := NewService(model, nil)

	suggestions, err := svc.SuggestStyles(context.Background(), "software engineer")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Corporate Classic", suggestions[0].Name)
	assert.True(t, model.lastOpts.JSON, "structured output must be requested")
	assert.Contains(t, model.prompt, "software engineer")
}

func TestSuggestStylesStripsMarkdownFence(t *testing.T) {
	model := &fakeTextModel{
		response: "```json\n[{\"name\":\"Studio\",\"description\":\"Clean.\"}]\n```",
	}
	svc := NewService(model, nil)

	suggestions, err := svc.SuggestStyles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Studio", suggestions[0].Name)
}

func TestSuggestStylesParseFailure(t *testing.T) {
	model := &fakeTextModel{response: "sorry, I can't help with that"}
	svc := NewService(model, nil)

	_, err := svc.SuggestStyles(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.IsParse(err))
	assert.Contains(t, err.Error(), "could not generate")
}

func TestSuggestStylesFiltersNamelessEntries(t *testing.T) {
	model := &fakeTextModel{response: `[{"name":"","description":"x"},{"name":"Kept","description":"y"}]`}
	svc := NewService(model, nil)

	suggestions, err := svc.SuggestStyles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Kept", suggestions[0].Name)
}

func TestSuggestStylesModelError(t *testing.T) {
	model := &fakeTextModel{err: appErrors.NewTransport("quota exceeded", errors.New("429"))}
	svc := NewService(model, nil)

	_, err := svc.SuggestStyles(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
}

func TestDraftBio(t *testing.T) {
	model := &fakeTextModel{response: "  I build reliable systems.  \n"}
	svc := NewService(model, nil)

	bio, err := svc.DraftBio(context.Background(), "Sam", "engineer", "10 years in infra")
	require.NoError(t, err)
	assert.Equal(t, "I build reliable systems.", bio)
	assert.False(t, model.lastOpts.JSON, "bio drafting is freeform")
	assert.Contains(t, model.prompt, "Sam")
	assert.Contains(t, model.prompt, "10 years in infra")
}

func TestDraftBioModelError(t *testing.T) {
	model := &fakeTextModel{err: errors.New("boom")}
	svc := NewService(model, nil)

	_, err := svc.DraftBio(context.Background(), "", "", "")
	require.Error(t, err)
}
