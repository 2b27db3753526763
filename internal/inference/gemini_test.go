package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewGeminiClient(GeminiConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		ImageModel: "image-model",
		TextModel:  "text-model",
	}, server.Client(), nil)
	return client, server
}

func TestEditImageRoundTripFidelity(t *testing.T) {
	source := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02, 0xff}
	generated := []byte("generated-image-bytes")

	var decodedOnServer []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.Len(t, req.Contents, 1)
		var inline *inlineData
		for _, p := range req.Contents[0].Parts {
			if p.InlineData != nil {
				inline = p.InlineData
			}
		}
		require.NotNil(t, inline, "request must carry the source image")

		var err error
		decodedOnServer, err = base64.StdEncoding.DecodeString(inline.Data)
		require.NoError(t, err)

		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content content `json:"content"`
		}{Content: content{Parts: []part{
			{Text: "here is your headshot"},
			{InlineData: &inlineData{
				MIMEType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(generated),
			}},
		}}})
		json.NewEncoder(w).Encode(resp)
	})

	result, err := client.EditImage(context.Background(), ImageRequest{
		SystemInstruction: "professional headshot",
		StylePrompt:       "studio lighting",
		Source:            source,
		MIMEType:          "image/jpeg",
	})
	require.NoError(t, err)

	// The simulated endpoint received byte-identical content.
	assert.Equal(t, source, decodedOnServer)

	require.True(t, result.HasImage())
	assert.Equal(t, generated, result.Data)
	assert.Equal(t, "image/png", result.MIMEType)
	assert.Equal(t, "here is your headshot", result.Text)
}

func TestEditImageRequestsBothModalities(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)
		json.NewEncoder(w).Encode(generateResponse{})
	})

	_, err := client.EditImage(context.Background(), ImageRequest{Source: []byte{1}, MIMEType: "image/png"})
	require.NoError(t, err)
}

func TestEditImageNoImagePartIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content content `json:"content"`
		}{Content: content{Parts: []part{{Text: "I cannot do that"}}}})
		json.NewEncoder(w).Encode(resp)
	})

	result, err := client.EditImage(context.Background(), ImageRequest{Source: []byte{1}, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.False(t, result.HasImage())
	assert.Equal(t, "I cannot do that", result.Text)
}

func TestEditImagePassesProviderErrorThrough(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.EditImage(context.Background(), ImageRequest{Source: []byte{1}, MIMEType: "image/png"})
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
	assert.Contains(t, err.Error(), "Resource has been exhausted")
}

func TestCompleteText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.GenerationConfig)

		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content content `json:"content"`
		}{Content: content{Parts: []part{{Text: "a short bio"}}}})
		json.NewEncoder(w).Encode(resp)
	})

	text, err := client.Complete(context.Background(), "write a bio", TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a short bio", text)
}

func TestCompleteJSONModeSetsResponseMIME(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content content `json:"content"`
		}{Content: content{Parts: []part{{Text: `[{"name":"Corporate"}]`}}}})
		json.NewEncoder(w).Encode(resp)
	})

	text, err := client.Complete(context.Background(), "suggest styles", TextOptions{JSON: true})
	require.NoError(t, err)
	assert.Contains(t, text, "Corporate")
}

func TestCompleteEmptyResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	})

	_, err := client.Complete(context.Background(), "prompt", TextOptions{})
	require.Error(t, err)
	assert.True(t, appErrors.IsEmptyResult(err))
}

func TestTransportErrorWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewGeminiClient(GeminiConfig{
		BaseURL:    server.URL,
		APIKey:     "k",
		ImageModel: "m",
		TextModel:  "m",
	}, nil, nil)

	_, err := client.EditImage(context.Background(), ImageRequest{Source: []byte{1}, MIMEType: "image/png"})
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
}
