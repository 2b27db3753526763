package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// GeminiConfig configures the REST client.
type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	ImageModel string
	TextModel  string
}

// GeminiClient talks to a Gemini-style generateContent REST endpoint. All
// calls go through a circuit breaker so a misbehaving endpoint sheds load
// instead of stacking up hung requests. No timeout is imposed beyond the
// injected http.Client's own; a hung call hangs the operation.
type GeminiClient struct {
	config     GeminiConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewGeminiClient creates a client. A nil httpClient falls back to
// http.DefaultClient.
func NewGeminiClient(config GeminiConfig, httpClient *http.Client, logger *zap.Logger) *GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("GeminiClient")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "inference",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &GeminiClient{
		config:     config,
		httpClient: httpClient,
		breaker:    breaker,
		logger:     log,
	}
}

var (
	_ ImageModel = (*GeminiClient)(nil)
	_ TextModel  = (*GeminiClient)(nil)
)

// Wire types for the generateContent API.

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EditImage sends one conditioning image plus the style texts, requesting
// text and image output modalities, and extracts the image payload.
func (c *GeminiClient) EditImage(ctx context.Context, req ImageRequest) (ImageResult, error) {
	body := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: req.SystemInstruction}}},
		Contents: []content{{
			Parts: []part{
				{Text: req.StylePrompt},
				{InlineData: &inlineData{
					MIMEType: req.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(req.Source),
				}},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	resp, err := c.generate(ctx, c.config.ImageModel, body)
	if err != nil {
		return ImageResult{}, err
	}

	result := ImageResult{}
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData != nil && result.Data == nil {
				data, decodeErr := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if decodeErr != nil {
					return ImageResult{}, appErrors.NewTransport("malformed image payload in response", decodeErr)
				}
				result.Data = data
				result.MIMEType = p.InlineData.MIMEType
			}
			if p.Text != "" && result.Text == "" {
				result.Text = p.Text
			}
		}
	}
	return result, nil
}

// Complete sends one text prompt and returns the first text part.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if opts.JSON {
		body.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := c.generate(ctx, c.config.TextModel, body)
	if err != nil {
		return "", err
	}

	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", appErrors.NewEmptyResult("no text in inference response")
}

func (c *GeminiClient) generate(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.doGenerate(ctx, model, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, appErrors.NewTransport("inference endpoint unavailable", err)
		}
		return nil, err
	}
	return out.(*generateResponse), nil
}

func (c *GeminiClient) doGenerate(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, appErrors.NewInternal("failed to encode inference request", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.config.BaseURL, model, c.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.NewInternal("failed to build inference request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, appErrors.NewTransport("inference endpoint unreachable", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, appErrors.NewTransport("failed to read inference response", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Pass the provider's own error text through to the user.
		var apiErr apiErrorResponse
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return nil, appErrors.NewTransport(apiErr.Error.Message, fmt.Errorf("status %d", httpResp.StatusCode))
		}
		return nil, appErrors.NewTransport(
			fmt.Sprintf("inference endpoint returned status %d", httpResp.StatusCode), nil)
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, appErrors.NewTransport("malformed inference response", err)
	}
	return &resp, nil
}
