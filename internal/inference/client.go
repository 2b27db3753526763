// Package inference abstracts the generative inference endpoint: image-
// conditioned image generation and text generation, optionally constrained
// to structured JSON output.
package inference

import (
	"context"
)

// ImageRequest is one image-conditioned generation call.
type ImageRequest struct {
	// SystemInstruction is the fixed instruction describing the desired
	// photographic style.
	SystemInstruction string
	// StylePrompt is the user-supplied free-text style request.
	StylePrompt string
	// Source is the raw bytes of the conditioning image.
	Source []byte
	// MIMEType describes Source (e.g. image/jpeg).
	MIMEType string
}

// ImageResult is one generation response. Data is nil when the endpoint
// answered successfully but produced no image part; callers decide how to
// account for that.
type ImageResult struct {
	Data     []byte
	MIMEType string
	Text     string
}

// HasImage reports whether the endpoint returned an image payload.
func (r ImageResult) HasImage() bool {
	return len(r.Data) > 0
}

// TextOptions configures a text completion request.
type TextOptions struct {
	// JSON requests strictly structured JSON output.
	JSON bool
}

// ImageModel is the image-generation boundary.
type ImageModel interface {
	EditImage(ctx context.Context, req ImageRequest) (ImageResult, error)
}

// TextModel is the text-generation boundary.
type TextModel interface {
	Complete(ctx context.Context, prompt string, opts TextOptions) (string, error)
}
