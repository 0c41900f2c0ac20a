// Package providers implements the text and image generation backends and
// the registry that instantiates them from configuration.
package providers

import (
	"context"
	"fmt"
)

// Backend identifies a text-generation backend family.
type Backend string

const (
	BackendDeepSeek Backend = "deepseek"
	BackendGemini   Backend = "gemini"
)

// ParseBackend validates a backend type string from configuration.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendDeepSeek, BackendGemini:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("unknown backend type: %q", s)
	}
}

// TextClient is the interface for single-shot text generation. Every pipeline
// stage sends one prompt and expects one completion; conversation state lives
// in the prompts, not the client.
type TextClient interface {
	// Generate sends a prompt and returns the completion text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the client identifier (e.g., "deepseek", "gemini").
	Name() string
}

// ImageResult is the outcome of an image generation request. Generation never
// fails outright: when the backend cannot produce an image the result carries
// a placeholder URL instead, so a batch of illustrations degrades per item.
type ImageResult struct {
	// URL is a hosted reference to the generated image, or a placeholder
	// image URL when generation failed.
	URL string

	// MimeType of the generated image, empty for placeholders.
	MimeType string

	// Placeholder is true when URL points at a fallback image.
	Placeholder bool
}

// ImageGenerator produces an illustration for a text prompt.
type ImageGenerator interface {
	// Generate creates an image for the prompt. label is a short tag used
	// in hosted filenames and placeholder text.
	Generate(ctx context.Context, prompt, label string) ImageResult

	// Name returns the generator identifier.
	Name() string
}

// Uploader persists image bytes and returns a publicly reachable URL.
// Decouples generators from the hosting layer.
type Uploader interface {
	Upload(data []byte, name string) (string, error)
}
