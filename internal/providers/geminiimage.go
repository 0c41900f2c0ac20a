package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// GeminiImageClient generates illustrations via the Gemini image-capable
// models. Failures never surface as errors: the result carries a neutral
// placeholder image URL so a batch of illustrations degrades item by item
// instead of aborting.
type GeminiImageClient struct {
	gen      *GeminiClient
	uploader Uploader
	logger   *slog.Logger
}

// GeminiImageConfig configures the image generator.
type GeminiImageConfig struct {
	Model    string
	APIKey   string
	BaseURL  string // Override for testing
	Uploader Uploader
	Logger   *slog.Logger
}

// NewGeminiImageClient creates a Gemini-backed image generator.
func NewGeminiImageClient(cfg GeminiImageConfig) *GeminiImageClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiImageClient{
		gen: NewGeminiClient(GeminiConfig{
			Name:    "gemini-image",
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		}),
		uploader: cfg.Uploader,
		logger:   logger,
	}
}

// Name returns the generator identifier.
func (c *GeminiImageClient) Name() string {
	return c.gen.name
}

// Generate creates an image for the prompt and uploads it to the hosting
// layer. On any failure it logs and returns a placeholder result.
func (c *GeminiImageClient) Generate(ctx context.Context, prompt, label string) ImageResult {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.gen.doRequest(ctx, body)
	if err != nil {
		c.logger.Warn("image generation failed, using placeholder", "label", label, "error", err)
		return placeholderResult(label)
	}

	data, mimeType, err := firstInlineImage(resp)
	if err != nil {
		c.logger.Warn("image generation returned no image, using placeholder", "label", label, "error", err)
		return placeholderResult(label)
	}

	name := fmt.Sprintf("%s%s", label, extensionFor(mimeType))
	hosted, err := c.uploader.Upload(data, name)
	if err != nil {
		c.logger.Warn("image upload failed, using placeholder", "label", label, "error", err)
		return placeholderResult(label)
	}

	return ImageResult{URL: hosted, MimeType: mimeType}
}

// firstInlineImage extracts the first inline image part from a response.
func firstInlineImage(resp *geminiResponse) ([]byte, string, error) {
	if len(resp.Candidates) == 0 {
		return nil, "", fmt.Errorf("no candidates in response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode image data: %w", err)
		}
		return data, part.InlineData.MimeType, nil
	}
	return nil, "", fmt.Errorf("no inline image in response parts")
}

// extensionFor maps a mime type to a filename extension.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// placeholderResult builds a neutral placeholder image reference labeled with
// the request tag.
func placeholderResult(label string) ImageResult {
	text := strings.TrimSpace(label)
	if text == "" {
		text = "image"
	}
	return ImageResult{
		URL:         "https://placehold.co/800x600/e8e8e8/666?text=" + url.QueryEscape(text),
		Placeholder: true,
	}
}

var _ ImageGenerator = (*GeminiImageClient)(nil)
