package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockTextClient is a TextClient for testing.
type MockTextClient struct {
	// Configurable behavior
	ClientName   string
	Latency      time.Duration
	ShouldFail   bool
	FailFirst    int // Fail the first N requests (0 = never)
	ResponseText string

	// State
	requestCount atomic.Int64
}

// NewMockTextClient creates a mock text client with sensible defaults.
func NewMockTextClient() *MockTextClient {
	return &MockTextClient{
		ClientName:   MockClientName,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockTextClient) Name() string {
	return c.ClientName
}

// Generate returns the configured response text.
func (c *MockTextClient) Generate(ctx context.Context, prompt string) (string, error) {
	count := c.requestCount.Add(1)

	if c.ShouldFail {
		return "", fmt.Errorf("mock client configured to fail")
	}
	if c.FailFirst > 0 && int(count) <= c.FailFirst {
		return "", fmt.Errorf("mock client failing request %d of %d", count, c.FailFirst)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return c.ResponseText, nil
}

// RequestCount returns the number of requests made.
func (c *MockTextClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Reset resets the request counter.
func (c *MockTextClient) Reset() {
	c.requestCount.Store(0)
}

var _ TextClient = (*MockTextClient)(nil)

// MockImageGenerator is an ImageGenerator for testing.
type MockImageGenerator struct {
	GeneratorName  string
	URL            string
	UsePlaceholder bool

	requestCount atomic.Int64
}

// NewMockImageGenerator creates a mock image generator.
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{
		GeneratorName: "mock-image",
		URL:           "http://localhost/files/mock.png",
	}
}

// Name returns the generator identifier.
func (g *MockImageGenerator) Name() string {
	return g.GeneratorName
}

// Generate returns the configured URL, or a placeholder when so configured.
func (g *MockImageGenerator) Generate(ctx context.Context, prompt, label string) ImageResult {
	g.requestCount.Add(1)
	if g.UsePlaceholder {
		return placeholderResult(label)
	}
	return ImageResult{URL: g.URL, MimeType: "image/png"}
}

// RequestCount returns the number of requests made.
func (g *MockImageGenerator) RequestCount() int64 {
	return g.requestCount.Load()
}

var _ ImageGenerator = (*MockImageGenerator)(nil)
