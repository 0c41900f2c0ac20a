package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"
)

// Default backend names as they appear in configuration.
const (
	FastBackendName    = "gemini"
	QualityBackendName = "deepseek"
)

// Router dispatches text generation across the configured backends with
// retry and cross-backend fallback. Two strategies exist: fast-first prefers
// the low-latency backend for interactive stages, quality-first prefers the
// reasoning backend for long-form writing. Both fall back to the other
// backend after exhausting their retry budget.
type Router struct {
	registry       *Registry
	fastRetries    int
	qualityRetries int
	logger         *slog.Logger
}

// RouterConfig tunes per-strategy retry budgets.
type RouterConfig struct {
	FastRetries    int
	QualityRetries int
}

// NewRouter creates a router over the registry.
func NewRouter(registry *Registry, cfg RouterConfig, logger *slog.Logger) *Router {
	if cfg.FastRetries <= 0 {
		cfg.FastRetries = 3
	}
	if cfg.QualityRetries <= 0 {
		cfg.QualityRetries = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:       registry,
		fastRetries:    cfg.FastRetries,
		qualityRetries: cfg.QualityRetries,
		logger:         logger,
	}
}

// SetRetries updates retry budgets, used on config hot-reload.
func (r *Router) SetRetries(cfg RouterConfig) {
	if cfg.FastRetries > 0 {
		r.fastRetries = cfg.FastRetries
	}
	if cfg.QualityRetries > 0 {
		r.qualityRetries = cfg.QualityRetries
	}
}

// GenerateFast runs the fast-first strategy: the fast backend gets the full
// retry budget, then the quality backend gets one attempt.
func (r *Router) GenerateFast(ctx context.Context, prompt string) (string, error) {
	return r.generate(ctx, prompt, FastBackendName, r.fastRetries, QualityBackendName)
}

// GenerateQuality runs the quality-first strategy: the quality backend gets
// the full retry budget, then the fast backend gets one attempt.
func (r *Router) GenerateQuality(ctx context.Context, prompt string) (string, error) {
	return r.generate(ctx, prompt, QualityBackendName, r.qualityRetries, FastBackendName)
}

// GenerateDirect sends the prompt to one named backend with no fallback.
func (r *Router) GenerateDirect(ctx context.Context, backend, prompt string) (string, error) {
	client, err := r.registry.GetText(backend)
	if err != nil {
		return "", err
	}
	return client.Generate(ctx, prompt)
}

// generate tries the primary backend up to attempts times, then the fallback
// backend once. Attempt failures are logged and swallowed until both
// backends are exhausted.
func (r *Router) generate(ctx context.Context, prompt, primary string, attempts int, fallback string) (string, error) {
	primaryClient, primaryErr := r.registry.GetText(primary)
	if primaryErr == nil {
		var result string
		err := retry.Do(
			func() error {
				out, err := primaryClient.Generate(ctx, prompt)
				if err != nil {
					return err
				}
				result = out
				return nil
			},
			retry.Attempts(uint(attempts)),
			retry.Delay(0),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				r.logger.Warn("text generation attempt failed",
					"backend", primary, "attempt", n+1, "error", err)
			}),
		)
		if err == nil {
			return result, nil
		}
		primaryErr = err
		r.logger.Warn("primary backend exhausted, falling back",
			"primary", primary, "fallback", fallback, "error", err)
	} else {
		r.logger.Warn("primary backend unavailable, falling back",
			"primary", primary, "fallback", fallback, "error", primaryErr)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fallbackClient, err := r.registry.GetText(fallback)
	if err != nil {
		return "", fmt.Errorf("all backends failed: %s: %w; %s: %v", primary, primaryErr, fallback, err)
	}
	result, err := fallbackClient.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("all backends failed: %s: %w; %s: %v", fallback, err, primary, primaryErr)
	}
	return result, nil
}
