package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to text clients and the image generator.
// It supports config-driven instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	textClients map[string]TextClient
	image       ImageGenerator
	uploader    Uploader
	logger      *slog.Logger
}

// NewRegistry creates an empty provider registry. The uploader is handed to
// image generators created from config.
func NewRegistry(uploader Uploader) *Registry {
	return &Registry{
		textClients: make(map[string]TextClient),
		uploader:    uploader,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterText registers a text client by name.
func (r *Registry) RegisterText(name string, client TextClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered text client", "name", name)
	}
}

// GetText returns a text client by name.
func (r *Registry) GetText(name string) (TextClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.textClients[name]
	if !ok {
		return nil, fmt.Errorf("text client not found: %s", name)
	}
	return client, nil
}

// HasText checks if a text client is registered.
func (r *Registry) HasText(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.textClients[name]
	return ok
}

// ListText returns all registered text client names.
func (r *Registry) ListText() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.textClients))
	for name := range r.textClients {
		names = append(names, name)
	}
	return names
}

// SetImage registers the image generator.
func (r *Registry) SetImage(gen ImageGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image = gen
}

// Image returns the configured image generator, or an error if none is set.
func (r *Registry) Image() (ImageGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.image == nil {
		return nil, fmt.Errorf("no image generator configured")
	}
	return r.image, nil
}

// RegistryConfig defines the providers to instantiate from config.
// API keys arrive already resolved.
type RegistryConfig struct {
	// Backends maps backend names to their config
	Backends map[string]BackendConfig

	// Image configures the image generation backend
	Image ImageConfig
}

// BackendConfig matches config.BackendCfg with resolved API key.
type BackendConfig struct {
	Type    string // "deepseek", "gemini"
	Model   string
	APIKey  string
	BaseURL string
	Enabled bool
}

// ImageConfig matches config.ImageCfg with resolved API key.
type ImageConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewRegistryFromConfig creates a registry with providers based on
// configuration. Only enabled backends with API keys are registered.
func NewRegistryFromConfig(cfg RegistryConfig, uploader Uploader) *Registry {
	r := NewRegistry(uploader)
	r.applyConfig(cfg)
	return r
}

// Reload updates the registry based on new configuration. Backends no longer
// configured are unregistered; backends with changed settings are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)

	for name, bCfg := range cfg.Backends {
		if !bCfg.Enabled || bCfg.APIKey == "" {
			continue
		}
		want[name] = true

		existing, hasExisting := r.textClients[name]
		if !hasExisting || needsTextUpdate(existing, bCfg) {
			client := createTextClient(name, bCfg)
			if client == nil {
				if r.logger != nil {
					r.logger.Warn("skipping backend with unknown type", "name", name, "type", bCfg.Type)
				}
				continue
			}
			r.textClients[name] = client
			if r.logger != nil {
				if hasExisting {
					r.logger.Info("updated text client", "name", name, "type", bCfg.Type)
				} else {
					r.logger.Info("registered text client", "name", name, "type", bCfg.Type)
				}
			}
		}
	}

	for name := range r.textClients {
		if !want[name] {
			delete(r.textClients, name)
			if r.logger != nil {
				r.logger.Info("unregistered text client", "name", name)
			}
		}
	}

	if cfg.Image.APIKey != "" && cfg.Image.Model != "" {
		if needsImageUpdate(r.image, cfg.Image) {
			r.image = NewGeminiImageClient(GeminiImageConfig{
				Model:    cfg.Image.Model,
				APIKey:   cfg.Image.APIKey,
				BaseURL:  cfg.Image.BaseURL,
				Uploader: r.uploader,
				Logger:   r.logger,
			})
			if r.logger != nil {
				r.logger.Info("configured image generator", "model", cfg.Image.Model)
			}
		}
	} else {
		r.image = nil
	}
}

// applyConfig applies configuration without change detection (used at init).
func (r *Registry) applyConfig(cfg RegistryConfig) {
	for name, bCfg := range cfg.Backends {
		if !bCfg.Enabled || bCfg.APIKey == "" {
			continue
		}
		if client := createTextClient(name, bCfg); client != nil {
			r.textClients[name] = client
		}
	}

	if cfg.Image.APIKey != "" && cfg.Image.Model != "" {
		r.image = NewGeminiImageClient(GeminiImageConfig{
			Model:    cfg.Image.Model,
			APIKey:   cfg.Image.APIKey,
			BaseURL:  cfg.Image.BaseURL,
			Uploader: r.uploader,
			Logger:   r.logger,
		})
	}
}

// createTextClient creates a text client based on backend type.
func createTextClient(name string, cfg BackendConfig) TextClient {
	backend, err := ParseBackend(cfg.Type)
	if err != nil {
		return nil
	}
	switch backend {
	case BackendDeepSeek:
		return NewDeepSeekClient(DeepSeekConfig{
			Name:    name,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	case BackendGemini:
		return NewGeminiClient(GeminiConfig{
			Name:    name,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil
	}
}

// needsTextUpdate checks if a text client needs to be recreated.
func needsTextUpdate(client TextClient, cfg BackendConfig) bool {
	switch c := client.(type) {
	case *DeepSeekClient:
		if cfg.Type != string(BackendDeepSeek) {
			return true
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = deepSeekDefaultBaseURL
		}
		return c.apiKey != cfg.APIKey || c.model != cfg.Model || c.baseURL != baseURL
	case *GeminiClient:
		if cfg.Type != string(BackendGemini) {
			return true
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = geminiDefaultBaseURL
		}
		return c.apiKey != cfg.APIKey || c.model != cfg.Model || c.baseURL != baseURL
	default:
		return true
	}
}

// needsImageUpdate checks if the image generator needs to be recreated.
func needsImageUpdate(gen ImageGenerator, cfg ImageConfig) bool {
	c, ok := gen.(*GeminiImageClient)
	if !ok {
		return true
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	return c.gen.apiKey != cfg.APIKey || c.gen.model != cfg.Model || c.gen.baseURL != baseURL
}
