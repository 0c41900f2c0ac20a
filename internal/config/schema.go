package config

// Config holds pressroom configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server   ServerCfg                 `mapstructure:"server" yaml:"server"`
	Backends map[string]BackendCfg     `mapstructure:"backends" yaml:"backends"`
	Images   ImageCfg                  `mapstructure:"images" yaml:"images"`
	Router   RouterCfg                 `mapstructure:"router" yaml:"router"`
	WeChat   WeChatCfg                 `mapstructure:"wechat" yaml:"wechat"`
	Session  SessionCfg                `mapstructure:"session" yaml:"session"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// BaseURL is the externally visible URL used for hosted file references.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BackendCfg configures a text-generation backend.
type BackendCfg struct {
	Type    string `mapstructure:"type" yaml:"type"`         // "deepseek", "gemini"
	Model   string `mapstructure:"model" yaml:"model"`       // Model name
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // API base URL override
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ImageCfg configures the image-generation backend.
type ImageCfg struct {
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RouterCfg tunes the fallback router's retry budgets.
type RouterCfg struct {
	FastRetries    int `mapstructure:"fast_retries" yaml:"fast_retries"`
	QualityRetries int `mapstructure:"quality_retries" yaml:"quality_retries"`
}

// WeChatCfg holds WeChat Official Account credentials.
type WeChatCfg struct {
	AppID     string `mapstructure:"app_id" yaml:"app_id"`
	AppSecret string `mapstructure:"app_secret" yaml:"app_secret"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
}

// SessionCfg tunes the ephemeral research-session store.
type SessionCfg struct {
	TTLMinutes   int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
	SweepMinutes int `mapstructure:"sweep_minutes" yaml:"sweep_minutes"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:    "127.0.0.1",
			Port:    "8080",
			BaseURL: "http://localhost:8080",
		},
		Backends: map[string]BackendCfg{
			"deepseek": {
				Type:    "deepseek",
				Model:   "deepseek-reasoner",
				APIKey:  "${DEEPSEEK_API_KEY}",
				BaseURL: "https://api.deepseek.com",
				Enabled: true,
			},
			"gemini": {
				Type:    "gemini",
				Model:   "gemini-2.0-flash",
				APIKey:  "${GEMINI_API_KEY}",
				Enabled: true,
			},
		},
		Images: ImageCfg{
			Model:  "gemini-2.0-flash-exp",
			APIKey: "${GEMINI_API_KEY}",
		},
		Router: RouterCfg{
			FastRetries:    3,
			QualityRetries: 2,
		},
		WeChat: WeChatCfg{
			AppID:     "${WECHAT_APP_ID}",
			AppSecret: "${WECHAT_APP_SECRET}",
		},
		Session: SessionCfg{
			TTLMinutes:   120,
			SweepMinutes: 5,
		},
	}
}

// GetBackend returns a backend config by name.
func (c *Config) GetBackend(name string) (BackendCfg, bool) {
	cfg, ok := c.Backends[name]
	return cfg, ok
}

// EnabledBackends returns all enabled text backends.
func (c *Config) EnabledBackends() map[string]BackendCfg {
	result := make(map[string]BackendCfg)
	for name, cfg := range c.Backends {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
