package providers

import (
	"testing"
)

type nopUploader struct{}

func (nopUploader) Upload(data []byte, name string) (string, error) {
	return "http://localhost/files/" + name, nil
}

func testRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Backends: map[string]BackendConfig{
			"deepseek": {
				Type:    "deepseek",
				Model:   "deepseek-reasoner",
				APIKey:  "key-a",
				Enabled: true,
			},
			"gemini": {
				Type:    "gemini",
				Model:   "gemini-2.0-flash",
				APIKey:  "key-b",
				Enabled: true,
			},
		},
		Image: ImageConfig{
			Model:  "gemini-2.0-flash-exp",
			APIKey: "key-b",
		},
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r := NewRegistryFromConfig(testRegistryConfig(), nopUploader{})

	if !r.HasText("deepseek") {
		t.Error("expected deepseek to be registered")
	}
	if !r.HasText("gemini") {
		t.Error("expected gemini to be registered")
	}
	if _, err := r.Image(); err != nil {
		t.Errorf("expected image generator: %v", err)
	}

	t.Run("disabled backend not registered", func(t *testing.T) {
		cfg := testRegistryConfig()
		b := cfg.Backends["gemini"]
		b.Enabled = false
		cfg.Backends["gemini"] = b

		r := NewRegistryFromConfig(cfg, nopUploader{})
		if r.HasText("gemini") {
			t.Error("disabled backend should not be registered")
		}
	})

	t.Run("missing API key not registered", func(t *testing.T) {
		cfg := testRegistryConfig()
		b := cfg.Backends["deepseek"]
		b.APIKey = ""
		cfg.Backends["deepseek"] = b

		r := NewRegistryFromConfig(cfg, nopUploader{})
		if r.HasText("deepseek") {
			t.Error("backend without API key should not be registered")
		}
	})

	t.Run("unknown type skipped", func(t *testing.T) {
		cfg := testRegistryConfig()
		cfg.Backends["weird"] = BackendConfig{Type: "weird", APIKey: "k", Enabled: true}

		r := NewRegistryFromConfig(cfg, nopUploader{})
		if r.HasText("weird") {
			t.Error("unknown backend type should be skipped")
		}
	})
}

func TestRegistry_GetText(t *testing.T) {
	r := NewRegistry(nopUploader{})
	mock := NewMockTextClient()
	r.RegisterText("mock", mock)

	client, err := r.GetText("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != MockClientName {
		t.Errorf("expected %s, got %s", MockClientName, client.Name())
	}

	if _, err := r.GetText("missing"); err == nil {
		t.Error("expected error for missing client")
	}
}

func TestRegistry_Reload(t *testing.T) {
	t.Run("removes deconfigured backend", func(t *testing.T) {
		r := NewRegistryFromConfig(testRegistryConfig(), nopUploader{})

		cfg := testRegistryConfig()
		delete(cfg.Backends, "gemini")
		r.Reload(cfg)

		if r.HasText("gemini") {
			t.Error("deconfigured backend should be removed")
		}
		if !r.HasText("deepseek") {
			t.Error("still-configured backend should remain")
		}
	})

	t.Run("unchanged backend keeps same client", func(t *testing.T) {
		r := NewRegistryFromConfig(testRegistryConfig(), nopUploader{})
		before, _ := r.GetText("deepseek")

		r.Reload(testRegistryConfig())
		after, _ := r.GetText("deepseek")

		if before != after {
			t.Error("unchanged backend should not be recreated")
		}
	})

	t.Run("changed API key recreates client", func(t *testing.T) {
		r := NewRegistryFromConfig(testRegistryConfig(), nopUploader{})
		before, _ := r.GetText("deepseek")

		cfg := testRegistryConfig()
		b := cfg.Backends["deepseek"]
		b.APIKey = "rotated"
		cfg.Backends["deepseek"] = b
		r.Reload(cfg)

		after, _ := r.GetText("deepseek")
		if before == after {
			t.Error("changed backend should be recreated")
		}
	})

	t.Run("clearing image config removes generator", func(t *testing.T) {
		r := NewRegistryFromConfig(testRegistryConfig(), nopUploader{})

		cfg := testRegistryConfig()
		cfg.Image = ImageConfig{}
		r.Reload(cfg)

		if _, err := r.Image(); err == nil {
			t.Error("expected no image generator after clearing config")
		}
	})
}

func TestParseBackend(t *testing.T) {
	for _, valid := range []string{"deepseek", "gemini"} {
		if _, err := ParseBackend(valid); err != nil {
			t.Errorf("expected %q to parse: %v", valid, err)
		}
	}
	if _, err := ParseBackend("openai"); err == nil {
		t.Error("expected unknown backend to fail")
	}
}
