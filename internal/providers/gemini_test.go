package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func geminiTextResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGeminiClient_Generate(t *testing.T) {
	t.Run("returns completion text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("key") != "test-key" {
				t.Errorf("missing API key in query")
			}

			var req geminiRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("bad request body: %v", err)
			}
			if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
				t.Errorf("unexpected request contents: %+v", req.Contents)
			}

			w.Write([]byte(geminiTextResponse("world")))
		}))
		defer srv.Close()

		c := NewGeminiClient(GeminiConfig{Model: "test-model", APIKey: "test-key", BaseURL: srv.URL})
		out, err := c.Generate(context.Background(), "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "world" {
			t.Errorf("expected %q, got %q", "world", out)
		}
	})

	t.Run("retries on 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(geminiTextResponse("recovered")))
		}))
		defer srv.Close()

		c := NewGeminiClient(GeminiConfig{Model: "m", APIKey: "k", BaseURL: srv.URL})
		c.retryDelay = 0

		out, err := c.Generate(context.Background(), "p")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "recovered" {
			t.Errorf("expected %q, got %q", "recovered", out)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewGeminiClient(GeminiConfig{Model: "m", APIKey: "k", BaseURL: srv.URL})
		c.retryDelay = 0

		if _, err := c.Generate(context.Background(), "p"); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("empty candidates is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		c := NewGeminiClient(GeminiConfig{Model: "m", APIKey: "k", BaseURL: srv.URL})
		if _, err := c.Generate(context.Background(), "p"); err == nil {
			t.Error("expected error for empty candidates")
		}
	})
}

type recordingUploader struct {
	data []byte
	name string
}

func (u *recordingUploader) Upload(data []byte, name string) (string, error) {
	u.data = data
	u.name = name
	return "http://localhost/files/" + name, nil
}

func TestGeminiImageClient_Generate(t *testing.T) {
	pngBytes := []byte{0x89, 0x50, 0x4e, 0x47}

	t.Run("uploads generated image", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req geminiRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.GenerationConfig == nil || len(req.GenerationConfig.ResponseModalities) == 0 {
				t.Error("expected responseModalities in request")
			}

			resp := map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{
						{"text": "here is your image"},
						{"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(pngBytes),
						}},
					}}},
				},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		up := &recordingUploader{}
		c := NewGeminiImageClient(GeminiImageConfig{
			Model: "img-model", APIKey: "k", BaseURL: srv.URL, Uploader: up,
		})

		res := c.Generate(context.Background(), "draw a cell", "block-1")
		if res.Placeholder {
			t.Fatal("expected real image, got placeholder")
		}
		if res.URL != "http://localhost/files/block-1.png" {
			t.Errorf("unexpected URL %q", res.URL)
		}
		if res.MimeType != "image/png" {
			t.Errorf("unexpected mime type %q", res.MimeType)
		}
		if string(up.data) != string(pngBytes) {
			t.Error("uploaded bytes do not match generated image")
		}
	})

	t.Run("placeholder on backend failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewGeminiImageClient(GeminiImageConfig{
			Model: "m", APIKey: "k", BaseURL: srv.URL, Uploader: &recordingUploader{},
		})
		c.gen.retryDelay = 0

		res := c.Generate(context.Background(), "p", "block-2")
		if !res.Placeholder {
			t.Fatal("expected placeholder result")
		}
		if !strings.Contains(res.URL, "placehold.co") {
			t.Errorf("unexpected placeholder URL %q", res.URL)
		}
		if !strings.Contains(res.URL, "block-2") {
			t.Errorf("placeholder should carry the label: %q", res.URL)
		}
	})

	t.Run("placeholder when response has no image part", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiTextResponse("sorry, text only")))
		}))
		defer srv.Close()

		c := NewGeminiImageClient(GeminiImageConfig{
			Model: "m", APIKey: "k", BaseURL: srv.URL, Uploader: &recordingUploader{},
		})

		res := c.Generate(context.Background(), "p", "block-3")
		if !res.Placeholder {
			t.Error("expected placeholder result")
		}
	})
}
