package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pressroom/pressroom/internal/config"
	"github.com/pressroom/pressroom/internal/home"
	"github.com/pressroom/pressroom/internal/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  host: 127.0.0.1\n  port: \"0\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfgMgr, err := config.NewManager(cfgPath)
	if err != nil {
		t.Fatalf("failed to create config manager: %v", err)
	}

	h, err := home.New(filepath.Join(dir, "home"))
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}

	s, err := New(Config{Home: h, ConfigManager: cfgMgr, Logger: nil})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	if err := s.initServices(); err != nil {
		t.Fatalf("failed to init services: %v", err)
	}
	t.Cleanup(func() { s.shutdown() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body, out any) int {
	t.Helper()
	payload, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("failed to decode response %q: %v", data, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var health map[string]string
	if code := getJSON(t, ts.URL+"/health", &health); code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", code)
	}
	if health["status"] != "ok" {
		t.Errorf("unexpected health status %q", health["status"])
	}

	if code := getJSON(t, ts.URL+"/ready", nil); code != http.StatusOK {
		t.Errorf("expected 200 from /ready, got %d", code)
	}

	var status map[string]any
	if code := getJSON(t, ts.URL+"/status", &status); code != http.StatusOK {
		t.Errorf("expected 200 from /status, got %d", code)
	}
	if status["server"] != "running" {
		t.Errorf("unexpected server status %v", status["server"])
	}
}

func TestProjectLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	var created store.Project
	code := postJSON(t, ts.URL+"/api/projects", map[string]string{"company_name": "百济神州"}, &created)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if created.ID == "" || created.CompanyName != "百济神州" {
		t.Fatalf("unexpected project %+v", created)
	}

	var fetched store.Project
	if code := getJSON(t, ts.URL+"/api/projects/"+created.ID, &fetched); code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", code)
	}
	if fetched.ID != created.ID {
		t.Errorf("fetched wrong project: %q", fetched.ID)
	}

	var list struct {
		Projects []store.Project `json:"projects"`
	}
	if code := getJSON(t, ts.URL+"/api/projects", &list); code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", code)
	}
	if len(list.Projects) != 1 {
		t.Errorf("expected 1 project, got %d", len(list.Projects))
	}

	patch, _ := json.Marshal(map[string]string{"status": "drafting"})
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/projects/"+created.ID, bytes.NewReader(patch))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	var patched store.Project
	json.NewDecoder(resp.Body).Decode(&patched)
	resp.Body.Close()
	if patched.Status != "drafting" {
		t.Errorf("expected updated status, got %q", patched.Status)
	}

	del, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/projects/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", resp.StatusCode)
	}

	if code := getJSON(t, ts.URL+"/api/projects/"+created.ID, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestValidationErrors(t *testing.T) {
	_, ts := newTestServer(t)

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"project without company", "/api/projects", map[string]any{}},
		{"framework without company", "/api/framework", map[string]any{}},
		{"storyline without research", "/api/storyline", map[string]any{}},
		{"article without anything", "/api/article", map[string]any{}},
		{"split without article", "/api/article/split", map[string]any{}},
		{"skeleton without inputs", "/api/skeleton", map[string]any{"article": "a"}},
		{"images without prompts", "/api/images", map[string]any{}},
		{"finalize without skeleton", "/api/finalize", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var errResp map[string]string
			code := postJSON(t, ts.URL+tc.path, tc.body, &errResp)
			if code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", code)
			}
			if errResp["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestUninitializedServerReturns503(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	os.WriteFile(cfgPath, []byte("server:\n  host: 127.0.0.1\n"), 0o644)

	cfgMgr, err := config.NewManager(cfgPath)
	if err != nil {
		t.Fatalf("failed to create config manager: %v", err)
	}
	h, _ := home.New(filepath.Join(dir, "home"))

	s, err := New(Config{Home: h, ConfigManager: cfgMgr})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	// No initServices call: API routes must refuse, health must answer.
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/health", nil); code != http.StatusOK {
		t.Errorf("health should answer before init, got %d", code)
	}
	if code := getJSON(t, ts.URL+"/api/projects", nil); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before init, got %d", code)
	}
}

func TestPublishWithoutCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	var errResp map[string]string
	code := postJSON(t, ts.URL+"/api/publish", map[string]string{
		"title":   "t",
		"content": "body",
		"cover":   "data:image/png;base64,AAAA",
	}, &errResp)
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without wechat credentials, got %d", code)
	}
}

func TestHostedFiles(t *testing.T) {
	s, ts := newTestServer(t)

	name := "test-image.png"
	if err := os.WriteFile(s.home.FilePath(name), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write hosted file: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/files/%s", ts.URL, name))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for hosted file, got %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "png-bytes" {
		t.Errorf("unexpected file contents %q", data)
	}
}
