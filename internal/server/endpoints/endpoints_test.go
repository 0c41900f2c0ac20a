package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pressroom/pressroom/internal/home"
	"github.com/pressroom/pressroom/internal/pipeline"
	"github.com/pressroom/pressroom/internal/providers"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// queueRouter answers generation calls from a queue of canned responses.
type queueRouter struct {
	responses []string
	calls     int
}

func (r *queueRouter) next() (string, error) {
	if r.calls < len(r.responses) {
		resp := r.responses[r.calls]
		r.calls++
		return resp, nil
	}
	r.calls++
	return "canned output", nil
}

func (r *queueRouter) GenerateFast(ctx context.Context, prompt string) (string, error) {
	return r.next()
}

func (r *queueRouter) GenerateQuality(ctx context.Context, prompt string) (string, error) {
	return r.next()
}

func (r *queueRouter) GenerateDirect(ctx context.Context, backend, prompt string) (string, error) {
	return r.next()
}

type noopUploader struct{}

func (noopUploader) Upload(data []byte, name string) (string, error) {
	return "http://localhost/files/" + name, nil
}

type fixture struct {
	services *svcctx.Services
	router   *queueRouter
}

func newFixture(t *testing.T, responses ...string) *fixture {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sessions := session.NewStore(time.Hour, time.Hour)
	t.Cleanup(sessions.Stop)

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("failed to prepare home: %v", err)
	}

	router := &queueRouter{responses: responses}
	registry := providers.NewRegistry(noopUploader{})

	return &fixture{
		services: &svcctx.Services{
			Store:    st,
			Sessions: sessions,
			Registry: registry,
			Pipeline: pipeline.New(router, registry, st, nil),
			Home:     h,
		},
		router: router,
	}
}

// do runs a handler with services injected and returns the recorder.
func (f *fixture) do(handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(svcctx.WithServices(req.Context(), f.services))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestFrameworkEndpoint(t *testing.T) {
	framework := "1. **公司概况**\n内容\n\n11. **关键风险（Key Risks）**\n风险"
	f := newFixture(t, framework)
	ep := &FrameworkEndpoint{}

	w := f.do(ep.handler, "POST", "/api/framework", map[string]string{"company_name": "信达生物"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[FrameworkResponse](t, w)
	if resp.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if !strings.Contains(resp.LowerPart, "关键风险") {
		t.Errorf("unexpected lower part %q", resp.LowerPart)
	}

	sess, found := f.services.Sessions.Get(resp.SessionID)
	if !found {
		t.Fatal("session not stored")
	}
	if sess.Values[session.KeyCompanyName] != "信达生物" {
		t.Error("company name not stored in session")
	}
	if sess.Values[session.KeyFrameworkUpper] == "" || sess.Values[session.KeyFrameworkLower] == "" {
		t.Error("framework halves not stored in session")
	}
}

func TestFrameworkLinksProject(t *testing.T) {
	f := newFixture(t, "framework text")
	proj, _ := f.services.Store.Create(context.Background(), "信达生物")

	ep := &FrameworkEndpoint{}
	w := f.do(ep.handler, "POST", "/api/framework", map[string]string{
		"company_name": "信达生物",
		"project_id":   proj.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	resp := decode[FrameworkResponse](t, w)
	saved, _ := f.services.Store.Get(context.Background(), proj.ID)
	if saved.SessionID != resp.SessionID {
		t.Error("session id not linked to project")
	}
}

func TestStorylineByResearchID(t *testing.T) {
	f := newFixture(t, "主题句：创新药出海")
	sessions := f.services.Sessions
	sess := sessions.New()
	sessions.Set(sess.ID, session.KeyResearch, "research body")
	sessions.Set(sess.ID, session.KeyResearchID, "research-1")

	ep := &StorylineEndpoint{}
	w := f.do(ep.handler, "POST", "/api/storyline", map[string]string{"research_id": "research-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[StorylineResponse](t, w)
	if resp.Storyline != "主题句：创新药出海" {
		t.Errorf("unexpected storyline %q", resp.Storyline)
	}
}

func TestStorylineExpiredResearch(t *testing.T) {
	f := newFixture(t)
	ep := &StorylineEndpoint{}
	w := f.do(ep.handler, "POST", "/api/storyline", map[string]string{"research_id": "gone"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown research id, got %d", w.Code)
	}
	errResp := decode[ErrorResponse](t, w)
	if !strings.Contains(errResp.Error, "re-upload") {
		t.Errorf("error should tell the caller to re-upload: %q", errResp.Error)
	}
}

func TestSplitEndpoint(t *testing.T) {
	article := "开头段落\n\n核心数据表格\n\n结尾段落"
	marked := "开头段落\n\n【【【核心数据表格】】】\n\n结尾段落"
	// Queue order: mark stage, then one prompt per block.
	f := newFixture(t, marked, "flowchart of pipeline data")

	ep := &SplitEndpoint{}
	w := f.do(ep.handler, "POST", "/api/article/split", map[string]string{"article": article})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[SplitResponse](t, w)
	if resp.ImageText != marked {
		t.Errorf("unexpected image text %q", resp.ImageText)
	}
	if !strings.Contains(resp.Skeleton, "[IMAGE_PLACEHOLDER_1]") {
		t.Errorf("skeleton missing placeholder: %q", resp.Skeleton)
	}
	if strings.Contains(resp.Skeleton, "核心数据表格") {
		t.Error("marked block should be replaced in the skeleton")
	}
	if len(resp.ImagePrompts) != 1 || resp.ImagePrompts[0] != "flowchart of pipeline data" {
		t.Errorf("unexpected prompts %v", resp.ImagePrompts)
	}
}

func TestSkeletonEndpointRequiresBothInputs(t *testing.T) {
	f := newFixture(t)
	ep := &SkeletonEndpoint{}
	w := f.do(ep.handler, "POST", "/api/skeleton", map[string]string{"article": "a"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestImagesEndpoint(t *testing.T) {
	f := newFixture(t)
	gen := providers.NewMockImageGenerator()
	f.services.Registry.SetImage(gen)

	ep := &ImagesEndpoint{}
	w := f.do(ep.handler, "POST", "/api/images", map[string]any{
		"image_prompts": []string{"p1", "p2"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ImagesResponse](t, w)
	if len(resp.Images) != 2 {
		t.Errorf("expected 2 image URLs, got %d", len(resp.Images))
	}
}

func TestFinalizeEndpoint(t *testing.T) {
	f := newFixture(t)
	ep := &FinalizeEndpoint{}
	w := f.do(ep.handler, "POST", "/api/finalize", map[string]any{
		"skeleton": "intro\n\n[IMAGE_PLACEHOLDER_1]\n\noutro",
		"images":   []string{"http://host/a.png"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[FinalizeResponse](t, w)
	want := "intro\n\n![配图1](http://host/a.png)\n\noutro"
	if resp.Article != want {
		t.Errorf("expected %q, got %q", want, resp.Article)
	}
}

func TestStylePromptRoundTrip(t *testing.T) {
	f := newFixture(t)

	get := &GetStylePromptEndpoint{}
	w := f.do(get.handler, "GET", "/api/styleprompt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing prompt, got %d", w.Code)
	}
	if resp := decode[StylePromptResponse](t, w); resp.Prompt != "" {
		t.Errorf("expected empty prompt, got %q", resp.Prompt)
	}

	set := &SetStylePromptEndpoint{}
	w = f.do(set.handler, "PUT", "/api/styleprompt", map[string]string{"prompt": "写作风格要求"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on set, got %d", w.Code)
	}

	w = f.do(get.handler, "GET", "/api/styleprompt", nil)
	if resp := decode[StylePromptResponse](t, w); resp.Prompt != "写作风格要求" {
		t.Errorf("expected stored prompt back, got %q", resp.Prompt)
	}
}

func TestSessionEndpoint(t *testing.T) {
	f := newFixture(t)
	sessions := f.services.Sessions
	sess := sessions.New()
	sessions.Set(sess.ID, session.KeyCompanyName, "药明生物")
	sessions.Set(sess.ID, session.KeyResearch, "十万字研究")
	sessions.Set(sess.ID, session.KeyResearchID, "r-1")

	ep := &GetSessionEndpoint{}
	req := httptest.NewRequest("GET", "/api/sessions/"+sess.ID, nil)
	req.SetPathValue("id", sess.ID)
	req = req.WithContext(svcctx.WithServices(req.Context(), f.services))
	w := httptest.NewRecorder()
	ep.handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[SessionResponse](t, w)
	if resp.CompanyName != "药明生物" || resp.ResearchID != "r-1" {
		t.Errorf("unexpected session response %+v", resp)
	}
	if resp.ResearchLength != len([]rune("十万字研究")) {
		t.Errorf("unexpected research length %d", resp.ResearchLength)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "notes.txt")
	part.Write([]byte("plain text"))
	writer.Close()

	req := httptest.NewRequest("POST", "/api/research/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(svcctx.WithServices(req.Context(), f.services))
	w := httptest.NewRecorder()

	(&UploadResearchEndpoint{}).handler(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-PDF upload, got %d", w.Code)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("session_id", "s-1")
	writer.Close()

	req := httptest.NewRequest("POST", "/api/research/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(svcctx.WithServices(req.Context(), f.services))
	w := httptest.NewRecorder()

	(&UploadResearchEndpoint{}).handler(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", w.Code)
	}
}

func TestPublishWithoutPublisher(t *testing.T) {
	f := newFixture(t)
	ep := &PublishEndpoint{}
	w := f.do(ep.handler, "POST", "/api/publish", map[string]string{
		"title":   "t",
		"content": "body",
		"cover":   "data:image/png;base64,AAAA",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without publisher, got %d", w.Code)
	}
}
