package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pressroom/pressroom/internal/providers"
	"github.com/pressroom/pressroom/internal/store"
)

// stubRouter routes every call to a single function, recording prompts.
type stubRouter struct {
	respond func(prompt string) (string, error)
	prompts []string
}

func (r *stubRouter) generate(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if r.respond == nil {
		return "stub output", nil
	}
	return r.respond(prompt)
}

func (r *stubRouter) GenerateFast(ctx context.Context, prompt string) (string, error) {
	return r.generate(prompt)
}

func (r *stubRouter) GenerateQuality(ctx context.Context, prompt string) (string, error) {
	return r.generate(prompt)
}

func (r *stubRouter) GenerateDirect(ctx context.Context, backend, prompt string) (string, error) {
	return r.generate(backend + "|" + prompt)
}

type uploaderStub struct{}

func (uploaderStub) Upload(data []byte, name string) (string, error) {
	return "http://localhost/files/" + name, nil
}

func newTestPipeline(t *testing.T, router *stubRouter) (*Pipeline, *store.Store, *providers.Registry) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := providers.NewRegistry(uploaderStub{})
	return New(router, reg, st, nil), st, reg
}

func TestGenerateFramework(t *testing.T) {
	t.Run("splits at risk section", func(t *testing.T) {
		framework := "1. **公司概况**\n问题列表\n\n11. **关键风险（Key Risks）**\n风险问题"
		router := &stubRouter{respond: func(string) (string, error) { return framework, nil }}
		p, _, _ := newTestPipeline(t, router)

		fw, err := p.GenerateFramework(context.Background(), "Acme")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(fw.UpperPart, "1. **公司概况**") {
			t.Errorf("unexpected upper part %q", fw.UpperPart)
		}
		if !strings.HasPrefix(fw.LowerPart, "11. **关键风险") {
			t.Errorf("unexpected lower part %q", fw.LowerPart)
		}
	})

	t.Run("english risk heading", func(t *testing.T) {
		framework := "sections...\n11. **Key Risks**\nrisk items"
		router := &stubRouter{respond: func(string) (string, error) { return framework, nil }}
		p, _, _ := newTestPipeline(t, router)

		fw, err := p.GenerateFramework(context.Background(), "Acme")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(fw.LowerPart, "11. **Key Risks**") {
			t.Errorf("unexpected lower part %q", fw.LowerPart)
		}
	})

	t.Run("no marker splits near the end", func(t *testing.T) {
		framework := strings.Repeat("正文内容。", 100)
		router := &stubRouter{respond: func(string) (string, error) { return framework, nil }}
		p, _, _ := newTestPipeline(t, router)

		fw, err := p.GenerateFramework(context.Background(), "Acme")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fw.UpperPart == "" || fw.LowerPart == "" {
			t.Error("fallback split should produce two non-empty parts")
		}
		if len(fw.UpperPart) <= len(fw.LowerPart) {
			t.Error("fallback split should keep the bulk in the upper part")
		}
	})

	t.Run("empty company name rejected", func(t *testing.T) {
		p, _, _ := newTestPipeline(t, &stubRouter{})
		if _, err := p.GenerateFramework(context.Background(), "  "); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestGenerateStoryline(t *testing.T) {
	router := &stubRouter{respond: func(string) (string, error) { return "主题句：...", nil }}
	p, st, _ := newTestPipeline(t, router)
	ctx := context.Background()

	proj, _ := st.Create(ctx, "Acme")

	out, err := p.GenerateStoryline(ctx, "research body", proj.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "主题句：..." {
		t.Errorf("unexpected storyline %q", out)
	}

	saved, _ := st.Get(ctx, proj.ID)
	if saved.Storyline != out {
		t.Error("storyline not autosaved to project")
	}

	t.Run("empty research rejected", func(t *testing.T) {
		if _, err := p.GenerateStoryline(ctx, "", ""); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("autosave failure does not surface", func(t *testing.T) {
		if _, err := p.GenerateStoryline(ctx, "research", "no-such-project"); err != nil {
			t.Errorf("autosave failure must not surface: %v", err)
		}
	})
}

func TestGenerateArticle(t *testing.T) {
	router := &stubRouter{}
	p, _, _ := newTestPipeline(t, router)
	ctx := context.Background()

	t.Run("defaults to quality backend", func(t *testing.T) {
		_, err := p.GenerateArticle(ctx, ArticleParams{
			CompanyName: "Acme", Storyline: "s", ResearchText: "r",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last := router.prompts[len(router.prompts)-1]
		if !strings.HasPrefix(last, providers.QualityBackendName+"|") {
			t.Errorf("expected direct call on quality backend, got %q", last[:30])
		}
	})

	t.Run("honors explicit backend", func(t *testing.T) {
		_, err := p.GenerateArticle(ctx, ArticleParams{
			CompanyName: "Acme", Storyline: "s", ResearchText: "r", Backend: "gemini",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last := router.prompts[len(router.prompts)-1]
		if !strings.HasPrefix(last, "gemini|") {
			t.Errorf("expected direct call on gemini, got %q", last[:30])
		}
	})

	t.Run("missing storyline rejected", func(t *testing.T) {
		_, err := p.GenerateArticle(ctx, ArticleParams{CompanyName: "Acme", ResearchText: "r"})
		if err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("backend failure surfaces", func(t *testing.T) {
		failing := &stubRouter{respond: func(string) (string, error) {
			return "", fmt.Errorf("model down")
		}}
		p, _, _ := newTestPipeline(t, failing)
		if _, err := p.GenerateArticle(ctx, ArticleParams{
			CompanyName: "Acme", Storyline: "s", ResearchText: "r",
		}); err == nil {
			t.Error("direct backend failure must surface")
		}
	})
}

func TestBuildSkeleton(t *testing.T) {
	p, st, _ := newTestPipeline(t, &stubRouter{})
	ctx := context.Background()

	article := "intro\n\ntable data\n\noutro"
	imageText := "intro\n\n概括说明\n【【【table data】】】\n\noutro"

	proj, _ := st.Create(ctx, "Acme")
	skeleton, err := p.BuildSkeleton(ctx, article, imageText, proj.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "intro\n\n[IMAGE_PLACEHOLDER_1]\n\noutro"
	if skeleton != want {
		t.Errorf("expected %q, got %q", want, skeleton)
	}

	saved, _ := st.Get(ctx, proj.ID)
	if saved.ArticleSkeleton != want {
		t.Error("skeleton not autosaved")
	}
}

func TestGenerateImagePrompts(t *testing.T) {
	t.Run("one prompt per block in order", func(t *testing.T) {
		var n int
		router := &stubRouter{respond: func(string) (string, error) {
			n++
			return fmt.Sprintf("prompt %d", n), nil
		}}
		p, _, _ := newTestPipeline(t, router)

		imageText := "a\n【【【first】】】\nb\n【【【second】】】"
		got, err := p.GenerateImagePrompts(context.Background(), imageText, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0] != "prompt 1" || got[1] != "prompt 2" {
			t.Errorf("unexpected prompts %v", got)
		}
		if !strings.Contains(router.prompts[0], "first") {
			t.Error("first block content missing from first prompt")
		}
	})

	t.Run("no blocks is an error", func(t *testing.T) {
		p, _, _ := newTestPipeline(t, &stubRouter{})
		if _, err := p.GenerateImagePrompts(context.Background(), "no marks here", ""); err == nil {
			t.Error("expected error for unmarked text")
		}
	})
}

func TestGenerateImages(t *testing.T) {
	t.Run("one URL per prompt", func(t *testing.T) {
		p, st, reg := newTestPipeline(t, &stubRouter{})
		gen := providers.NewMockImageGenerator()
		reg.SetImage(gen)
		ctx := context.Background()

		proj, _ := st.Create(ctx, "Acme")
		urls, err := p.GenerateImages(ctx, []string{"p1", "p2", "p3"}, proj.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(urls) != 3 {
			t.Fatalf("expected 3 URLs, got %d", len(urls))
		}
		if gen.RequestCount() != 3 {
			t.Errorf("expected 3 generation calls, got %d", gen.RequestCount())
		}

		saved, _ := st.Get(ctx, proj.ID)
		if len(saved.GeneratedImages) != 3 {
			t.Error("generated images not autosaved")
		}
	})

	t.Run("placeholders still count as results", func(t *testing.T) {
		p, _, reg := newTestPipeline(t, &stubRouter{})
		gen := providers.NewMockImageGenerator()
		gen.UsePlaceholder = true
		reg.SetImage(gen)

		urls, err := p.GenerateImages(context.Background(), []string{"p1", "p2"}, "")
		if err != nil {
			t.Fatalf("degraded generation must not error: %v", err)
		}
		for _, u := range urls {
			if !strings.Contains(u, "placehold.co") {
				t.Errorf("expected placeholder URL, got %q", u)
			}
		}
	})

	t.Run("no generator configured errors", func(t *testing.T) {
		p, _, _ := newTestPipeline(t, &stubRouter{})
		if _, err := p.GenerateImages(context.Background(), []string{"p"}, ""); err == nil {
			t.Error("expected error without image generator")
		}
	})
}

func TestFinalize(t *testing.T) {
	p, st, _ := newTestPipeline(t, &stubRouter{})
	ctx := context.Background()

	proj, _ := st.Create(ctx, "Acme")
	final, err := p.Finalize(ctx,
		"intro\n\n[IMAGE_PLACEHOLDER_1]\n\noutro",
		[]string{"http://host/a.png"}, proj.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "intro\n\n![配图1](http://host/a.png)\n\noutro"
	if final != want {
		t.Errorf("expected %q, got %q", want, final)
	}

	saved, _ := st.Get(ctx, proj.ID)
	if saved.FinalArticle != want {
		t.Error("final article not autosaved")
	}
}
