// Package pipeline orchestrates the article production stages: research
// framework, storyline, article draft, polish, image-text marking, skeleton,
// image prompts, image generation, cover, and final assembly.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pressroom/pressroom/internal/markup"
	"github.com/pressroom/pressroom/internal/prompts"
	"github.com/pressroom/pressroom/internal/providers"
	"github.com/pressroom/pressroom/internal/store"
)

// TextRouter is the text-generation surface the pipeline needs.
type TextRouter interface {
	GenerateFast(ctx context.Context, prompt string) (string, error)
	GenerateQuality(ctx context.Context, prompt string) (string, error)
	GenerateDirect(ctx context.Context, backend, prompt string) (string, error)
}

// Pipeline runs the production stages. Every producing stage autosaves its
// output to the project store when a project id is supplied; autosave
// failures are logged and never surfaced.
type Pipeline struct {
	router   TextRouter
	registry *providers.Registry
	store    *store.Store
	logger   *slog.Logger
}

// New creates a pipeline.
func New(router TextRouter, registry *providers.Registry, st *store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		router:   router,
		registry: registry,
		store:    st,
		logger:   logger,
	}
}

// Framework generates the research framework for a company and splits it at
// the section-11 risk marker.
type Framework struct {
	UpperPart string
	LowerPart string
}

// GenerateFramework produces the research framework, split into the main
// analysis (sections 1-10) and the risk section.
func (p *Pipeline) GenerateFramework(ctx context.Context, companyName string) (*Framework, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, fmt.Errorf("company name is required")
	}

	full, err := p.router.GenerateFast(ctx, prompts.Framework(companyName))
	if err != nil {
		return nil, fmt.Errorf("framework generation: %w", err)
	}

	upper, lower := splitFramework(full)
	return &Framework{UpperPart: upper, LowerPart: lower}, nil
}

// section11Patterns locate the risk section heading in generated frameworks.
// Tried in order; models vary in how they render the heading.
var section11Patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)11\.\s*\*\*Key Risks`),
	regexp.MustCompile(`11\.\s*\*\*关键风险`),
	regexp.MustCompile(`11\.\s*关键风险`),
	regexp.MustCompile(`\*\*11\.`),
}

// splitFramework cuts the framework at section 11. Without a recognizable
// marker it splits at 80% of the text, which keeps the risk tail short.
func splitFramework(framework string) (upper, lower string) {
	splitIndex := -1
	for _, pattern := range section11Patterns {
		if loc := pattern.FindStringIndex(framework); loc != nil {
			splitIndex = loc[0]
			break
		}
	}

	if splitIndex == -1 {
		runes := []rune(framework)
		splitIndex = len(string(runes[:len(runes)*8/10]))
	}

	return strings.TrimSpace(framework[:splitIndex]), strings.TrimSpace(framework[splitIndex:])
}

// GenerateStoryline produces the article storyline from research material.
func (p *Pipeline) GenerateStoryline(ctx context.Context, researchText, projectID string) (string, error) {
	if strings.TrimSpace(researchText) == "" {
		return "", fmt.Errorf("research text is required")
	}

	storyline, err := p.router.GenerateQuality(ctx, prompts.Storyline(researchText))
	if err != nil {
		return "", fmt.Errorf("storyline generation: %w", err)
	}

	p.autosave(ctx, projectID, store.PartialProject{Storyline: &storyline})
	return storyline, nil
}

// ArticleParams are the inputs of the article draft stage.
type ArticleParams struct {
	CompanyName      string
	Storyline        string
	ResearchText     string
	ReferenceArticle string
	Backend          string // "deepseek" (default) or "gemini", no fallback
	ProjectID        string
}

// GenerateArticle writes the full article draft on one named backend. The
// caller picks the backend explicitly; a failed draft surfaces rather than
// silently switching models mid-style.
func (p *Pipeline) GenerateArticle(ctx context.Context, params ArticleParams) (string, error) {
	if strings.TrimSpace(params.Storyline) == "" {
		return "", fmt.Errorf("storyline is required")
	}
	if strings.TrimSpace(params.ResearchText) == "" {
		return "", fmt.Errorf("research text is required")
	}

	backend := params.Backend
	if backend == "" {
		backend = providers.QualityBackendName
	}

	prompt := prompts.Article(params.CompanyName, params.Storyline, params.ResearchText, params.ReferenceArticle)
	article, err := p.router.GenerateDirect(ctx, backend, prompt)
	if err != nil {
		return "", fmt.Errorf("article generation: %w", err)
	}

	p.autosave(ctx, params.ProjectID, store.PartialProject{ArticleMarkdown: &article})
	return article, nil
}

// PolishArticle runs the second editorial pass over a draft.
func (p *Pipeline) PolishArticle(ctx context.Context, articleMarkdown, referenceArticle, backend, projectID string) (string, error) {
	if strings.TrimSpace(articleMarkdown) == "" {
		return "", fmt.Errorf("article markdown is required")
	}
	if backend == "" {
		backend = providers.QualityBackendName
	}

	polished, err := p.router.GenerateDirect(ctx, backend, prompts.Polish(articleMarkdown, referenceArticle))
	if err != nil {
		return "", fmt.Errorf("article polish: %w", err)
	}

	p.autosave(ctx, projectID, store.PartialProject{ArticleMarkdown: &polished})
	return polished, nil
}

// MarkImageText asks the model to mark illustration-worthy spans in the
// article with delimiters, leaving the rest of the text verbatim.
func (p *Pipeline) MarkImageText(ctx context.Context, articleMarkdown, projectID string) (string, error) {
	if strings.TrimSpace(articleMarkdown) == "" {
		return "", fmt.Errorf("article markdown is required")
	}

	imageText, err := p.router.GenerateFast(ctx, prompts.MarkImageText(articleMarkdown))
	if err != nil {
		return "", fmt.Errorf("image text marking: %w", err)
	}

	p.autosave(ctx, projectID, store.PartialProject{ImageText: &imageText})
	return imageText, nil
}

// BuildSkeleton replaces each marked block found in imageText with its
// numbered placeholder inside the article. Deterministic, no model call.
func (p *Pipeline) BuildSkeleton(ctx context.Context, articleMarkdown, imageText, projectID string) (string, error) {
	if strings.TrimSpace(articleMarkdown) == "" {
		return "", fmt.Errorf("article markdown is required")
	}

	blocks := markup.Extract(imageText)
	res := markup.Substitute(articleMarkdown, markup.Contents(blocks))
	if res.Skipped > 0 {
		p.logger.Warn("skeleton substitution skipped blocks",
			"matched", res.Matched, "skipped", res.Skipped)
	}

	p.autosave(ctx, projectID, store.PartialProject{ArticleSkeleton: &res.Skeleton})
	return res.Skeleton, nil
}

// GenerateImagePrompts distills each marked block into an English
// image-generation prompt. Sequential: one model call per block.
func (p *Pipeline) GenerateImagePrompts(ctx context.Context, imageText, projectID string) ([]string, error) {
	blocks := markup.Extract(imageText)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no marked blocks in image text")
	}

	imagePrompts := make([]string, 0, len(blocks))
	for i, block := range blocks {
		prompt, err := p.router.GenerateFast(ctx, prompts.BlockImagePrompt(block.Content, block.Summary))
		if err != nil {
			return nil, fmt.Errorf("image prompt %d: %w", i+1, err)
		}
		imagePrompts = append(imagePrompts, strings.TrimSpace(prompt))
	}

	p.autosave(ctx, projectID, store.PartialProject{ImagePrompts: &imagePrompts})
	return imagePrompts, nil
}

// GenerateImages produces one illustration per prompt, in order. Individual
// failures come back as placeholder references from the generator, so the
// result always has one URL per prompt.
func (p *Pipeline) GenerateImages(ctx context.Context, imagePrompts []string, projectID string) ([]string, error) {
	if len(imagePrompts) == 0 {
		return nil, fmt.Errorf("no image prompts")
	}

	gen, err := p.registry.Image()
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(imagePrompts))
	for i, prompt := range imagePrompts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := gen.Generate(ctx, prompts.BlockImage(prompt), fmt.Sprintf("block_%d", i+1))
		if res.Placeholder {
			p.logger.Warn("image degraded to placeholder", "block", i+1)
		}
		urls = append(urls, res.URL)
	}

	p.autosave(ctx, projectID, store.PartialProject{GeneratedImages: &urls})
	return urls, nil
}

// GenerateCover produces the article cover image.
func (p *Pipeline) GenerateCover(ctx context.Context, title, summary string) (providers.ImageResult, error) {
	gen, err := p.registry.Image()
	if err != nil {
		return providers.ImageResult{}, err
	}
	return gen.Generate(ctx, prompts.Cover(title, summary), "cover"), nil
}

// Finalize reinserts generated image references into the skeleton.
func (p *Pipeline) Finalize(ctx context.Context, skeleton string, imageRefs []string, projectID string) (string, error) {
	if strings.TrimSpace(skeleton) == "" {
		return "", fmt.Errorf("article skeleton is required")
	}

	final := markup.Reinsert(skeleton, imageRefs)

	p.autosave(ctx, projectID, store.PartialProject{FinalArticle: &final})
	return final, nil
}

// autosave persists stage output to the project store. Best effort: a
// missing project id skips the save, a failed save is logged only.
func (p *Pipeline) autosave(ctx context.Context, projectID string, partial store.PartialProject) {
	if projectID == "" || p.store == nil {
		return
	}
	if _, err := p.store.Update(ctx, projectID, partial); err != nil {
		p.logger.Warn("project autosave failed", "project_id", projectID, "error", err)
	}
}
