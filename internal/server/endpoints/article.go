package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/pipeline"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// ArticleRequest is the request body for article drafting.
type ArticleRequest struct {
	CompanyName      string `json:"company_name"`
	Storyline        string `json:"storyline"`
	ResearchID       string `json:"research_id,omitempty"`
	ResearchText     string `json:"research_text,omitempty"`
	ReferenceArticle string `json:"reference_article,omitempty"`
	// Backend picks the drafting model explicitly; no fallback on failure.
	Backend   string `json:"backend,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// ArticleResponse carries generated article markdown.
type ArticleResponse struct {
	Article string `json:"article"`
}

// ArticleEndpoint handles POST /api/article.
type ArticleEndpoint struct{}

var _ api.Endpoint = (*ArticleEndpoint)(nil)

func (e *ArticleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/article", e.handler
}

func (e *ArticleEndpoint) RequiresInit() bool { return true }

func (e *ArticleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	research, ok := resolveResearch(w, r, req.ResearchID, req.ResearchText)
	if !ok {
		return
	}

	// Company name can ride along in the research session.
	if req.CompanyName == "" && req.ResearchID != "" {
		if sess, found := svcctx.SessionsFrom(r.Context()).FindByResearchID(req.ResearchID); found {
			req.CompanyName = sess.Values[session.KeyCompanyName]
		}
	}

	article, err := svcctx.PipelineFrom(r.Context()).GenerateArticle(r.Context(), pipeline.ArticleParams{
		CompanyName:      req.CompanyName,
		Storyline:        req.Storyline,
		ResearchText:     research,
		ReferenceArticle: req.ReferenceArticle,
		Backend:          req.Backend,
		ProjectID:        req.ProjectID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ArticleResponse{Article: article})
}

func (e *ArticleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var company, storyline, researchID, backend, projectID string
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Draft the full article from storyline and research",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storyline == "" {
				return errors.New("--storyline is required")
			}
			client := api.NewClient(getServerURL())
			var resp ArticleResponse
			err := client.Post(cmd.Context(), "/api/article", ArticleRequest{
				CompanyName: company,
				Storyline:   storyline,
				ResearchID:  researchID,
				Backend:     backend,
				ProjectID:   projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&storyline, "storyline", "", "Storyline text (required)")
	cmd.Flags().StringVar(&researchID, "research", "", "Research id from research-upload")
	cmd.Flags().StringVar(&backend, "backend", "", "Text backend: deepseek (default) or gemini")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave the draft to")
	return cmd
}

// PolishRequest is the request body for the polish pass.
type PolishRequest struct {
	Article          string `json:"article"`
	ReferenceArticle string `json:"reference_article,omitempty"`
	Backend          string `json:"backend,omitempty"`
	ProjectID        string `json:"project_id,omitempty"`
}

// PolishEndpoint handles POST /api/article/polish.
type PolishEndpoint struct{}

var _ api.Endpoint = (*PolishEndpoint)(nil)

func (e *PolishEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/article/polish", e.handler
}

func (e *PolishEndpoint) RequiresInit() bool { return true }

func (e *PolishEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req PolishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Article == "" {
		writeError(w, http.StatusBadRequest, "article is required")
		return
	}

	polished, err := svcctx.PipelineFrom(r.Context()).PolishArticle(
		r.Context(), req.Article, req.ReferenceArticle, req.Backend, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ArticleResponse{Article: polished})
}

func (e *PolishEndpoint) Command(getServerURL func() string) *cobra.Command {
	var backend, projectID string
	cmd := &cobra.Command{
		Use:   "polish <article-file>",
		Short: "Run the editorial polish pass over a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ArticleResponse
			err = client.Post(cmd.Context(), "/api/article/polish", PolishRequest{
				Article:   article,
				Backend:   backend,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Text backend: deepseek (default) or gemini")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave the result to")
	return cmd
}
