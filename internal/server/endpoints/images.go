package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// ImagesRequest is the request body for figure generation.
type ImagesRequest struct {
	ImagePrompts []string `json:"image_prompts"`
	ProjectID    string   `json:"project_id,omitempty"`
}

// ImagesResponse carries one hosted URL per prompt, in order. Failed
// generations come back as placeholder URLs rather than gaps.
type ImagesResponse struct {
	Images []string `json:"images"`
}

// ImagesEndpoint handles POST /api/images.
type ImagesEndpoint struct{}

var _ api.Endpoint = (*ImagesEndpoint)(nil)

func (e *ImagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/images", e.handler
}

func (e *ImagesEndpoint) RequiresInit() bool { return true }

func (e *ImagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ImagePrompts) == 0 {
		writeError(w, http.StatusBadRequest, "image_prompts is required")
		return
	}

	urls, err := svcctx.PipelineFrom(r.Context()).GenerateImages(r.Context(), req.ImagePrompts, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ImagesResponse{Images: urls})
}

func (e *ImagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "images <prompt>...",
		Short: "Generate one illustration per prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ImagesResponse
			err := client.Post(cmd.Context(), "/api/images", ImagesRequest{
				ImagePrompts: args,
				ProjectID:    projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave image URLs to")
	return cmd
}

// CoverRequest is the request body for cover generation.
type CoverRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// CoverResponse carries the cover image reference.
type CoverResponse struct {
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// CoverEndpoint handles POST /api/cover.
type CoverEndpoint struct{}

var _ api.Endpoint = (*CoverEndpoint)(nil)

func (e *CoverEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/cover", e.handler
}

func (e *CoverEndpoint) RequiresInit() bool { return true }

func (e *CoverEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	res, err := svcctx.PipelineFrom(r.Context()).GenerateCover(r.Context(), req.Title, req.Summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CoverResponse{URL: res.URL, Placeholder: res.Placeholder})
}

func (e *CoverEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, summary string
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Generate the article cover image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return errors.New("--title is required")
			}
			client := api.NewClient(getServerURL())
			var resp CoverResponse
			err := client.Post(cmd.Context(), "/api/cover", CoverRequest{
				Title:   title,
				Summary: summary,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Article title (required)")
	cmd.Flags().StringVar(&summary, "summary", "", "Short article summary")
	return cmd
}
