package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/publisher"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// PublishRequest is the request body for WeChat draft publishing.
type PublishRequest struct {
	Title string `json:"title"`
	// Content is the final article markdown with image references.
	Content string `json:"content"`
	// Cover is an image reference: data URL, hosted /files/ path, or HTTP(S) URL.
	Cover     string `json:"cover"`
	ProjectID string `json:"project_id,omitempty"`
}

// PublishResponse carries the created draft's media id.
type PublishResponse struct {
	MediaID string `json:"media_id"`
}

// PublishEndpoint handles POST /api/publish.
type PublishEndpoint struct{}

var _ api.Endpoint = (*PublishEndpoint)(nil)

func (e *PublishEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/publish", e.handler
}

func (e *PublishEndpoint) RequiresInit() bool { return true }

func (e *PublishEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pub := svcctx.PublisherFrom(r.Context())
	if pub == nil {
		writeError(w, http.StatusServiceUnavailable, "wechat publishing is not configured")
		return
	}

	mediaID, err := pub.Publish(r.Context(), publisher.PublishParams{
		Title:    req.Title,
		Markdown: req.Content,
		CoverRef: req.Cover,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.ProjectID != "" {
		status := "published"
		partial := store.PartialProject{Status: &status}
		if _, err := svcctx.StoreFrom(r.Context()).Update(r.Context(), req.ProjectID, partial); err != nil {
			svcctx.LoggerFrom(r.Context()).Warn("failed to mark project published",
				"project_id", req.ProjectID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, PublishResponse{MediaID: mediaID})
}

func (e *PublishEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, cover, projectID string
	cmd := &cobra.Command{
		Use:   "publish <article-file>",
		Short: "Publish the final article to the WeChat draft box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return errors.New("--title is required")
			}
			if cover == "" {
				return errors.New("--cover is required")
			}
			content, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp PublishResponse
			err = client.Post(cmd.Context(), "/api/publish", PublishRequest{
				Title:     title,
				Content:   content,
				Cover:     cover,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Draft title (required)")
	cmd.Flags().StringVar(&cover, "cover", "", "Cover image reference (required)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to mark published")
	return cmd
}
