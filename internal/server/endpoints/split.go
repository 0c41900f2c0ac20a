package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// SplitRequest is the request body for article decomposition.
type SplitRequest struct {
	Article   string `json:"article"`
	ProjectID string `json:"project_id,omitempty"`
}

// SplitResponse carries the full decomposition of an article: the marked
// image text, the placeholder skeleton, and one image prompt per block.
type SplitResponse struct {
	ImageText    string   `json:"image_text"`
	Skeleton     string   `json:"skeleton"`
	ImagePrompts []string `json:"image_prompts"`
}

// SplitEndpoint handles POST /api/article/split. It runs the three
// decomposition stages in sequence: mark image-worthy spans, substitute
// placeholders into the article, and distill a prompt per block.
type SplitEndpoint struct{}

var _ api.Endpoint = (*SplitEndpoint)(nil)

func (e *SplitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/article/split", e.handler
}

func (e *SplitEndpoint) RequiresInit() bool { return true }

func (e *SplitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Article == "" {
		writeError(w, http.StatusBadRequest, "article is required")
		return
	}

	pipe := svcctx.PipelineFrom(r.Context())
	ctx := r.Context()

	imageText, err := pipe.MarkImageText(ctx, req.Article, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	skeleton, err := pipe.BuildSkeleton(ctx, req.Article, imageText, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	imagePrompts, err := pipe.GenerateImagePrompts(ctx, imageText, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SplitResponse{
		ImageText:    imageText,
		Skeleton:     skeleton,
		ImagePrompts: imagePrompts,
	})
}

func (e *SplitEndpoint) Command(getServerURL func() string) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "split <article-file>",
		Short: "Decompose an article into image text, skeleton, and prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp SplitResponse
			err = client.Post(cmd.Context(), "/api/article/split", SplitRequest{
				Article:   article,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave stage outputs to")
	return cmd
}

// ImageTextRequest is the request body for the marking stage alone.
type ImageTextRequest struct {
	Article   string `json:"article"`
	ProjectID string `json:"project_id,omitempty"`
}

// ImageTextResponse carries marked image text.
type ImageTextResponse struct {
	ImageText string `json:"image_text"`
}

// ImageTextEndpoint handles POST /api/imagetext.
type ImageTextEndpoint struct{}

var _ api.Endpoint = (*ImageTextEndpoint)(nil)

func (e *ImageTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/imagetext", e.handler
}

func (e *ImageTextEndpoint) RequiresInit() bool { return true }

func (e *ImageTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ImageTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Article == "" {
		writeError(w, http.StatusBadRequest, "article is required")
		return
	}

	imageText, err := svcctx.PipelineFrom(r.Context()).MarkImageText(r.Context(), req.Article, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ImageTextResponse{ImageText: imageText})
}

func (e *ImageTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "imagetext <article-file>",
		Short: "Mark illustration-worthy spans in an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ImageTextResponse
			err = client.Post(cmd.Context(), "/api/imagetext", ImageTextRequest{
				Article:   article,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave to")
	return cmd
}

// SkeletonRequest is the request body for skeleton substitution.
type SkeletonRequest struct {
	Article   string `json:"article"`
	ImageText string `json:"image_text"`
	ProjectID string `json:"project_id,omitempty"`
}

// SkeletonResponse carries the placeholder skeleton.
type SkeletonResponse struct {
	Skeleton string `json:"skeleton"`
}

// SkeletonEndpoint handles POST /api/skeleton. Deterministic, no model call.
type SkeletonEndpoint struct{}

var _ api.Endpoint = (*SkeletonEndpoint)(nil)

func (e *SkeletonEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/skeleton", e.handler
}

func (e *SkeletonEndpoint) RequiresInit() bool { return true }

func (e *SkeletonEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SkeletonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Article == "" || req.ImageText == "" {
		writeError(w, http.StatusBadRequest, "article and image_text are required")
		return
	}

	skeleton, err := svcctx.PipelineFrom(r.Context()).BuildSkeleton(r.Context(), req.Article, req.ImageText, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SkeletonResponse{Skeleton: skeleton})
}

func (e *SkeletonEndpoint) Command(getServerURL func() string) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "skeleton <article-file> <imagetext-file>",
		Short: "Substitute numbered placeholders into an article",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			imageText, err := readFileArg(args[1])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp SkeletonResponse
			err = client.Post(cmd.Context(), "/api/skeleton", SkeletonRequest{
				Article:   article,
				ImageText: imageText,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave to")
	return cmd
}

// ImagePromptsRequest is the request body for prompt distillation.
type ImagePromptsRequest struct {
	ImageText string `json:"image_text"`
	ProjectID string `json:"project_id,omitempty"`
}

// ImagePromptsResponse carries one prompt per marked block, in order.
type ImagePromptsResponse struct {
	ImagePrompts []string `json:"image_prompts"`
}

// ImagePromptsEndpoint handles POST /api/imageprompts.
type ImagePromptsEndpoint struct{}

var _ api.Endpoint = (*ImagePromptsEndpoint)(nil)

func (e *ImagePromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/imageprompts", e.handler
}

func (e *ImagePromptsEndpoint) RequiresInit() bool { return true }

func (e *ImagePromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ImagePromptsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageText == "" {
		writeError(w, http.StatusBadRequest, "image_text is required")
		return
	}

	imagePrompts, err := svcctx.PipelineFrom(r.Context()).GenerateImagePrompts(r.Context(), req.ImageText, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ImagePromptsResponse{ImagePrompts: imagePrompts})
}

func (e *ImagePromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "imageprompts <imagetext-file>",
		Short: "Distill an image prompt per marked block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageText, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ImagePromptsResponse
			err = client.Post(cmd.Context(), "/api/imageprompts", ImagePromptsRequest{
				ImageText: imageText,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave to")
	return cmd
}
