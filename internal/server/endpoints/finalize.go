package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// FinalizeRequest is the request body for final assembly.
type FinalizeRequest struct {
	Skeleton  string   `json:"skeleton"`
	Images    []string `json:"images"`
	ProjectID string   `json:"project_id,omitempty"`
}

// FinalizeResponse carries the assembled article markdown.
type FinalizeResponse struct {
	Article string `json:"article"`
}

// FinalizeEndpoint handles POST /api/finalize. It reinserts generated image
// references into the skeleton's numbered placeholders.
type FinalizeEndpoint struct{}

var _ api.Endpoint = (*FinalizeEndpoint)(nil)

func (e *FinalizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/finalize", e.handler
}

func (e *FinalizeEndpoint) RequiresInit() bool { return true }

func (e *FinalizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Skeleton == "" {
		writeError(w, http.StatusBadRequest, "skeleton is required")
		return
	}

	final, err := svcctx.PipelineFrom(r.Context()).Finalize(r.Context(), req.Skeleton, req.Images, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FinalizeResponse{Article: final})
}

func (e *FinalizeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var images []string
	var projectID string
	cmd := &cobra.Command{
		Use:   "finalize <skeleton-file>",
		Short: "Reinsert generated images into the article skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skeleton, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp FinalizeResponse
			err = client.Post(cmd.Context(), "/api/finalize", FinalizeRequest{
				Skeleton:  skeleton,
				Images:    images,
				ProjectID: projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringSliceVar(&images, "image", nil, "Image URL, one per placeholder in order (repeatable)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave the final article to")
	return cmd
}
