package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// StorylineRequest is the request body for storyline generation. Research
// material comes either inline or by research id from an upload session.
type StorylineRequest struct {
	ResearchID   string `json:"research_id,omitempty"`
	ResearchText string `json:"research_text,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
}

// StorylineResponse carries the generated storyline.
type StorylineResponse struct {
	Storyline string `json:"storyline"`
}

// StorylineEndpoint handles POST /api/storyline.
type StorylineEndpoint struct{}

var _ api.Endpoint = (*StorylineEndpoint)(nil)

func (e *StorylineEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/storyline", e.handler
}

func (e *StorylineEndpoint) RequiresInit() bool { return true }

func (e *StorylineEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StorylineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	research, ok := resolveResearch(w, r, req.ResearchID, req.ResearchText)
	if !ok {
		return
	}

	storyline, err := svcctx.PipelineFrom(r.Context()).GenerateStoryline(r.Context(), research, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StorylineResponse{Storyline: storyline})
}

func (e *StorylineEndpoint) Command(getServerURL func() string) *cobra.Command {
	var researchID, projectID string
	cmd := &cobra.Command{
		Use:   "storyline",
		Short: "Generate the article storyline from uploaded research",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StorylineResponse
			err := client.Post(cmd.Context(), "/api/storyline", StorylineRequest{
				ResearchID: researchID,
				ProjectID:  projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&researchID, "research", "", "Research id from research-upload")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to autosave the storyline to")
	return cmd
}

// resolveResearch returns the research material for a request: the inline
// text when present, otherwise the session text found by research id. Writes
// the error response itself and returns ok=false on failure.
func resolveResearch(w http.ResponseWriter, r *http.Request, researchID, researchText string) (string, bool) {
	if researchText != "" {
		return researchText, true
	}
	if researchID == "" {
		writeError(w, http.StatusBadRequest, "research_id or research_text is required")
		return "", false
	}

	sess, found := svcctx.SessionsFrom(r.Context()).FindByResearchID(researchID)
	if !found {
		writeError(w, http.StatusNotFound, "research not found; the session may have expired, re-upload the PDF")
		return "", false
	}
	return sess.Values[session.KeyResearch], true
}
