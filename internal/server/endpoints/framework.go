package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// FrameworkRequest is the request body for framework generation.
type FrameworkRequest struct {
	CompanyName string `json:"company_name"`
	// ProjectID, when set, links the new session to an existing project.
	ProjectID string `json:"project_id,omitempty"`
}

// FrameworkResponse carries the split research framework and the session that
// now holds it.
type FrameworkResponse struct {
	SessionID string `json:"session_id"`
	UpperPart string `json:"upper_part"`
	LowerPart string `json:"lower_part"`
}

// FrameworkEndpoint handles POST /api/framework. It starts a research
// session: the generated framework halves are stored in the session so the
// later upload and storyline stages can find them.
type FrameworkEndpoint struct{}

var _ api.Endpoint = (*FrameworkEndpoint)(nil)

func (e *FrameworkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/framework", e.handler
}

func (e *FrameworkEndpoint) RequiresInit() bool { return true }

func (e *FrameworkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req FrameworkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	pipe := svcctx.PipelineFrom(r.Context())
	fw, err := pipe.GenerateFramework(r.Context(), req.CompanyName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sessions := svcctx.SessionsFrom(r.Context())
	sess := sessions.New()
	sessions.Set(sess.ID, session.KeyCompanyName, req.CompanyName)
	sessions.Set(sess.ID, session.KeyFrameworkUpper, fw.UpperPart)
	sessions.Set(sess.ID, session.KeyFrameworkLower, fw.LowerPart)

	if req.ProjectID != "" {
		partial := store.PartialProject{SessionID: &sess.ID}
		if _, err := svcctx.StoreFrom(r.Context()).Update(r.Context(), req.ProjectID, partial); err != nil {
			svcctx.LoggerFrom(r.Context()).Warn("failed to link session to project",
				"project_id", req.ProjectID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, FrameworkResponse{
		SessionID: sess.ID,
		UpperPart: fw.UpperPart,
		LowerPart: fw.LowerPart,
	})
}

func (e *FrameworkEndpoint) Command(getServerURL func() string) *cobra.Command {
	var company, projectID string
	cmd := &cobra.Command{
		Use:   "framework",
		Short: "Generate the research framework for a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if company == "" {
				return errors.New("--company is required")
			}
			client := api.NewClient(getServerURL())
			var resp FrameworkResponse
			err := client.Post(cmd.Context(), "/api/framework", FrameworkRequest{
				CompanyName: company,
				ProjectID:   projectID,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Company name (required)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to link the session to")
	return cmd
}
