package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// SessionResponse describes a research session without exposing the full
// research text; lengths stand in for the large values.
type SessionResponse struct {
	ID             string `json:"id"`
	CompanyName    string `json:"company_name,omitempty"`
	ResearchID     string `json:"research_id,omitempty"`
	ResearchLength int    `json:"research_length"`
	HasFramework   bool   `json:"has_framework"`
	CreatedAt      string `json:"created_at"`
}

// GetSessionEndpoint handles GET /api/sessions/{id}.
type GetSessionEndpoint struct{}

var _ api.Endpoint = (*GetSessionEndpoint)(nil)

func (e *GetSessionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}", e.handler
}

func (e *GetSessionEndpoint) RequiresInit() bool { return true }

func (e *GetSessionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sess, found := svcctx.SessionsFrom(r.Context()).Get(r.PathValue("id"))
	if !found {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		ID:             sess.ID,
		CompanyName:    sess.Values[session.KeyCompanyName],
		ResearchID:     sess.Values[session.KeyResearchID],
		ResearchLength: len([]rune(sess.Values[session.KeyResearch])),
		HasFramework:   sess.Values[session.KeyFrameworkUpper] != "",
		CreatedAt:      sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (e *GetSessionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "session-get <id>",
		Short: "Inspect a research session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SessionResponse
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
