package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/pdfx"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// maxUploadSize bounds research PDF uploads.
const maxUploadSize = 50 << 20 // 50MB

// UploadResearchResponse is returned after a research PDF upload.
type UploadResearchResponse struct {
	SessionID  string `json:"session_id"`
	ResearchID string `json:"research_id"`
	TextLength int    `json:"text_length"`
	Filename   string `json:"filename"`
}

// UploadResearchEndpoint handles POST /api/research/upload. The uploaded PDF
// is the desk research document; its extracted text is held in the session
// under a research id that later stages pass instead of the full text.
type UploadResearchEndpoint struct{}

var _ api.Endpoint = (*UploadResearchEndpoint)(nil)

func (e *UploadResearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/research/upload", e.handler
}

func (e *UploadResearchEndpoint) RequiresInit() bool { return true }

func (e *UploadResearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	text, filename, ok := extractUploadedPDF(w, r)
	if !ok {
		return
	}

	sessions := svcctx.SessionsFrom(r.Context())
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = sessions.New().ID
	} else if _, found := sessions.Get(sessionID); !found {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}

	researchID := uuid.New().String()
	sessions.Set(sessionID, session.KeyResearch, text)
	sessions.Set(sessionID, session.KeyResearchID, researchID)

	if projectID := r.FormValue("project_id"); projectID != "" {
		partial := store.PartialProject{ResearchID: &researchID, SessionID: &sessionID}
		if _, err := svcctx.StoreFrom(r.Context()).Update(r.Context(), projectID, partial); err != nil {
			svcctx.LoggerFrom(r.Context()).Warn("failed to record research id on project",
				"project_id", projectID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, UploadResearchResponse{
		SessionID:  sessionID,
		ResearchID: researchID,
		TextLength: len([]rune(text)),
		Filename:   filename,
	})
}

func (e *UploadResearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var sessionID, projectID string
	cmd := &cobra.Command{
		Use:   "research-upload <pdf-file>",
		Short: "Upload a research PDF and extract its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]string{}
			if sessionID != "" {
				fields["session_id"] = sessionID
			}
			if projectID != "" {
				fields["project_id"] = projectID
			}
			client := api.NewClient(getServerURL())
			var resp UploadResearchResponse
			if err := client.PostFile(cmd.Context(), "/api/research/upload", "file", args[0], fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Existing session id (a new session is created if omitted)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to record the research id on")
	return cmd
}

// UploadReferenceResponse is returned after a reference article upload.
type UploadReferenceResponse struct {
	Text       string `json:"text"`
	TextLength int    `json:"text_length"`
}

// UploadReferenceEndpoint handles POST /api/reference/upload. The reference
// article steers the drafting style; its text goes back to the caller, who
// passes it to the article and polish stages.
type UploadReferenceEndpoint struct{}

var _ api.Endpoint = (*UploadReferenceEndpoint)(nil)

func (e *UploadReferenceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/reference/upload", e.handler
}

func (e *UploadReferenceEndpoint) RequiresInit() bool { return true }

func (e *UploadReferenceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	text, _, ok := extractUploadedPDF(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UploadReferenceResponse{
		Text:       text,
		TextLength: len([]rune(text)),
	})
}

func (e *UploadReferenceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reference-upload <pdf-file>",
		Short: "Upload a reference article PDF and extract its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp UploadReferenceResponse
			if err := client.PostFile(cmd.Context(), "/api/reference/upload", "file", args[0], nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// extractUploadedPDF pulls the "file" part out of a multipart request, saves
// it to a temp file, and extracts its text. Writes the error response itself
// and returns ok=false on failure.
func extractUploadedPDF(w http.ResponseWriter, r *http.Request) (text, filename string, ok bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return "", "", false
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a PDF", header.Filename))
		return "", "", false
	}

	tmp, err := os.CreateTemp("", "pressroom-upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create temp file: %v", err))
		return "", "", false
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save upload: %v", err))
		return "", "", false
	}

	text, err = pdfx.ExtractText(tmp.Name())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("failed to extract text: %v", err))
		return "", "", false
	}

	return text, filepath.Base(header.Filename), true
}
