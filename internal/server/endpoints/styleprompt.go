package endpoints

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// StylePromptResponse carries the persisted house-style prompt.
type StylePromptResponse struct {
	Prompt string `json:"prompt"`
}

// StylePromptRequest is the request body for updating the style prompt.
type StylePromptRequest struct {
	Prompt string `json:"prompt"`
}

// GetStylePromptEndpoint handles GET /api/styleprompt. The style prompt is a
// plain text file under the home directory so it survives restarts and can
// be edited out-of-band.
type GetStylePromptEndpoint struct{}

var _ api.Endpoint = (*GetStylePromptEndpoint)(nil)

func (e *GetStylePromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/styleprompt", e.handler
}

func (e *GetStylePromptEndpoint) RequiresInit() bool { return true }

func (e *GetStylePromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	path := svcctx.HomeFrom(r.Context()).StylePromptPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, StylePromptResponse{Prompt: ""})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StylePromptResponse{Prompt: string(data)})
}

func (e *GetStylePromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "styleprompt-get",
		Short: "Show the persisted house-style prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StylePromptResponse
			if err := client.Get(cmd.Context(), "/api/styleprompt", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetStylePromptEndpoint handles PUT /api/styleprompt.
type SetStylePromptEndpoint struct{}

var _ api.Endpoint = (*SetStylePromptEndpoint)(nil)

func (e *SetStylePromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/styleprompt", e.handler
}

func (e *SetStylePromptEndpoint) RequiresInit() bool { return true }

func (e *SetStylePromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StylePromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	path := svcctx.HomeFrom(r.Context()).StylePromptPath()
	if err := os.WriteFile(path, []byte(req.Prompt), 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StylePromptResponse{Prompt: req.Prompt})
}

func (e *SetStylePromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "styleprompt-set <prompt-file>",
		Short: "Replace the persisted house-style prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp StylePromptResponse
			if err := client.Put(cmd.Context(), "/api/styleprompt", StylePromptRequest{Prompt: prompt}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
