package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	CompanyName string `json:"company_name"`
}

// CreateProjectEndpoint handles POST /api/projects.
type CreateProjectEndpoint struct{}

var _ api.Endpoint = (*CreateProjectEndpoint)(nil)

func (e *CreateProjectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/projects", e.handler
}

func (e *CreateProjectEndpoint) RequiresInit() bool { return true }

func (e *CreateProjectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	proj, err := svcctx.StoreFrom(r.Context()).Create(r.Context(), req.CompanyName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (e *CreateProjectEndpoint) Command(getServerURL func() string) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "project-create",
		Short: "Create a new article project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if company == "" {
				return errors.New("--company is required")
			}
			client := api.NewClient(getServerURL())
			var resp store.Project
			if err := client.Post(cmd.Context(), "/api/projects", CreateProjectRequest{CompanyName: company}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Company name (required)")
	return cmd
}

// ListProjectsEndpoint handles GET /api/projects.
type ListProjectsEndpoint struct{}

var _ api.Endpoint = (*ListProjectsEndpoint)(nil)

func (e *ListProjectsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/projects", e.handler
}

func (e *ListProjectsEndpoint) RequiresInit() bool { return true }

func (e *ListProjectsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	projects, err := svcctx.StoreFrom(r.Context()).List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (e *ListProjectsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "project-list",
		Short: "List article projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Get(cmd.Context(), "/api/projects", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetProjectEndpoint handles GET /api/projects/{id}.
type GetProjectEndpoint struct{}

var _ api.Endpoint = (*GetProjectEndpoint)(nil)

func (e *GetProjectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/projects/{id}", e.handler
}

func (e *GetProjectEndpoint) RequiresInit() bool { return true }

func (e *GetProjectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	proj, err := svcctx.StoreFrom(r.Context()).Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (e *GetProjectEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "project-get <id>",
		Short: "Get a project by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp store.Project
			if err := client.Get(cmd.Context(), "/api/projects/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdateProjectEndpoint handles PATCH /api/projects/{id}.
// The body is a partial project; only supplied fields change.
type UpdateProjectEndpoint struct{}

var _ api.Endpoint = (*UpdateProjectEndpoint)(nil)

func (e *UpdateProjectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/projects/{id}", e.handler
}

func (e *UpdateProjectEndpoint) RequiresInit() bool { return true }

func (e *UpdateProjectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var partial store.PartialProject
	if !decodeJSON(w, r, &partial) {
		return
	}

	proj, err := svcctx.StoreFrom(r.Context()).Update(r.Context(), r.PathValue("id"), partial)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (e *UpdateProjectEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "project-update <id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial := store.PartialProject{}
			if status != "" {
				partial.Status = &status
			}
			client := api.NewClient(getServerURL())
			var resp store.Project
			if err := client.Patch(cmd.Context(), "/api/projects/"+args[0], partial, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New project status")
	return cmd
}

// DeleteProjectEndpoint handles DELETE /api/projects/{id}.
type DeleteProjectEndpoint struct{}

var _ api.Endpoint = (*DeleteProjectEndpoint)(nil)

func (e *DeleteProjectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/projects/{id}", e.handler
}

func (e *DeleteProjectEndpoint) RequiresInit() bool { return true }

func (e *DeleteProjectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	err := svcctx.StoreFrom(r.Context()).Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (e *DeleteProjectEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "project-delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/projects/"+args[0]); err != nil {
				return err
			}
			cmd.Println("deleted")
			return nil
		},
	}
}
