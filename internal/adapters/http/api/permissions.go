package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/playoffdraft/internal/domain/model"
)

// PermissionsDependencies defines the permission operations.
type PermissionsDependencies interface {
	Me(ctx context.Context) (model.Permission, error)
	Permissions(ctx context.Context) ([]model.Permission, error)
	SetPermission(ctx context.Context, p model.Permission) error
}

// PermissionsHandler handles permission requests.
type PermissionsHandler struct {
	deps PermissionsDependencies
}

// NewPermissionsHandler creates a new permissions handler.
func NewPermissionsHandler(deps PermissionsDependencies) *PermissionsHandler {
	return &PermissionsHandler{deps: deps}
}

type permissionRequest struct {
	EditScores bool `json:"editScores"`
	IsAdmin    bool `json:"isAdmin"`
}

// HandleMe handles GET /me.
func (h *PermissionsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Me(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleList handles GET /permissions.
func (h *PermissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Permissions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSet handles PUT /permissions/{userID}.
func (h *PermissionsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := model.Permission{UserID: chi.URLParam(r, "userID"), EditScores: req.EditScores, IsAdmin: req.IsAdmin}
	if err := h.deps.SetPermission(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
