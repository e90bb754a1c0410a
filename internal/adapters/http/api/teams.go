package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/domain/model"
)

// TeamsDependencies defines the team administration operations.
type TeamsDependencies interface {
	Teams(ctx context.Context) ([]model.Team, error)
	CreateTeam(ctx context.Context, in service.TeamInput) (model.Team, error)
	UpdateTeam(ctx context.Context, name string, in service.TeamInput) (model.Team, error)
	DeleteTeam(ctx context.Context, name string) error
	SetBudget(ctx context.Context, budget int) ([]model.Team, error)
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamsDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type budgetRequest struct {
	Budget *int `json:"budget"`
}

// HandleList handles GET /teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleCreate handles POST /teams.
func (h *TeamsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.TeamInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := h.deps.CreateTeam(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// HandleUpdate handles PUT /teams/{name}.
func (h *TeamsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req service.TeamInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := h.deps.UpdateTeam(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// HandleDelete handles DELETE /teams/{name}.
func (h *TeamsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteTeam(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBudget handles PUT /budget.
func (h *TeamsHandler) HandleBudget(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_budget"
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Budget == nil {
		writeError(w, r, badRequest(op, errMissing("budget")))
		return
	}
	teams, err := h.deps.SetBudget(r.Context(), *req.Budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}
