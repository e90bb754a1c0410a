package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
)

// DraftDependencies defines the draft board operations.
type DraftDependencies interface {
	State(ctx context.Context) (realtime.State, error)
	Players(ctx context.Context) ([]model.Player, error)
	EligiblePlayers(ctx context.Context, team, search string) ([]model.Player, error)
	Pick(ctx context.Context, pk model.DraftPick) (model.Team, error)
	Unpick(ctx context.Context, team string, slot int) (model.Team, error)
	FinishDraft(ctx context.Context) error
	ResetDraft(ctx context.Context, confirm bool) error
}

// DraftHandler handles draft requests.
type DraftHandler struct {
	deps DraftDependencies
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(deps DraftDependencies) *DraftHandler {
	return &DraftHandler{deps: deps}
}

type pickRequest struct {
	Team     string `json:"team"`
	Slot     int    `json:"slot"`
	PlayerID int    `json:"playerId"`
	Cost     *int   `json:"cost"`
}

func (p pickRequest) validate() error {
	switch {
	case strings.TrimSpace(p.Team) == "":
		return errMissing("team")
	case p.PlayerID == 0:
		return errMissing("playerId")
	case p.Cost == nil:
		return errMissing("cost")
	}
	return nil
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type statusResponse struct {
	IsDraftFinished bool `json:"isDraftFinished"`
}

// HandleState handles GET /draft with the snapshot clients load their replica from.
func (h *DraftHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.State(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandlePlayers handles GET /players/all.
func (h *DraftHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.Players(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleEligible handles GET /players?team=&q=.
func (h *DraftHandler) HandleEligible(w http.ResponseWriter, r *http.Request) {
	const op = "api.eligible_players"
	team := r.URL.Query().Get("team")
	if team == "" {
		writeError(w, r, badRequest(op, errMissing("team")))
		return
	}
	players, err := h.deps.EligiblePlayers(r.Context(), team, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandlePick handles POST /draft/picks.
func (h *DraftHandler) HandlePick(w http.ResponseWriter, r *http.Request) {
	const op = "api.pick"
	var req pickRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, badRequest(op, err))
		return
	}
	team, err := h.deps.Pick(r.Context(), model.DraftPick{
		Team:     req.Team,
		Slot:     req.Slot,
		PlayerID: req.PlayerID,
		Cost:     *req.Cost,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// HandleUnpick handles DELETE /draft/picks/{team}/{slot}.
func (h *DraftHandler) HandleUnpick(w http.ResponseWriter, r *http.Request) {
	slot, err := intParam(r, "slot")
	if err != nil {
		writeError(w, r, err)
		return
	}
	team, err := h.deps.Unpick(r.Context(), chi.URLParam(r, "team"), slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// HandleFinish handles POST /draft/finish.
func (h *DraftHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.FinishDraft(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{IsDraftFinished: true})
}

// HandleReset handles POST /draft/reset. The body must carry {"confirm": true}.
func (h *DraftHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.ResetDraft(r.Context(), req.Confirm); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{IsDraftFinished: false})
}
