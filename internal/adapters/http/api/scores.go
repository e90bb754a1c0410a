package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/rules"
)

// ScoresDependencies defines the scoring operations.
type ScoresDependencies interface {
	ScoringRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error)
	SetScoringRules(ctx context.Context, pos model.Position, in []rules.Input) (service.RulesResult, error)
	Recalculate(ctx context.Context, positions ...model.Position) (int, error)
	Scores(ctx context.Context, round model.Round) ([]model.PlayerScore, error)
	SaveScore(ctx context.Context, playerID int, round model.Round, data *model.ScoreData) (model.PlayerScore, error)
	ClearScore(ctx context.Context, playerID int, round model.Round) error
	DisableScore(ctx context.Context, playerID int, round model.Round, reason model.StatusReason) error
	ReactivateScore(ctx context.Context, playerID int, round model.Round) error
	Rounds(ctx context.Context) (map[model.Round]bool, error)
}

// ScoresHandler handles rule and score requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreRequest struct {
	ScoreData *model.ScoreData `json:"scoreData"`
}

type disableRequest struct {
	Reason string `json:"reason"`
}

type recalcResponse struct {
	Updated int `json:"updated"`
}

// HandleRules handles GET /rules/{position}.
func (h *ScoresHandler) HandleRules(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(chi.URLParam(r, "position"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.deps.ScoringRules(r.Context(), pos)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSetRules handles PUT /rules/{position} with a JSON array of rule inputs.
func (h *ScoresHandler) HandleSetRules(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(chi.URLParam(r, "position"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req []rules.Input
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.SetScoringRules(r.Context(), pos, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRecalculate handles POST /scores/recalculate?position=QB,RB. Without a position
// every position is recalculated.
func (h *ScoresHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	var positions []model.Position
	if raw := r.URL.Query().Get("position"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			pos, err := positionParam(part)
			if err != nil {
				writeError(w, r, err)
				return
			}
			positions = append(positions, pos)
		}
	}
	n, err := h.deps.Recalculate(r.Context(), positions...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recalcResponse{Updated: n})
}

// HandleList handles GET /scores?round=.
func (h *ScoresHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var round model.Round
	if raw := r.URL.Query().Get("round"); raw != "" {
		parsed, err := model.ParseRound(raw)
		if err != nil {
			writeError(w, r, badRequest("api.scores", err))
			return
		}
		round = parsed
	}
	out, err := h.deps.Scores(r.Context(), round)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSave handles PUT /scores/{round}/{playerID}.
func (h *ScoresHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	round, playerID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req scoreRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ScoreData == nil {
		writeError(w, r, badRequest("api.save_score", errMissing("scoreData")))
		return
	}
	rec, err := h.deps.SaveScore(r.Context(), playerID, round, req.ScoreData)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleClear handles DELETE /scores/{round}/{playerID}.
func (h *ScoresHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	round, playerID, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.deps.ClearScore(r.Context(), playerID, round); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles POST /scores/{round}/{playerID}/disable. The body is optional in
// the Wild Card round.
func (h *ScoresHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	round, playerID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req disableRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	reason, err := model.ParseStatusReason(req.Reason)
	if err != nil {
		writeError(w, r, badRequest("api.disable_score", err))
		return
	}
	if err := h.deps.DisableScore(r.Context(), playerID, round, reason); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReactivate handles POST /scores/{round}/{playerID}/reactivate.
func (h *ScoresHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	round, playerID, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.deps.ReactivateScore(r.Context(), playerID, round); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRounds handles GET /rounds with the accessibility of each round by name.
func (h *ScoresHandler) HandleRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.deps.Rounds(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]bool, len(rounds))
	for round, open := range rounds {
		out[round.String()] = open
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScoresHandler) target(w http.ResponseWriter, r *http.Request) (model.Round, int, bool) {
	round, err := roundParam(r)
	if err != nil {
		writeError(w, r, err)
		return 0, 0, false
	}
	playerID, err := intParam(r, "playerID")
	if err != nil {
		writeError(w, r, err)
		return 0, 0, false
	}
	return round, playerID, true
}
