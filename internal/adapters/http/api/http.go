// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"

	"github.com/okian/playoffdraft/internal/adapters/http/swagger"
	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/internal/domain/rules"
	"github.com/okian/playoffdraft/pkg/logger"
)

// defaultRequestTimeout bounds every request except the event stream.
const defaultRequestTimeout = 15 * time.Second

// Service is the application surface the handlers call. *service.Service implements it.
type Service interface {
	State(ctx context.Context) (realtime.State, error)
	Players(ctx context.Context) ([]model.Player, error)
	EligiblePlayers(ctx context.Context, team, search string) ([]model.Player, error)

	Teams(ctx context.Context) ([]model.Team, error)
	CreateTeam(ctx context.Context, in service.TeamInput) (model.Team, error)
	UpdateTeam(ctx context.Context, name string, in service.TeamInput) (model.Team, error)
	DeleteTeam(ctx context.Context, name string) error
	SetBudget(ctx context.Context, budget int) ([]model.Team, error)

	Pick(ctx context.Context, pk model.DraftPick) (model.Team, error)
	Unpick(ctx context.Context, team string, slot int) (model.Team, error)
	FinishDraft(ctx context.Context) error
	ResetDraft(ctx context.Context, confirm bool) error

	ScoringRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error)
	SetScoringRules(ctx context.Context, pos model.Position, in []rules.Input) (service.RulesResult, error)
	Recalculate(ctx context.Context, positions ...model.Position) (int, error)

	Scores(ctx context.Context, round model.Round) ([]model.PlayerScore, error)
	SaveScore(ctx context.Context, playerID int, round model.Round, data *model.ScoreData) (model.PlayerScore, error)
	ClearScore(ctx context.Context, playerID int, round model.Round) error
	DisableScore(ctx context.Context, playerID int, round model.Round, reason model.StatusReason) error
	ReactivateScore(ctx context.Context, playerID int, round model.Round) error
	Rounds(ctx context.Context) (map[model.Round]bool, error)

	Me(ctx context.Context) (model.Permission, error)
	Permissions(ctx context.Context) ([]model.Permission, error)
	SetPermission(ctx context.Context, p model.Permission) error

	Stats(ctx context.Context) (service.Stats, error)
}

var _ Service = (*service.Service)(nil)

// Server wires HTTP routes for the draft API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	draftHandler       *DraftHandler
	teamsHandler       *TeamsHandler
	scoresHandler      *ScoresHandler
	permissionsHandler *PermissionsHandler

	stream  http.Handler
	timeout time.Duration
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(svc),
		draftHandler:       NewDraftHandler(svc),
		teamsHandler:       NewTeamsHandler(svc),
		scoresHandler:      NewScoresHandler(svc),
		permissionsHandler: NewPermissionsHandler(svc),
		timeout:            defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Routes builds the router. The event stream is mounted outside the request timeout.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggerMiddleware(s.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(IdentityMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	swagger.Mount(r)
	if s.stream != nil {
		r.Method(http.MethodGet, "/ws", s.stream)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", s.draftHandler.HandleEligible)
			r.Get("/all", s.draftHandler.HandlePlayers)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", s.teamsHandler.HandleList)
			r.Post("/", s.teamsHandler.HandleCreate)
			r.Put("/{name}", s.teamsHandler.HandleUpdate)
			r.Delete("/{name}", s.teamsHandler.HandleDelete)
		})
		r.Put("/budget", s.teamsHandler.HandleBudget)

		r.Route("/draft", func(r chi.Router) {
			r.Get("/", s.draftHandler.HandleState)
			r.Post("/picks", s.draftHandler.HandlePick)
			r.Delete("/picks/{team}/{slot:\\d+}", s.draftHandler.HandleUnpick)
			r.Post("/finish", s.draftHandler.HandleFinish)
			r.Post("/reset", s.draftHandler.HandleReset)
		})

		r.Route("/rules/{position}", func(r chi.Router) {
			r.Get("/", s.scoresHandler.HandleRules)
			r.Put("/", s.scoresHandler.HandleSetRules)
		})

		r.Route("/scores", func(r chi.Router) {
			r.Get("/", s.scoresHandler.HandleList)
			r.Post("/recalculate", s.scoresHandler.HandleRecalculate)
			r.Route("/{round}/{playerID:\\d+}", func(r chi.Router) {
				r.Put("/", s.scoresHandler.HandleSave)
				r.Delete("/", s.scoresHandler.HandleClear)
				r.Post("/disable", s.scoresHandler.HandleDisable)
				r.Post("/reactivate", s.scoresHandler.HandleReactivate)
			})
		})
		r.Get("/rounds", s.scoresHandler.HandleRounds)

		r.Get("/me", s.permissionsHandler.HandleMe)
		r.Route("/permissions", func(r chi.Router) {
			r.Get("/", s.permissionsHandler.HandleList)
			r.Put("/{userID}", s.permissionsHandler.HandleSet)
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var renderer = render.New(render.Options{UnEscapeHTML: true})

func writeJSON(w http.ResponseWriter, status int, v any) {
	_ = renderer.JSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r.Context()).Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("api.decode", err)
	}
	return nil
}
