package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/playoffdraft/internal/domain/model"
)

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, badRequest("api."+name, err)
	}
	return n, nil
}

func roundParam(r *http.Request) (model.Round, error) {
	round, err := model.ParseRound(chi.URLParam(r, "round"))
	if err != nil {
		return 0, badRequest("api.round", err)
	}
	return round, nil
}

func positionParam(raw string) (model.Position, error) {
	pos, err := model.ParsePosition(raw)
	if err != nil {
		return "", badRequest("api.position", err)
	}
	return pos, nil
}
