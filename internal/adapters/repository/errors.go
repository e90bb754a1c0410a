package repository

import (
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
)

func teamNotFound(op, name string) error {
	return errs.Newf(op, errs.ErrNotFound, "team %q not found", name)
}

func playerNotFound(op string, id int) error {
	return errs.Newf(op, errs.ErrNotFound, "player %d not found", id)
}

func scoreNotFound(op string, id int, r model.Round) error {
	return errs.Newf(op, errs.ErrNotFound, "no score for player %d in the %s round", id, r)
}

func teamExists(op, name string) error {
	return errs.Newf(op, errs.ErrConflict, "team %q already exists", name)
}

func overspent(op, name string, spent, budget int) error {
	return errs.Newf(op, errs.ErrConflict, "%s has already spent $%d, more than $%d", name, spent, budget)
}
