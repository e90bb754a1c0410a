package scoring

import (
	"slices"
	"strconv"
	"strings"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
)

// Validate is the form check applied before score data is accepted. Every present value
// must be a whole number >= 0, field goal yardages must be > 0 and only kickers may carry
// them, and fields unknown to the position are rejected.
func Validate(pos model.Position, data *model.ScoreData) error {
	const op = "scoring.validate"
	if !pos.Valid() {
		return errs.Newf(op, errs.ErrValidation, "unknown position %q", pos)
	}
	if data == nil {
		return errs.New(op, errs.ErrValidation, "score data is required")
	}
	allowed := fields[pos]
	for k, v := range data.Fields {
		if !slices.Contains(allowed, k) {
			return errs.Newf(op, errs.ErrValidation, "field %q does not apply to %s", k, pos)
		}
		if _, ok := wholeNumber(v); !ok {
			return errs.Newf(op, errs.ErrValidation, "%s must be a whole number, got %q", k, v)
		}
	}
	if len(data.FieldGoals) > 0 && pos != model.K {
		return errs.Newf(op, errs.ErrValidation, "%s only applies to kickers", model.FieldGoalsKey)
	}
	for i, v := range data.FieldGoals {
		n, ok := wholeNumber(v)
		if !ok || n == 0 {
			return errs.Newf(op, errs.ErrValidation, "field goal %d must be a positive whole number of yards, got %q", i+1, v)
		}
	}
	return nil
}

func wholeNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
