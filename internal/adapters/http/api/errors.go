package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/playoffdraft/internal/domain/errs"
)

// ErrBadRequest marks a request the handlers could not parse.
var ErrBadRequest = errors.New("bad request")

func badRequest(op string, err error) error {
	return errs.Wrap(op, errs.ErrValidation, fmt.Errorf("%w: %v", ErrBadRequest, err))
}

// classify maps an error onto the status, code and message a client sees. Unclassified
// errors are reported without detail.
func classify(err error) (status int, code, msg string) {
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest, "validation", errs.Message(err)
	case errs.ErrUnauthenticated:
		return http.StatusUnauthorized, "unauthenticated", errs.Message(err)
	case errs.ErrAuthorization:
		return http.StatusForbidden, "forbidden", "not authorized"
	case errs.ErrNotFound:
		return http.StatusNotFound, "not_found", errs.Message(err)
	case errs.ErrConflict:
		return http.StatusConflict, "conflict", errs.Message(err)
	case errs.ErrState:
		return http.StatusConflict, "invalid_state", errs.Message(err)
	}
	return http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError)
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}
