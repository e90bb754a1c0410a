// Package errs defines the error taxonomy shared by the domain, storage and HTTP layers.
//
// Every failure surfaced to a caller carries exactly one Kind. Callers test kinds with
// errors.Is(err, errs.ErrConflict) and never match on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind sentinels.
var (
	ErrValidation      = errors.New("validation error")
	ErrAuthorization   = errors.New("not authorized")
	ErrUnauthenticated = fmt.Errorf("unauthenticated: %w", ErrAuthorization)
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrState           = errors.New("invalid state")
)

// E is a classified error. Op names the failing operation, Msg is the human-readable reason.
type E struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *E) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *E) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New builds a classified error with a message.
func New(op string, kind error, msg string) error {
	return &E{Op: op, Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(op string, kind error, format string, args ...any) error {
	return &E{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind carried by err, or nil when err is unclassified.
// ErrUnauthenticated is reported before ErrAuthorization since it wraps it.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range []error{ErrValidation, ErrUnauthenticated, ErrAuthorization, ErrNotFound, ErrConflict, ErrState} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the human-readable reason of the outermost classified error in the chain.
func Message(err error) string {
	var e *E
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err != nil {
			return Message(e.Err)
		}
		return e.Kind.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
