package scheduler

import "errors"

// ErrInvalidSchedule is returned for a cron spec that does not parse.
var ErrInvalidSchedule = errors.New("invalid schedule")
