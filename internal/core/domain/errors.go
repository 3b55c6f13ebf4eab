package domain

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAggregateLocked   = errors.New("aggregate locked")
	ErrInvalidReference  = errors.New("invalid reference")

	ErrEventNotFound = errors.New("event not found")
	ErrPollNotFound  = errors.New("poll not found")
	ErrConflict      = errors.New("concurrent update")
	ErrNoResponse    = errors.New("user has no response on this axis")
)

// Kind returns the tag surfaced to callers for err, or "" when err is not one
// of the engine's errors.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrAggregateLocked):
		return "AggregateLocked"
	case errors.Is(err, ErrInvalidReference):
		return "InvalidReference"
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrPollNotFound), errors.Is(err, ErrNoResponse):
		return "NotFound"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	}
	return ""
}
