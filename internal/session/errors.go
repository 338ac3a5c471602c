package session

import "errors"

// Domain Errors
var (
	ErrNoActiveAttempt    = errors.New("no attempt in progress")
	ErrAttemptCompleted   = errors.New("attempt already submitted")
	ErrSubmissionInFlight = errors.New("a submission for this attempt is already in flight")
	ErrUnknownQuestion    = errors.New("question does not belong to this attempt")
	ErrInvalidChoice      = errors.New("answer is not one of the offered options")
	ErrMissingSession     = errors.New("attempt state missing from store")
)
