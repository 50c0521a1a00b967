package lifecycle

import (
	"errors"
	"fmt"

	"request-review-service/internal/model"
)

// Named guard failures. Callers distinguish "you forgot something"
// (IncompleteReview, SpecificationNotVerified) from ordering violations
// (InvalidTransition) and dead ends (TerminalState) with errors.Is.
var (
	ErrInvalidTransition          = errors.New("invalid transition")
	ErrTerminalState              = errors.New("terminal state")
	ErrIncompleteReview           = errors.New("incomplete review")
	ErrPaymentNotConfirmed        = errors.New("payment not confirmed")
	ErrSpecificationNotVerified   = errors.New("specification not verified")
	ErrCancellationReasonRequired = errors.New("cancellation reason required")
)

// TransitionError wraps a named guard failure with where the request was and
// where the caller tried to take it.
type TransitionError struct {
	Err           error
	From          model.Status
	FromSubStatus model.SubStatus
	To            model.Status
	ToSubStatus   model.SubStatus
	Message       string
}

func (e *TransitionError) Error() string {
	from := string(e.From)
	if e.FromSubStatus != "" {
		from = fmt.Sprintf("%s/%s", e.From, e.FromSubStatus)
	}
	to := string(e.To)
	if e.ToSubStatus != "" {
		to = fmt.Sprintf("%s/%s", e.To, e.ToSubStatus)
	}
	if to == "" {
		to = from
	}
	return fmt.Sprintf("transition %s -> %s: %s", from, to, e.Message)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func newTransitionError(err error, req *model.Request, to model.Status, sub model.SubStatus, msg string) *TransitionError {
	return &TransitionError{
		Err:           err,
		From:          req.Status,
		FromSubStatus: req.SubStatus,
		To:            to,
		ToSubStatus:   sub,
		Message:       msg,
	}
}
