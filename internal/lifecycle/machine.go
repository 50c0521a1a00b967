// Package lifecycle owns the request state machine: the ordered main-status
// and subStatus chains, the guards on each transition, and the named errors a
// failed guard produces. Transitions are computed as a Change and applied by
// the caller, so a rejected transition leaves the request untouched.
package lifecycle

import (
	"time"

	"request-review-service/internal/model"
)

// Guards carries the external preconditions a transition may depend on. The
// caller fills in only what it can attest to; missing signals fail the guard.
type Guards struct {
	// Review gate passed and the aggregate outcome approves the request
	ReviewComplete bool
	ReviewApproved bool
	// External payment-received signal
	PaymentConfirmed bool
	// Purchase record with mandatory fields attached
	PurchaseAttached bool
	// All per-item specification confirmations checked
	SpecificationVerified bool
	// The customer_review fork outcome came from the customer, not an admin
	CustomerAction bool
}

// Change is the computed effect of a valid transition.
type Change struct {
	Status      model.Status
	SubStatus   model.SubStatus
	DeliveredAt *time.Time
	CancelledAt *time.Time
	Reason      string
}

// Advance validates a move to the given status/subStatus against the
// transition tables and guards. Either may be empty to keep the current
// value. On success it returns the Change to apply; on failure the request is
// untouched and the error names the unmet precondition.
func Advance(req *model.Request, to model.Status, sub model.SubStatus, g Guards, now time.Time) (*Change, error) {
	if req.IsTerminal() {
		return nil, newTransitionError(ErrTerminalState, req, to, sub, "request is in a terminal state")
	}

	change := &Change{Status: req.Status, SubStatus: req.SubStatus}

	if to != "" && to != req.Status {
		if !to.Valid() || !model.CanTransition(req.Status, to) {
			return nil, newTransitionError(ErrInvalidTransition, req, to, sub, "transition not allowed")
		}
		if err := mainGuard(req, to, g); err != nil {
			return nil, err
		}
		change.Status = to
		switch to {
		case model.StatusInProgress:
			// entering in_progress lands on the head of the subStatus chain
			change.SubStatus = model.SubPaymentCompleted
		case model.StatusShipped:
			change.SubStatus = ""
		case model.StatusDelivered:
			change.SubStatus = ""
			change.DeliveredAt = &now
		}
		return change, nil
	}

	if sub != "" && sub != req.SubStatus {
		if req.Status != model.StatusInProgress {
			return nil, newTransitionError(ErrInvalidTransition, req, to, sub, "subStatus only advances while in progress")
		}
		if !model.NextSubStatus(req.SubStatus, sub) {
			return nil, newTransitionError(ErrInvalidTransition, req, to, sub, "subStatus step out of order")
		}
		if err := subGuard(req, sub, g); err != nil {
			return nil, err
		}
		change.SubStatus = sub
		return change, nil
	}

	return nil, newTransitionError(ErrInvalidTransition, req, to, sub, "no state change requested")
}

// Cancel moves any non-terminal request to cancelled. A reason is mandatory.
func Cancel(req *model.Request, reason string, now time.Time) (*Change, error) {
	if req.IsTerminal() {
		return nil, newTransitionError(ErrTerminalState, req, model.StatusCancelled, "", "request is in a terminal state")
	}
	if reason == "" {
		return nil, newTransitionError(ErrCancellationReasonRequired, req, model.StatusCancelled, "", "cancellation requires a reason")
	}
	return &Change{
		Status:      model.StatusCancelled,
		SubStatus:   "",
		CancelledAt: &now,
		Reason:      reason,
	}, nil
}

func mainGuard(req *model.Request, to model.Status, g Guards) error {
	switch {
	case req.Status == model.StatusPending && to == model.StatusApproved:
		if !g.ReviewComplete || !g.ReviewApproved {
			return newTransitionError(ErrIncompleteReview, req, to, "", "review must be complete and approving")
		}
	case req.Status == model.StatusApproved && to == model.StatusInProgress:
		if !g.PaymentConfirmed {
			return newTransitionError(ErrPaymentNotConfirmed, req, to, "", "payment has not been confirmed")
		}
	case req.Status == model.StatusInProgress && to == model.StatusShipped:
		if req.SubStatus != model.SubPackingChoice {
			return newTransitionError(ErrInvalidTransition, req, to, "", "packing choice step not reached")
		}
	}
	return nil
}

func subGuard(req *model.Request, sub model.SubStatus, g Guards) error {
	switch sub {
	case model.SubPurchased:
		if !g.PurchaseAttached {
			return newTransitionError(ErrInvalidTransition, req, "", sub, "purchase record not attached")
		}
		if !g.SpecificationVerified {
			return newTransitionError(ErrSpecificationNotVerified, req, "", sub, "item specifications not fully confirmed")
		}
	case model.SubCustomerApproved, model.SubCustomerRejected:
		if !g.CustomerAction {
			return newTransitionError(ErrInvalidTransition, req, "", sub, "customer review outcome is recorded from customer action only")
		}
	}
	return nil
}
