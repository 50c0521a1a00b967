// status.go
package model

// Status is the main lifecycle state of a Request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"

	// StatusChangesRequested is a virtual overlay, never stored as the main
	// status: EffectiveStatus reports it while reviewStatus is needs_modification.
	StatusChangesRequested Status = "changes_requested"
)

// SubStatus tracks warehouse/inspection progress while a request is in
// progress or beyond.
type SubStatus string

const (
	SubPaymentCompleted SubStatus = "payment_completed"
	SubPurchased        SubStatus = "purchased"
	SubToBeShippedToBox SubStatus = "to_be_shipped_to_box"
	SubArrivedToBox     SubStatus = "arrived_to_box"
	SubAdminControl     SubStatus = "admin_control"
	SubCustomerReview   SubStatus = "customer_review"
	SubCustomerRejected SubStatus = "customer_rejected"
	SubCustomerApproved SubStatus = "customer_approved"
	SubPackingChoice    SubStatus = "packing_choice"
)

// ReviewStatus is the request-level aggregate of the item review outcomes.
type ReviewStatus string

const (
	ReviewPending           ReviewStatus = "pending"
	ReviewApproved          ReviewStatus = "approved"
	ReviewRejected          ReviewStatus = "rejected"
	ReviewNeedsModification ReviewStatus = "needs_modification"
)

// Decision is a reviewer's per-item verdict. The zero value means unreviewed.
type Decision string

const (
	DecisionApproved          Decision = "approved"
	DecisionRejected          Decision = "rejected"
	DecisionNeedsModification Decision = "needs_modification"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusApproved:   true,
	StatusInProgress: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// statusTransitions is the single source of truth for allowed main-status
// moves. Cancellation is handled separately (allowed from any non-terminal
// state with a reason).
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusApproved},
	StatusApproved:   {StatusInProgress},
	StatusInProgress: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// subStatusRank orders the in-progress chain. customer_rejected and
// customer_approved share a rank: they are the two outcomes of the
// customer_review fork and both lead to packing_choice.
var subStatusRank = map[SubStatus]int{
	SubPaymentCompleted: 0,
	SubPurchased:        1,
	SubToBeShippedToBox: 2,
	SubArrivedToBox:     3,
	SubAdminControl:     4,
	SubCustomerReview:   5,
	SubCustomerRejected: 6,
	SubCustomerApproved: 6,
	SubPackingChoice:    7,
}

func (s Status) Valid() bool { return validStatuses[s] }

func (s SubStatus) Valid() bool {
	_, ok := subStatusRank[s]
	return ok
}

func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionNeedsModification:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for batch aggregation (high > medium > low).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// CanTransition reports whether the main-status move is in the transition
// table. It does not evaluate guards; the lifecycle package does that.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextSubStatus reports whether moving from one subStatus to another follows
// the ordered chain without skipping. An empty current subStatus admits only
// the head of the chain.
func NextSubStatus(from, to SubStatus) bool {
	toRank, ok := subStatusRank[to]
	if !ok {
		return false
	}
	if from == "" {
		return toRank == 0
	}
	fromRank, ok := subStatusRank[from]
	if !ok {
		return false
	}
	// customer_review forks to either customer outcome; the two outcomes both
	// advance to packing_choice.
	return toRank == fromRank+1
}
