package review

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two headline review failures. ValidationError
// wraps one of these so callers can branch with errors.Is while still
// receiving the offending item and field.
var (
	ErrIncompleteReview = errors.New("incomplete review")
	ErrMissingComment   = errors.New("missing comment")
)

// ValidationCode identifies the specific rule a review violated.
type ValidationCode int

const (
	CodeNone ValidationCode = iota
	// Item id does not belong to the request under review
	CodeUnknownItem
	// Item has no decision yet
	CodeMissingDecision
	// Decision requires a comment and none was given
	CodeMissingComment
	// Decision value outside the closed set
	CodeInvalidDecision
	// Quantity below 1
	CodeInvalidQuantity
	// Price below 0
	CodeInvalidPrice
	// Required purchase field left blank
	CodeMissingField
	// Item specification not fully confirmed before purchase
	CodeUnconfirmedSpecification
)

// ValidationError carries enough context to render the failure without
// re-deriving session state: the rule, the item, and the field involved.
type ValidationError struct {
	Code    ValidationCode
	ItemID  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("validation error [item %s]: %s", e.ItemID, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case CodeMissingDecision:
		return ErrIncompleteReview
	case CodeMissingComment:
		return ErrMissingComment
	}
	return nil
}

func newUnknownItemError(itemID string) *ValidationError {
	return &ValidationError{
		Code:    CodeUnknownItem,
		ItemID:  itemID,
		Message: "item does not belong to this request",
	}
}

func newMissingDecisionError(itemID, name string) *ValidationError {
	return &ValidationError{
		Code:    CodeMissingDecision,
		ItemID:  itemID,
		Message: fmt.Sprintf("item %q has no review decision", name),
	}
}

func newMissingCommentError(itemID, name string, decision string) *ValidationError {
	return &ValidationError{
		Code:    CodeMissingComment,
		ItemID:  itemID,
		Field:   "comment",
		Message: fmt.Sprintf("decision %q on item %q requires a comment", decision, name),
	}
}
