package review

import (
	"fmt"
	"strings"

	"request-review-service/internal/model"
)

// CanSubmit is the submission gate: every item must carry a decision, and
// every rejection or modification request must carry a comment. It is a pure
// check over current session state, re-evaluated on every call, never cached.
func CanSubmit(s *Session) error {
	for _, id := range s.order {
		it := s.working[id]
		r, ok := s.decisions[id]
		if !ok {
			return newMissingDecisionError(id, it.Name)
		}
		if requiresComment(r.decision) && strings.TrimSpace(r.comment) == "" {
			return newMissingCommentError(id, it.Name, string(r.decision))
		}
	}
	return nil
}

// CanMarkPurchased gates the payment_completed -> purchased transition:
// supplier, purchase order number and tracking number are mandatory, and
// every item's specification confirmations must be complete.
func CanMarkPurchased(s *Session, rec model.PurchaseRecord) error {
	required := []struct {
		field string
		value string
	}{
		{"supplier", rec.Supplier},
		{"purchase_order_number", rec.PurchaseOrderNumber},
		{"tracking_number", rec.TrackingNumber},
	}
	for _, f := range required {
		field, value := f.field, f.value
		if strings.TrimSpace(value) == "" {
			return &ValidationError{
				Code:    CodeMissingField,
				Field:   field,
				Message: fmt.Sprintf("purchase field %q is required", field),
			}
		}
	}
	for _, id := range s.order {
		if missing := s.UnconfirmedFields(id); len(missing) > 0 {
			it := s.working[id]
			return &ValidationError{
				Code:    CodeUnconfirmedSpecification,
				ItemID:  id,
				Field:   strings.Join(missing, ", "),
				Message: fmt.Sprintf("item %q has unconfirmed specification fields: %s", it.Name, strings.Join(missing, ", ")),
			}
		}
	}
	return nil
}
