package review

import (
	"fmt"
	"strings"

	"request-review-service/internal/model"
)

// Session holds one reviewer's transient state for one Request: per-item
// decisions and comments, working copies of item fields, and specification
// confirmations. The baseline snapshot is taken once at construction and
// never touched again, so edits can always be cancelled back to what the
// customer submitted.
type Session struct {
	RequestID string

	order    []string
	baseline map[string]model.Item
	working  map[string]model.Item

	decisions     map[string]itemReview
	confirmations map[string]map[string]bool
}

type itemReview struct {
	decision model.Decision
	comment  string
}

// ItemOutcome is one entry of the per-item outcome list. Decision is empty
// for unreviewed items.
type ItemOutcome struct {
	ItemID   string
	Name     string
	Decision model.Decision
	Comment  string
}

// Summary counts the item outcomes. Per-item granularity is preserved in
// Items; the request-level aggregate is an explicit policy (Overall), not an
// implicit collapse.
type Summary struct {
	Approved          int
	Rejected          int
	NeedsModification int
	Unreviewed        int
	Items             []ItemOutcome
}

// Overall maps the outcome counts onto a single request-level review status:
// everything approved wins, any needs_modification blocks, otherwise any
// rejection rejects, and any unreviewed item keeps the review pending.
func (s Summary) Overall() model.ReviewStatus {
	switch {
	case s.Unreviewed > 0:
		return model.ReviewPending
	case s.NeedsModification > 0:
		return model.ReviewNeedsModification
	case s.Rejected > 0 && s.Approved == 0:
		return model.ReviewRejected
	case s.Rejected > 0:
		// Mixed approved/rejected: the approved items proceed, the rejected
		// ones are excluded from totals, so the request as a whole proceeds.
		return model.ReviewApproved
	default:
		return model.ReviewApproved
	}
}

// Payload is the structured result of a finished review session, committed
// atomically per request.
type Payload struct {
	RequestID     string
	Items         []model.Item
	Decisions     []model.ItemDecision
	Summary       Summary
	TotalAmount   float64
	ApprovedCount int
}

// ItemEdit carries field-level overrides for one item. Nil fields are left
// untouched.
type ItemEdit struct {
	Name        *string
	SourceURL   *string
	Description *string
	Quantity    *int
	Price       *float64
	Size        *string
	Color       *string
	Brand       *string
	Notes       *string
	Category    *string
}

// NewSession snapshots the request's items and starts an empty decision set.
func NewSession(req *model.Request) *Session {
	s := &Session{
		RequestID:     req.ID,
		baseline:      make(map[string]model.Item, len(req.Items)),
		working:       make(map[string]model.Item, len(req.Items)),
		decisions:     make(map[string]itemReview),
		confirmations: make(map[string]map[string]bool),
	}
	for _, it := range req.Items {
		s.order = append(s.order, it.ID)
		s.working[it.ID] = it
	}
	// The baseline is the customer's original submission when the request
	// carries one, otherwise the current items.
	source := req.OriginalItems
	if len(source) == 0 {
		source = req.Items
	}
	for _, it := range source {
		s.baseline[it.ID] = it
	}
	return s
}

// SetDecision records the reviewer's verdict for one item. Rejections and
// modification requests must carry a non-blank comment.
func (s *Session) SetDecision(itemID string, decision model.Decision, comment string) error {
	it, ok := s.working[itemID]
	if !ok {
		return newUnknownItemError(itemID)
	}
	if !decision.Valid() {
		return &ValidationError{
			Code:    CodeInvalidDecision,
			ItemID:  itemID,
			Message: fmt.Sprintf("invalid decision %q", decision),
		}
	}
	if requiresComment(decision) && strings.TrimSpace(comment) == "" {
		return newMissingCommentError(itemID, it.Name, string(decision))
	}
	s.decisions[itemID] = itemReview{decision: decision, comment: strings.TrimSpace(comment)}
	return nil
}

// ClearDecision returns an item to the unreviewed state.
func (s *Session) ClearDecision(itemID string) {
	delete(s.decisions, itemID)
}

// Decision reports the current verdict for an item; empty means unreviewed.
func (s *Session) Decision(itemID string) (model.Decision, string) {
	r := s.decisions[itemID]
	return r.decision, r.comment
}

// EditItem applies field overrides to the working copy. The baseline is never
// changed.
func (s *Session) EditItem(itemID string, edit ItemEdit) error {
	it, ok := s.working[itemID]
	if !ok {
		return newUnknownItemError(itemID)
	}
	if edit.Quantity != nil && *edit.Quantity < 1 {
		return &ValidationError{
			Code:    CodeInvalidQuantity,
			ItemID:  itemID,
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be at least 1, got %d", *edit.Quantity),
		}
	}
	if edit.Price != nil && *edit.Price < 0 {
		return &ValidationError{
			Code:    CodeInvalidPrice,
			ItemID:  itemID,
			Field:   "price",
			Message: fmt.Sprintf("price must not be negative, got %v", *edit.Price),
		}
	}
	if edit.Name != nil {
		it.Name = *edit.Name
	}
	if edit.SourceURL != nil {
		it.SourceURL = *edit.SourceURL
	}
	if edit.Description != nil {
		it.Description = *edit.Description
	}
	if edit.Quantity != nil {
		it.Quantity = *edit.Quantity
	}
	if edit.Price != nil {
		it.Price = *edit.Price
	}
	if edit.Size != nil {
		it.Size = *edit.Size
	}
	if edit.Color != nil {
		it.Color = *edit.Color
	}
	if edit.Brand != nil {
		it.Brand = *edit.Brand
	}
	if edit.Notes != nil {
		it.Notes = *edit.Notes
	}
	if edit.Category != nil {
		it.Category = *edit.Category
	}
	s.working[itemID] = it
	return nil
}

// CancelEdit restores the working copy to the immutable baseline, discarding
// every intermediate edit, not just the last one.
func (s *Session) CancelEdit(itemID string) error {
	base, ok := s.baseline[itemID]
	if !ok {
		return newUnknownItemError(itemID)
	}
	s.working[itemID] = base
	return nil
}

// WorkingItem returns the current working copy of an item.
func (s *Session) WorkingItem(itemID string) (model.Item, bool) {
	it, ok := s.working[itemID]
	return it, ok
}

// BaselineItem returns the original customer-submitted values of an item.
func (s *Session) BaselineItem(itemID string) (model.Item, bool) {
	it, ok := s.baseline[itemID]
	return it, ok
}

// RequiredConfirmations lists the specification fields a reviewer must check
// off on an item before it can be marked purchased: quantity, size and color
// always, plus brand, notes and category when the item carries them.
func (s *Session) RequiredConfirmations(itemID string) []string {
	it, ok := s.working[itemID]
	if !ok {
		return nil
	}
	required := []string{"quantity", "size", "color"}
	if it.Brand != "" {
		required = append(required, "brand")
	}
	if it.Notes != "" {
		required = append(required, "notes")
	}
	if it.Category != "" {
		required = append(required, "category")
	}
	return required
}

// ConfirmSpecification checks off one specification field on an item.
func (s *Session) ConfirmSpecification(itemID, field string) error {
	required := s.RequiredConfirmations(itemID)
	if required == nil {
		return newUnknownItemError(itemID)
	}
	found := false
	for _, f := range required {
		if f == field {
			found = true
			break
		}
	}
	if !found {
		return &ValidationError{
			Code:    CodeMissingField,
			ItemID:  itemID,
			Field:   field,
			Message: fmt.Sprintf("field %q is not a required confirmation for this item", field),
		}
	}
	if s.confirmations[itemID] == nil {
		s.confirmations[itemID] = make(map[string]bool)
	}
	s.confirmations[itemID][field] = true
	return nil
}

// UnconfirmedFields lists required confirmations not yet checked for an item.
func (s *Session) UnconfirmedFields(itemID string) []string {
	var missing []string
	for _, f := range s.RequiredConfirmations(itemID) {
		if !s.confirmations[itemID][f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// Summary tallies the per-item outcomes in request item order.
func (s *Session) Summary() Summary {
	var sum Summary
	for _, id := range s.order {
		it := s.working[id]
		r, reviewed := s.decisions[id]
		out := ItemOutcome{ItemID: id, Name: it.Name}
		if reviewed {
			out.Decision = r.decision
			out.Comment = r.comment
		}
		switch {
		case !reviewed:
			sum.Unreviewed++
		case r.decision == model.DecisionApproved:
			sum.Approved++
		case r.decision == model.DecisionRejected:
			sum.Rejected++
		case r.decision == model.DecisionNeedsModification:
			sum.NeedsModification++
		}
		sum.Items = append(sum.Items, out)
	}
	return sum
}

// TotalAmount sums price x quantity over items whose decision keeps them in
// the order. Rejected items are excluded; needs_modification items still
// count since they proceed once corrected. Unreviewed items count as well so
// the running total is meaningful before the review is complete.
func (s *Session) TotalAmount() float64 {
	var total float64
	for _, id := range s.order {
		if r, ok := s.decisions[id]; ok && r.decision == model.DecisionRejected {
			continue
		}
		it := s.working[id]
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// ApprovedCount counts items still in the order: decision approved or
// needs_modification.
func (s *Session) ApprovedCount() int {
	n := 0
	for _, r := range s.decisions {
		if r.decision == model.DecisionApproved || r.decision == model.DecisionNeedsModification {
			n++
		}
	}
	return n
}

// Payload assembles the commit payload. It refuses to build one for an
// incomplete or inconsistent session so no partial decision set can ever be
// applied.
func (s *Session) Payload() (*Payload, error) {
	if err := CanSubmit(s); err != nil {
		return nil, err
	}
	p := &Payload{
		RequestID:     s.RequestID,
		Summary:       s.Summary(),
		TotalAmount:   s.TotalAmount(),
		ApprovedCount: s.ApprovedCount(),
	}
	for _, id := range s.order {
		p.Items = append(p.Items, s.working[id])
		r := s.decisions[id]
		p.Decisions = append(p.Decisions, model.ItemDecision{
			ItemID:   id,
			Decision: r.decision,
			Comment:  r.comment,
		})
	}
	return p, nil
}

// ItemIDs returns the item ids in request order.
func (s *Session) ItemIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func requiresComment(d model.Decision) bool {
	return d == model.DecisionRejected || d == model.DecisionNeedsModification
}
