package review

import (
	"errors"
	"fmt"
	"time"

	"request-review-service/internal/model"
)

var (
	ErrEmptyBatch     = errors.New("batch needs at least one request")
	ErrMixedCustomers = errors.New("batch requests must belong to one customer")
)

// Batch groups several independent requests from one customer into a single
// review pass. Each member keeps its own Session; nothing a reviewer does on
// one member ever touches another.
type Batch struct {
	Name     string
	Customer model.Customer
	Priority model.Priority
	Members  []*Member
}

// Member pairs one request with its own review session.
type Member struct {
	Request *model.Request
	Session *Session
}

// BatchResult is the per-member outcome of a batch submission. Members commit
// independently: one failure never rolls back the others.
type BatchResult struct {
	RequestID string
	Updated   *model.Request
	Err       error
}

// NewBatch builds a batch from one customer's requests. The derived name is
// "<customer> - N requests - <earliest submission date>", and the batch
// priority is the highest priority among members.
func NewBatch(requests []*model.Request) (*Batch, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyBatch
	}
	customer := requests[0].Customer
	earliest := requests[0].CreatedAt
	priority := requests[0].Priority

	b := &Batch{Customer: customer}
	for _, req := range requests {
		if req.Customer.ID != customer.ID {
			return nil, ErrMixedCustomers
		}
		if req.CreatedAt.Before(earliest) {
			earliest = req.CreatedAt
		}
		if req.Priority.Rank() > priority.Rank() {
			priority = req.Priority
		}
		b.Members = append(b.Members, &Member{
			Request: req,
			Session: NewSession(req),
		})
	}
	b.Priority = priority
	b.Name = batchName(customer.Name, len(requests), earliest)
	return b, nil
}

// Member returns the member for a request id, or nil.
func (b *Batch) Member(requestID string) *Member {
	for _, m := range b.Members {
		if m.Request.ID == requestID {
			return m
		}
	}
	return nil
}

// BulkApply sets the same decision on every still-undecided item of every
// member. Items that already carry a decision are left alone. The comment
// rule applies exactly as for individual decisions.
func (b *Batch) BulkApply(decision model.Decision, comment string) error {
	for _, m := range b.Members {
		for _, id := range m.Session.ItemIDs() {
			if d, _ := m.Session.Decision(id); d != "" {
				continue
			}
			if err := m.Session.SetDecision(id, decision, comment); err != nil {
				return err
			}
		}
	}
	return nil
}

// TotalAmount is the sum of each member's own aggregated total.
func (b *Batch) TotalAmount() float64 {
	var total float64
	for _, m := range b.Members {
		total += m.Session.TotalAmount()
	}
	return total
}

// ApprovedRequestCount counts members whose own submission gate passes.
func (b *Batch) ApprovedRequestCount() int {
	n := 0
	for _, m := range b.Members {
		if CanSubmit(m.Session) == nil {
			n++
		}
	}
	return n
}

func batchName(customer string, count int, earliest time.Time) string {
	return fmt.Sprintf("%s - %d requests - %s", customer, count, earliest.Format("2006-01-02"))
}
