package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"request-review-service/internal/lifecycle"
	"request-review-service/internal/model"
	"request-review-service/internal/repository"
	"request-review-service/internal/review"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestRepository is implemented by the Mongo repository.
type RequestRepository interface {
	Save(ctx context.Context, r *model.Request) error
	FindByID(ctx context.Context, id string) (*model.Request, error)
	FindAll(ctx context.Context) ([]*model.Request, error)
	FindByStatus(ctx context.Context, status model.Status) ([]*model.Request, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*model.Request, error)
	Update(ctx context.Context, r *model.Request, expectedVersion int64) error
}

// EventPublisher delivers review/audit events to the notification sink.
// Publish failures are logged, never allowed to fail a committed review.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type Event struct {
	Type       string         `json:"type"`
	RequestID  string         `json:"requestId"`
	CustomerID string         `json:"customerId"`
	Actor      string         `json:"actor"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Business errors exported for the controller.
var (
	ErrRequestAlreadyExists = errors.New("request was already submitted")
	ErrNotReviewable        = errors.New("request is not awaiting review")
	ErrNotAwaitingPurchase  = errors.New("request is not awaiting purchase")
	ErrNotAwaitingCustomer  = errors.New("request is not awaiting the customer's decision")
)

// Actor identifies the staff member performing an operation, as resolved by
// the auth middleware.
type Actor struct {
	ID   string
	Name string
}

type ItemDecisionInput struct {
	ItemID   string
	Decision model.Decision
	Comment  string
}

type ItemEditInput struct {
	ItemID string
	Edit   review.ItemEdit
}

type SubmitReviewInput struct {
	Decisions    []ItemDecisionInput
	Edits        []ItemEditInput
	BatchComment string
	IsInternal   bool
}

// BatchReviewResult mirrors review.BatchResult for the API: one entry per
// member request, independent of the others.
type BatchReviewResult struct {
	RequestID string
	Updated   *model.Request
	Err       error
}

type PurchaseInput struct {
	Record        model.PurchaseRecord
	Confirmations map[string][]string
}

type UpdateStatusInput struct {
	Status           model.Status
	SubStatus        model.SubStatus
	Notes            string
	PaymentConfirmed bool
}

type ReviewService struct {
	repo      RequestRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewReviewService(repo RequestRepository, publisher EventPublisher, logger *zap.Logger) *ReviewService {
	return &ReviewService{repo: repo, publisher: publisher, logger: logger}
}

// CreateRequest registers a new customer submission in pending state. The
// items get stable ids here, and the original submission is snapshotted as
// the immutable baseline for later audit diffing.
func (s *ReviewService) CreateRequest(ctx context.Context, req *model.Request) (*model.Request, error) {
	if req.ID != "" {
		existing, err := s.repo.FindByID(ctx, req.ID)
		if err == nil && existing != nil {
			return nil, ErrRequestAlreadyExists
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	} else {
		req.ID = uuid.NewString()
	}
	if req.RequestNumber == "" {
		req.RequestNumber = fmt.Sprintf("REQ-%s", strings.ToUpper(req.ID[:8]))
	}
	if !req.Priority.Valid() {
		req.Priority = model.PriorityMedium
	}

	now := time.Now().UTC()
	for i := range req.Items {
		if req.Items[i].ID == "" {
			req.Items[i].ID = uuid.NewString()
		}
		if req.Items[i].Quantity < 1 {
			return nil, &review.ValidationError{
				Code:    review.CodeInvalidQuantity,
				ItemID:  req.Items[i].ID,
				Field:   "quantity",
				Message: fmt.Sprintf("item %q quantity must be at least 1, got %d", req.Items[i].Name, req.Items[i].Quantity),
			}
		}
		if req.Items[i].Price < 0 {
			return nil, &review.ValidationError{
				Code:    review.CodeInvalidPrice,
				ItemID:  req.Items[i].ID,
				Field:   "price",
				Message: fmt.Sprintf("item %q price must not be negative, got %.2f", req.Items[i].Name, req.Items[i].Price),
			}
		}
	}
	req.OriginalItems = append([]model.Item(nil), req.Items...)
	req.Status = model.StatusPending
	req.SubStatus = ""
	req.ReviewStatus = model.ReviewPending
	req.TotalAmountValue = req.TotalAmount()
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now
	req.StatusHistory = []model.StatusRecord{
		{
			Status:    model.StatusPending,
			Reason:    "request submitted",
			ActorID:   req.Customer.ID,
			Timestamp: now,
			Current:   true,
		},
	}

	return req, s.repo.Save(ctx, req)
}

// Getters
func (s *ReviewService) GetByID(ctx context.Context, id string) (*model.Request, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ReviewService) GetAll(ctx context.Context) ([]*model.Request, error) {
	return s.repo.FindAll(ctx)
}

func (s *ReviewService) GetByStatus(ctx context.Context, status model.Status) ([]*model.Request, error) {
	return s.repo.FindByStatus(ctx, status)
}

func (s *ReviewService) GetByCustomerID(ctx context.Context, customerID string) ([]*model.Request, error) {
	return s.repo.FindByCustomerID(ctx, customerID)
}

// SubmitReview runs one complete review session against a pending request and
// commits the outcome atomically: per-item decisions, edited item fields,
// aggregated totals, review status, audit record and comment in one versioned
// write. Validation failures apply nothing.
func (s *ReviewService) SubmitReview(ctx context.Context, requestID string, input SubmitReviewInput, actor Actor) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, ErrNotReviewable
	}

	session := review.NewSession(req)
	if err := applyReviewInput(session, input); err != nil {
		return nil, err
	}
	return s.commitReview(ctx, req, session, input, actor)
}

// BatchPreview summarizes one customer's pending requests as a single review
// batch: derived name, highest member priority, running totals.
type BatchPreview struct {
	Name        string           `json:"name"`
	Customer    model.Customer   `json:"customer"`
	Priority    model.Priority   `json:"priority"`
	RequestIDs  []string         `json:"requestIds"`
	TotalAmount float64          `json:"totalAmount"`
	Requests    []*model.Request `json:"requests"`
}

// PreviewBatch assembles the batch package for a customer's pending requests
// without committing anything.
func (s *ReviewService) PreviewBatch(ctx context.Context, customerID string) (*BatchPreview, error) {
	all, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var pending []*model.Request
	for _, req := range all {
		if req.Status == model.StatusPending {
			pending = append(pending, req)
		}
	}
	batch, err := review.NewBatch(pending)
	if err != nil {
		return nil, err
	}

	preview := &BatchPreview{
		Name:        batch.Name,
		Customer:    batch.Customer,
		Priority:    batch.Priority,
		TotalAmount: batch.TotalAmount(),
	}
	for _, m := range batch.Members {
		preview.RequestIDs = append(preview.RequestIDs, m.Request.ID)
		preview.Requests = append(preview.Requests, m.Request)
	}
	return preview, nil
}

// SubmitBatchReview reviews several of one customer's pending requests in a
// single pass. Members commit independently: one member's failure is reported
// in its result and never rolls back the others. Every submitted request id
// gets a result; ids the customer does not own come back with ErrNotFound and
// already-reviewed requests with ErrNotReviewable.
func (s *ReviewService) SubmitBatchReview(ctx context.Context, customerID string, inputs map[string]SubmitReviewInput, actor Actor) ([]BatchReviewResult, error) {
	all, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Request, len(all))
	for _, req := range all {
		byID[req.ID] = req
	}

	var members []*model.Request
	rejected := make(map[string]error)
	for id := range inputs {
		req, ok := byID[id]
		switch {
		case !ok:
			rejected[id] = repository.ErrNotFound
		case req.Status != model.StatusPending:
			rejected[id] = ErrNotReviewable
		default:
			members = append(members, req)
		}
	}

	results := make([]BatchReviewResult, 0, len(inputs))
	if len(members) > 0 {
		batch, err := review.NewBatch(members)
		if err != nil {
			return nil, err
		}
		for _, m := range batch.Members {
			input := inputs[m.Request.ID]
			res := BatchReviewResult{RequestID: m.Request.ID}
			if err := applyReviewInput(m.Session, input); err != nil {
				res.Err = err
			} else {
				res.Updated, res.Err = s.commitReview(ctx, m.Request, m.Session, input, actor)
			}
			results = append(results, res)
		}
	}
	for id, err := range rejected {
		results = append(results, BatchReviewResult{RequestID: id, Err: err})
	}
	return results, nil
}

func applyReviewInput(session *review.Session, input SubmitReviewInput) error {
	for _, e := range input.Edits {
		if err := session.EditItem(e.ItemID, e.Edit); err != nil {
			return err
		}
	}
	for _, d := range input.Decisions {
		if err := session.SetDecision(d.ItemID, d.Decision, d.Comment); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReviewService) commitReview(ctx context.Context, req *model.Request, session *review.Session, input SubmitReviewInput, actor Actor) (*model.Request, error) {
	payload, err := session.Payload()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *req
	updated.Items = payload.Items
	updated.Decisions = payload.Decisions
	updated.TotalAmountValue = payload.TotalAmount
	updated.ReviewStatus = payload.Summary.Overall()

	if record := review.DiffAgainstBaseline(session, actor.Name, now); record != nil {
		record.Seq = len(updated.ModificationHistory) + 1
		updated.ModificationHistory = append(updated.ModificationHistory, *record)
		updated.ModifiedByAdmin = true
		updated.AdminModificationNote = record.Summary
		updated.AdminModificationDate = &now
		updated.LastModifiedByAdmin = actor.Name
	}

	if text := strings.TrimSpace(input.BatchComment); text != "" {
		updated.ReviewComments = append(updated.ReviewComments, model.ReviewComment{
			ID:         uuid.NewString(),
			Text:       text,
			AdminName:  actor.Name,
			IsInternal: input.IsInternal,
			Timestamp:  now,
		})
	}

	if updated.ReviewStatus == model.ReviewApproved {
		change, err := lifecycle.Advance(req, model.StatusApproved, "", lifecycle.Guards{
			ReviewComplete: true,
			ReviewApproved: true,
		}, now)
		if err != nil {
			return nil, err
		}
		applyChange(&updated, change, actor.ID, "review approved", now)
	}

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       "review.submitted",
		RequestID:  updated.ID,
		CustomerID: updated.Customer.ID,
		Actor:      actor.Name,
		Data: map[string]any{
			"reviewStatus":  updated.ReviewStatus,
			"totalAmount":   updated.TotalAmountValue,
			"approvedCount": payload.ApprovedCount,
		},
		Timestamp: now,
	})
	return &updated, nil
}

// MarkPurchased attaches the purchase record and advances the subStatus to
// purchased. Fails with SpecificationNotVerified until every item's required
// confirmations are checked, and with a validation error when a mandatory
// purchase field is blank.
func (s *ReviewService) MarkPurchased(ctx context.Context, requestID string, input PurchaseInput, actor Actor) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusInProgress || req.SubStatus != model.SubPaymentCompleted {
		return nil, ErrNotAwaitingPurchase
	}

	session := review.NewSession(req)
	for itemID, fields := range input.Confirmations {
		for _, f := range fields {
			if err := session.ConfirmSpecification(itemID, f); err != nil {
				return nil, err
			}
		}
	}
	if err := review.CanMarkPurchased(session, input.Record); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	change, err := lifecycle.Advance(req, "", model.SubPurchased, lifecycle.Guards{
		PurchaseAttached:      true,
		SpecificationVerified: true,
	}, now)
	if err != nil {
		return nil, err
	}

	updated := *req
	record := input.Record
	record.PurchasedAt = now
	record.PurchasedBy = actor.Name
	updated.PurchaseRecord = &record
	applyChange(&updated, change, actor.ID, "marked as purchased", now)

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       "request.purchased",
		RequestID:  updated.ID,
		CustomerID: updated.Customer.ID,
		Actor:      actor.Name,
		Data: map[string]any{
			"supplier":       record.Supplier,
			"trackingNumber": record.TrackingNumber,
		},
		Timestamp: now,
	})
	return &updated, nil
}

// UpdateStatus moves the request along the main status or subStatus chain,
// honoring the transition tables and guards.
func (s *ReviewService) UpdateStatus(ctx context.Context, requestID string, input UpdateStatusInput, actor Actor) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	guards := lifecycle.Guards{
		ReviewComplete:   req.ReviewStatus == model.ReviewApproved,
		ReviewApproved:   req.ReviewStatus == model.ReviewApproved,
		PaymentConfirmed: input.PaymentConfirmed,
		PurchaseAttached: req.PurchaseRecord != nil,
		// SpecificationVerified stays false here: the purchased step must go
		// through MarkPurchased, which runs the confirmation gate.
	}

	now := time.Now().UTC()
	change, err := lifecycle.Advance(req, input.Status, input.SubStatus, guards, now)
	if err != nil {
		return nil, err
	}

	updated := *req
	if input.Notes != "" {
		updated.AdminNotes = input.Notes
	}
	applyChange(&updated, change, actor.ID, input.Notes, now)

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RecordCustomerDecision records the customer's approve/reject outcome of the
// customer_review step. This is the only path allowed to set those
// subStatuses.
func (s *ReviewService) RecordCustomerDecision(ctx context.Context, requestID string, approved bool, notes string) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusInProgress || req.SubStatus != model.SubCustomerReview {
		return nil, ErrNotAwaitingCustomer
	}

	sub := model.SubCustomerRejected
	if approved {
		sub = model.SubCustomerApproved
	}
	now := time.Now().UTC()
	change, err := lifecycle.Advance(req, "", sub, lifecycle.Guards{CustomerAction: true}, now)
	if err != nil {
		return nil, err
	}

	updated := *req
	if notes != "" {
		updated.CustomerNotes = notes
	}
	applyChange(&updated, change, req.Customer.ID, notes, now)

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Cancel moves any non-terminal request to cancelled. A reason is mandatory.
func (s *ReviewService) Cancel(ctx context.Context, requestID, reason string, actor Actor) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	change, err := lifecycle.Cancel(req, reason, now)
	if err != nil {
		return nil, err
	}

	updated := *req
	updated.CancellationReason = reason
	applyChange(&updated, change, actor.ID, reason, now)

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       "request.cancelled",
		RequestID:  updated.ID,
		CustomerID: updated.Customer.ID,
		Actor:      actor.Name,
		Data:       map[string]any{"reason": reason},
		Timestamp:  now,
	})
	return &updated, nil
}

// AddComment appends a review comment and forwards it to the notification
// sink. Internal comments are hidden from the customer by the caller.
func (s *ReviewService) AddComment(ctx context.Context, requestID, text string, isInternal bool, actor Actor) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, review.ErrMissingComment
	}

	now := time.Now().UTC()
	updated := *req
	updated.ReviewComments = append(updated.ReviewComments, model.ReviewComment{
		ID:         uuid.NewString(),
		Text:       text,
		AdminName:  actor.Name,
		IsInternal: isInternal,
		Timestamp:  now,
	})

	if err := s.repo.Update(ctx, &updated, req.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       "comment.added",
		RequestID:  updated.ID,
		CustomerID: updated.Customer.ID,
		Actor:      actor.Name,
		Data:       map[string]any{"isInternal": isInternal},
		Timestamp:  now,
	})
	return &updated, nil
}

func applyChange(req *model.Request, ch *lifecycle.Change, actorID, reason string, now time.Time) {
	req.Status = ch.Status
	req.SubStatus = ch.SubStatus
	if ch.DeliveredAt != nil {
		req.DeliveredAt = ch.DeliveredAt
	}
	if ch.CancelledAt != nil {
		req.CancelledAt = ch.CancelledAt
	}
	// copy before unmarking so a failed commit never dirties the caller's copy
	history := make([]model.StatusRecord, len(req.StatusHistory))
	copy(history, req.StatusHistory)
	for i := range history {
		history[i].Current = false
	}
	req.StatusHistory = append(history, model.StatusRecord{
		Status:    ch.Status,
		SubStatus: ch.SubStatus,
		Reason:    reason,
		ActorID:   actorID,
		Timestamp: now,
		Current:   true,
	})
}

func (s *ReviewService) publish(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("type", event.Type),
			zap.String("requestId", event.RequestID),
			zap.Error(err))
	}
}
