package service

import (
	"context"
	"errors"
	"testing"

	"request-review-service/internal/lifecycle"
	"request-review-service/internal/model"
	"request-review-service/internal/repository"
	"request-review-service/internal/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo is an in-memory RequestRepository with the same versioning
// semantics as the Mongo implementation.
type fakeRepo struct {
	store     map[string]*model.Request
	findErr   error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{store: map[string]*model.Request{}}
}

func (f *fakeRepo) Save(_ context.Context, r *model.Request) error {
	cp := *r
	f.store[r.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*model.Request, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.store[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) FindAll(_ context.Context) ([]*model.Request, error) {
	var out []*model.Request
	for _, r := range f.store {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) FindByStatus(_ context.Context, status model.Status) ([]*model.Request, error) {
	var out []*model.Request
	for _, r := range f.store {
		if r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindByCustomerID(_ context.Context, customerID string) ([]*model.Request, error) {
	var out []*model.Request
	for _, r := range f.store {
		if r.Customer.ID == customerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, r *model.Request, expectedVersion int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.store[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrConcurrentModification
	}
	r.Version = expectedVersion + 1
	cp := *r
	f.store[r.ID] = &cp
	return nil
}

type fakePublisher struct {
	events []Event
}

func (f *fakePublisher) Publish(_ context.Context, e Event) error {
	f.events = append(f.events, e)
	return nil
}

func newTestService() (*ReviewService, *fakeRepo, *fakePublisher) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	return NewReviewService(repo, pub, zap.NewNop()), repo, pub
}

var reviewer = Actor{ID: "admin-1", Name: "Alex Carter"}

func seedRequest(t *testing.T, repo *fakeRepo, id string, customer model.Customer, items []model.Item) *model.Request {
	t.Helper()
	req := &model.Request{
		ID:            id,
		RequestNumber: "REQ-" + id,
		Customer:      customer,
		Items:         items,
		OriginalItems: append([]model.Item(nil), items...),
		Priority:      model.PriorityMedium,
		Status:        model.StatusPending,
		ReviewStatus:  model.ReviewPending,
		Version:       1,
		StatusHistory: []model.StatusRecord{
			{Status: model.StatusPending, ActorID: customer.ID, Current: true},
		},
	}
	require.NoError(t, repo.Save(context.Background(), req))
	return req
}

var testCustomer = model.Customer{ID: "cust-1", Name: "Jane Doe", Email: "jane@example.com"}

func defaultItems() []model.Item {
	return []model.Item{
		{ID: "item-1", Name: "Sneakers", Quantity: 2, Price: 10},
		{ID: "item-2", Name: "Cap", Quantity: 1, Price: 5},
		{ID: "item-3", Name: "Jacket", Quantity: 1, Price: 20, Color: "red"},
	}
}

func approveAll() SubmitReviewInput {
	return SubmitReviewInput{
		Decisions: []ItemDecisionInput{
			{ItemID: "item-1", Decision: model.DecisionApproved},
			{ItemID: "item-2", Decision: model.DecisionApproved},
			{ItemID: "item-3", Decision: model.DecisionApproved},
		},
	}
}

func TestCreateRequest(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.CreateRequest(context.Background(), &model.Request{
		Customer: testCustomer,
		Items: []model.Item{
			{Name: "Sneakers", Quantity: 2, Price: 10},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.RequestNumber)
	assert.NotEmpty(t, created.Items[0].ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.ReviewPending, created.ReviewStatus)
	assert.Equal(t, 20.0, created.TotalAmountValue)
	assert.Equal(t, int64(1), created.Version)
	// baseline snapshot taken at creation
	require.Len(t, created.OriginalItems, 1)
	assert.Equal(t, created.Items[0], created.OriginalItems[0])

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
}

func TestCreateRequest_Duplicate(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	_, err := svc.CreateRequest(context.Background(), &model.Request{
		ID:       "req-1",
		Customer: testCustomer,
		Items:    defaultItems(),
	})
	assert.ErrorIs(t, err, ErrRequestAlreadyExists)
}

func TestCreateRequest_InvalidQuantityRejected(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.CreateRequest(context.Background(), &model.Request{
		ID:       "req-1",
		Customer: testCustomer,
		Items: []model.Item{
			{ID: "item-1", Name: "Sneakers", Quantity: 0, Price: 10},
		},
	})
	var verr *review.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, review.CodeInvalidQuantity, verr.Code)
	assert.Equal(t, "item-1", verr.ItemID)

	_, err = repo.FindByID(context.Background(), "req-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateRequest_NegativePriceRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateRequest(context.Background(), &model.Request{
		Customer: testCustomer,
		Items: []model.Item{
			{ID: "item-1", Name: "Sneakers", Quantity: 1, Price: -5},
		},
	})
	var verr *review.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, review.CodeInvalidPrice, verr.Code)
}

func TestCreateRequest_LookupFailureSurfaces(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.findErr = errors.New("connection reset")

	_, err := svc.CreateRequest(context.Background(), &model.Request{
		ID:       "req-1",
		Customer: testCustomer,
		Items:    defaultItems(),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRequestAlreadyExists)
	assert.EqualError(t, err, "connection reset")
}

func TestSubmitReview_Approved(t *testing.T) {
	svc, repo, pub := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	updated, err := svc.SubmitReview(context.Background(), "req-1", approveAll(), reviewer)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, model.ReviewApproved, updated.ReviewStatus)
	assert.Equal(t, 45.0, updated.TotalAmountValue)
	require.Len(t, updated.Decisions, 3)
	assert.Equal(t, int64(2), updated.Version)

	// history advanced and only the new entry is current
	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	assert.Equal(t, model.StatusApproved, last.Status)
	assert.True(t, last.Current)
	assert.False(t, updated.StatusHistory[0].Current)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "review.submitted", pub.events[0].Type)
	assert.Equal(t, "req-1", pub.events[0].RequestID)
}

func TestSubmitReview_MixedOutcomeTotals(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	updated, err := svc.SubmitReview(context.Background(), "req-1", SubmitReviewInput{
		Decisions: []ItemDecisionInput{
			{ItemID: "item-1", Decision: model.DecisionApproved},
			{ItemID: "item-2", Decision: model.DecisionRejected, Comment: "out of stock"},
			{ItemID: "item-3", Decision: model.DecisionNeedsModification, Comment: "pick another color"},
		},
	}, reviewer)
	require.NoError(t, err)

	assert.Equal(t, 40.0, updated.TotalAmountValue)
	assert.Equal(t, model.ReviewNeedsModification, updated.ReviewStatus)
	// needs_modification blocks approval: main status stays pending, the
	// effective status shows the changes_requested overlay
	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Equal(t, model.StatusChangesRequested, updated.EffectiveStatus())
}

func TestSubmitReview_AllRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	updated, err := svc.SubmitReview(context.Background(), "req-1", SubmitReviewInput{
		Decisions: []ItemDecisionInput{
			{ItemID: "item-1", Decision: model.DecisionRejected, Comment: "n/a"},
			{ItemID: "item-2", Decision: model.DecisionRejected, Comment: "n/a"},
			{ItemID: "item-3", Decision: model.DecisionRejected, Comment: "n/a"},
		},
	}, reviewer)
	require.NoError(t, err)

	assert.Equal(t, model.ReviewRejected, updated.ReviewStatus)
	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Equal(t, 0.0, updated.TotalAmountValue)
}

func TestSubmitReview_IncompleteAppliesNothing(t *testing.T) {
	svc, repo, pub := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	_, err := svc.SubmitReview(context.Background(), "req-1", SubmitReviewInput{
		Decisions: []ItemDecisionInput{
			{ItemID: "item-1", Decision: model.DecisionApproved},
		},
	}, reviewer)
	require.Error(t, err)
	assert.ErrorIs(t, err, review.ErrIncompleteReview)

	stored, _ := repo.FindByID(context.Background(), "req-1")
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Empty(t, stored.Decisions)
	assert.Equal(t, int64(1), stored.Version)
	assert.Empty(t, pub.events)
}

func TestSubmitReview_MissingComment(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	_, err := svc.SubmitReview(context.Background(), "req-1", SubmitReviewInput{
		Decisions: []ItemDecisionInput{
			{ItemID: "item-1", Decision: model.DecisionApproved},
			{ItemID: "item-2", Decision: model.DecisionApproved},
			{ItemID: "item-3", Decision: model.DecisionRejected},
		},
	}, reviewer)
	require.Error(t, err)
	assert.ErrorIs(t, err, review.ErrMissingComment)

	var vErr *review.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "item-3", vErr.ItemID)
}

func TestSubmitReview_EditsAreAudited(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	price := 12.0
	qty := 3
	input := approveAll()
	input.Edits = []ItemEditInput{
		{ItemID: "item-1", Edit: review.ItemEdit{Price: &price, Quantity: &qty}},
	}

	updated, err := svc.SubmitReview(context.Background(), "req-1", input, reviewer)
	require.NoError(t, err)

	// exactly one modification record, not one per field
	require.Len(t, updated.ModificationHistory, 1)
	rec := updated.ModificationHistory[0]
	assert.Equal(t, 1, rec.Seq)
	assert.Equal(t, 10.0, rec.PreviousValues[0].Price)
	assert.Equal(t, 12.0, rec.NewValues[0].Price)

	assert.True(t, updated.ModifiedByAdmin)
	assert.Equal(t, "Alex Carter", updated.LastModifiedByAdmin)
	assert.NotNil(t, updated.AdminModificationDate)
	assert.Contains(t, updated.AdminModificationNote, "Sneakers")

	// the original submission stays reconstructible
	assert.Equal(t, 10.0, updated.OriginalItems[0].Price)
	assert.Equal(t, 12.0, updated.Items[0].Price)
	// total uses the edited working values: 12x3 + 5 + 20
	assert.Equal(t, 61.0, updated.TotalAmountValue)
}

func TestSubmitReview_BatchComment(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	input := approveAll()
	input.BatchComment = "all good, fast-tracked"
	input.IsInternal = true

	updated, err := svc.SubmitReview(context.Background(), "req-1", input, reviewer)
	require.NoError(t, err)
	require.Len(t, updated.ReviewComments, 1)
	assert.Equal(t, "all good, fast-tracked", updated.ReviewComments[0].Text)
	assert.True(t, updated.ReviewComments[0].IsInternal)
	assert.Equal(t, "Alex Carter", updated.ReviewComments[0].AdminName)
}

func TestSubmitReview_NotPending(t *testing.T) {
	svc, repo, _ := newTestService()
	req := seedRequest(t, repo, "req-1", testCustomer, defaultItems())
	req.Status = model.StatusShipped
	require.NoError(t, repo.Save(context.Background(), req))

	_, err := svc.SubmitReview(context.Background(), "req-1", approveAll(), reviewer)
	assert.ErrorIs(t, err, ErrNotReviewable)
}

func TestSubmitReview_ConcurrentModification(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())
	repo.updateErr = repository.ErrConcurrentModification

	_, err := svc.SubmitReview(context.Background(), "req-1", approveAll(), reviewer)
	assert.ErrorIs(t, err, repository.ErrConcurrentModification)
}

func TestSubmitBatchReview_IndependentCommits(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, []model.Item{
		{ID: "r1-a", Name: "Sneakers", Quantity: 2, Price: 10},
	})
	seedRequest(t, repo, "req-2", testCustomer, []model.Item{
		{ID: "r2-a", Name: "Cap", Quantity: 1, Price: 5},
	})
	seedRequest(t, repo, "req-3", testCustomer, []model.Item{
		{ID: "r3-a", Name: "Jacket", Quantity: 1, Price: 20},
	})

	results, err := svc.SubmitBatchReview(context.Background(), "cust-1", map[string]SubmitReviewInput{
		"req-1": {Decisions: []ItemDecisionInput{{ItemID: "r1-a", Decision: model.DecisionApproved}}},
		"req-2": {Decisions: []ItemDecisionInput{{ItemID: "r2-a", Decision: model.DecisionRejected, Comment: "unavailable"}}},
		"req-3": {Decisions: []ItemDecisionInput{{ItemID: "r3-a", Decision: model.DecisionNeedsModification, Comment: "confirm size"}}},
	}, reviewer)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err, "member %s", r.RequestID)
	}

	r1, _ := repo.FindByID(context.Background(), "req-1")
	r2, _ := repo.FindByID(context.Background(), "req-2")
	r3, _ := repo.FindByID(context.Background(), "req-3")
	assert.Equal(t, model.StatusApproved, r1.Status)
	assert.Equal(t, model.ReviewRejected, r2.ReviewStatus)
	assert.Equal(t, model.ReviewNeedsModification, r3.ReviewStatus)
	// rejecting req-2 changed nothing about req-1's or req-3's items
	assert.Equal(t, 20.0, r1.TotalAmountValue)
	assert.Equal(t, 20.0, r3.TotalAmountValue)
}

func TestPreviewBatch(t *testing.T) {
	svc, repo, _ := newTestService()
	r1 := seedRequest(t, repo, "req-1", testCustomer, []model.Item{
		{ID: "r1-a", Name: "Sneakers", Quantity: 2, Price: 10},
	})
	r1.Priority = model.PriorityHigh
	require.NoError(t, repo.Save(context.Background(), r1))
	seedRequest(t, repo, "req-2", testCustomer, []model.Item{
		{ID: "r2-a", Name: "Cap", Quantity: 1, Price: 5},
	})
	// a shipped request stays out of the batch
	r3 := seedRequest(t, repo, "req-3", testCustomer, defaultItems())
	r3.Status = model.StatusShipped
	require.NoError(t, repo.Save(context.Background(), r3))

	preview, err := svc.PreviewBatch(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Contains(t, preview.Name, "Jane Doe")
	assert.Contains(t, preview.Name, "2 requests")
	assert.Equal(t, model.PriorityHigh, preview.Priority)
	assert.ElementsMatch(t, []string{"req-1", "req-2"}, preview.RequestIDs)
	assert.Equal(t, 25.0, preview.TotalAmount)
}

func TestSubmitBatchReview_PartialFailure(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, []model.Item{
		{ID: "r1-a", Name: "Sneakers", Quantity: 1, Price: 10},
	})
	seedRequest(t, repo, "req-2", testCustomer, []model.Item{
		{ID: "r2-a", Name: "Cap", Quantity: 1, Price: 5},
		{ID: "r2-b", Name: "Scarf", Quantity: 1, Price: 8},
	})

	results, err := svc.SubmitBatchReview(context.Background(), "cust-1", map[string]SubmitReviewInput{
		"req-1": {Decisions: []ItemDecisionInput{{ItemID: "r1-a", Decision: model.DecisionApproved}}},
		// incomplete: r2-b has no decision
		"req-2": {Decisions: []ItemDecisionInput{{ItemID: "r2-a", Decision: model.DecisionApproved}}},
	}, reviewer)
	require.NoError(t, err)

	byID := map[string]BatchReviewResult{}
	for _, r := range results {
		byID[r.RequestID] = r
	}
	assert.NoError(t, byID["req-1"].Err)
	assert.ErrorIs(t, byID["req-2"].Err, review.ErrIncompleteReview)

	// the failing member rolled nothing back for the good one
	r1, _ := repo.FindByID(context.Background(), "req-1")
	assert.Equal(t, model.StatusApproved, r1.Status)
	r2, _ := repo.FindByID(context.Background(), "req-2")
	assert.Equal(t, model.StatusPending, r2.Status)
	assert.Empty(t, r2.Decisions)
}

func TestSubmitBatchReview_ReportsEverySubmittedID(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, []model.Item{
		{ID: "r1-a", Name: "Sneakers", Quantity: 1, Price: 10},
	})
	shipped := seedRequest(t, repo, "req-2", testCustomer, []model.Item{
		{ID: "r2-a", Name: "Cap", Quantity: 1, Price: 5},
	})
	shipped.Status = model.StatusShipped
	require.NoError(t, repo.Save(context.Background(), shipped))

	results, err := svc.SubmitBatchReview(context.Background(), "cust-1", map[string]SubmitReviewInput{
		"req-1":       {Decisions: []ItemDecisionInput{{ItemID: "r1-a", Decision: model.DecisionApproved}}},
		"req-2":       {Decisions: []ItemDecisionInput{{ItemID: "r2-a", Decision: model.DecisionApproved}}},
		"req-missing": {Decisions: []ItemDecisionInput{{ItemID: "x", Decision: model.DecisionApproved}}},
	}, reviewer)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[string]BatchReviewResult{}
	for _, r := range results {
		byID[r.RequestID] = r
	}
	assert.NoError(t, byID["req-1"].Err)
	assert.ErrorIs(t, byID["req-2"].Err, ErrNotReviewable)
	assert.ErrorIs(t, byID["req-missing"].Err, repository.ErrNotFound)

	r1, _ := repo.FindByID(context.Background(), "req-1")
	assert.Equal(t, model.StatusApproved, r1.Status)
}

func seedInProgress(t *testing.T, repo *fakeRepo, sub model.SubStatus) *model.Request {
	t.Helper()
	req := seedRequest(t, repo, "req-1", testCustomer, defaultItems())
	req.Status = model.StatusInProgress
	req.SubStatus = sub
	req.ReviewStatus = model.ReviewApproved
	require.NoError(t, repo.Save(context.Background(), req))
	return req
}

func allConfirmations() map[string][]string {
	return map[string][]string{
		"item-1": {"quantity", "size", "color"},
		"item-2": {"quantity", "size", "color"},
		"item-3": {"quantity", "size", "color"},
	}
}

func validPurchase() PurchaseInput {
	return PurchaseInput{
		Record: model.PurchaseRecord{
			Supplier:            "Acme Wholesale",
			PurchaseOrderNumber: "PO-1001",
			TrackingNumber:      "TRK-555",
			Carrier:             "dhl",
		},
		Confirmations: allConfirmations(),
	}
}

func TestMarkPurchased(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubPaymentCompleted)

	updated, err := svc.MarkPurchased(context.Background(), "req-1", validPurchase(), reviewer)
	require.NoError(t, err)

	assert.Equal(t, model.SubPurchased, updated.SubStatus)
	require.NotNil(t, updated.PurchaseRecord)
	assert.Equal(t, "Acme Wholesale", updated.PurchaseRecord.Supplier)
	assert.Equal(t, "Alex Carter", updated.PurchaseRecord.PurchasedBy)
}

func TestMarkPurchased_UnconfirmedSpecification(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubPaymentCompleted)

	input := validPurchase()
	delete(input.Confirmations, "item-2")

	_, err := svc.MarkPurchased(context.Background(), "req-1", input, reviewer)
	require.Error(t, err)

	var vErr *review.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, review.CodeUnconfirmedSpecification, vErr.Code)
	assert.Equal(t, "item-2", vErr.ItemID)

	stored, _ := repo.FindByID(context.Background(), "req-1")
	assert.Equal(t, model.SubPaymentCompleted, stored.SubStatus)
	assert.Nil(t, stored.PurchaseRecord)
}

func TestMarkPurchased_MissingRequiredField(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubPaymentCompleted)

	input := validPurchase()
	input.Record.Supplier = ""

	_, err := svc.MarkPurchased(context.Background(), "req-1", input, reviewer)
	var vErr *review.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, review.CodeMissingField, vErr.Code)
	assert.Equal(t, "supplier", vErr.Field)
}

func TestMarkPurchased_WrongState(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	_, err := svc.MarkPurchased(context.Background(), "req-1", validPurchase(), reviewer)
	assert.ErrorIs(t, err, ErrNotAwaitingPurchase)
}

func TestUpdateStatus_PaymentGuard(t *testing.T) {
	svc, repo, _ := newTestService()
	req := seedRequest(t, repo, "req-1", testCustomer, defaultItems())
	req.Status = model.StatusApproved
	req.ReviewStatus = model.ReviewApproved
	require.NoError(t, repo.Save(context.Background(), req))

	_, err := svc.UpdateStatus(context.Background(), "req-1", UpdateStatusInput{
		Status: model.StatusInProgress,
	}, reviewer)
	assert.ErrorIs(t, err, lifecycle.ErrPaymentNotConfirmed)

	updated, err := svc.UpdateStatus(context.Background(), "req-1", UpdateStatusInput{
		Status:           model.StatusInProgress,
		PaymentConfirmed: true,
	}, reviewer)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, model.SubPaymentCompleted, updated.SubStatus)
}

func TestUpdateStatus_SubStatusChain(t *testing.T) {
	svc, repo, _ := newTestService()
	req := seedInProgress(t, repo, model.SubPurchased)
	req.PurchaseRecord = &model.PurchaseRecord{Supplier: "Acme"}
	require.NoError(t, repo.Save(context.Background(), req))

	// skipping a step is rejected and nothing changes
	_, err := svc.UpdateStatus(context.Background(), "req-1", UpdateStatusInput{
		SubStatus: model.SubAdminControl,
	}, reviewer)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	stored, _ := repo.FindByID(context.Background(), "req-1")
	assert.Equal(t, model.SubPurchased, stored.SubStatus)

	updated, err := svc.UpdateStatus(context.Background(), "req-1", UpdateStatusInput{
		SubStatus: model.SubToBeShippedToBox,
	}, reviewer)
	require.NoError(t, err)
	assert.Equal(t, model.SubToBeShippedToBox, updated.SubStatus)
}

func TestUpdateStatus_PurchasedOnlyViaMarkPurchased(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubPaymentCompleted)

	_, err := svc.UpdateStatus(context.Background(), "req-1", UpdateStatusInput{
		SubStatus: model.SubPurchased,
	}, reviewer)
	require.Error(t, err)
}

func TestRecordCustomerDecision(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubCustomerReview)

	updated, err := svc.RecordCustomerDecision(context.Background(), "req-1", true, "looks great")
	require.NoError(t, err)
	assert.Equal(t, model.SubCustomerApproved, updated.SubStatus)
	assert.Equal(t, "looks great", updated.CustomerNotes)
}

func TestRecordCustomerDecision_WrongState(t *testing.T) {
	svc, repo, _ := newTestService()
	seedInProgress(t, repo, model.SubAdminControl)

	_, err := svc.RecordCustomerDecision(context.Background(), "req-1", false, "")
	assert.ErrorIs(t, err, ErrNotAwaitingCustomer)
}

func TestCancel(t *testing.T) {
	svc, repo, pub := newTestService()
	seedInProgress(t, repo, model.SubArrivedToBox)

	_, err := svc.Cancel(context.Background(), "req-1", "", reviewer)
	assert.ErrorIs(t, err, lifecycle.ErrCancellationReasonRequired)

	updated, err := svc.Cancel(context.Background(), "req-1", "customer withdrew", reviewer)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)
	assert.Equal(t, "customer withdrew", updated.CancellationReason)
	require.NotNil(t, updated.CancelledAt)

	// terminal: nothing moves after cancellation
	_, err = svc.Cancel(context.Background(), "req-1", "again", reviewer)
	assert.ErrorIs(t, err, lifecycle.ErrTerminalState)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "request.cancelled", pub.events[0].Type)
}

func TestAddComment(t *testing.T) {
	svc, repo, pub := newTestService()
	seedRequest(t, repo, "req-1", testCustomer, defaultItems())

	_, err := svc.AddComment(context.Background(), "req-1", "   ", false, reviewer)
	assert.ErrorIs(t, err, review.ErrMissingComment)

	updated, err := svc.AddComment(context.Background(), "req-1", "waiting on supplier reply", true, reviewer)
	require.NoError(t, err)
	require.Len(t, updated.ReviewComments, 1)
	assert.True(t, updated.ReviewComments[0].IsInternal)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "comment.added", pub.events[0].Type)
}
