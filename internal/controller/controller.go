package controller

import (
	"errors"
	"net/http"

	"request-review-service/internal/dto"
	"request-review-service/internal/lifecycle"
	"request-review-service/internal/model"
	"request-review-service/internal/repository"
	"request-review-service/internal/review"
	"request-review-service/internal/service"
	"request-review-service/internal/tracking"

	"github.com/gin-gonic/gin"
)

type RequestController struct {
	Service  *service.ReviewService
	Tracking *tracking.Client
}

func NewRequestController(s *service.ReviewService, t *tracking.Client) *RequestController {
	return &RequestController{Service: s, Tracking: t}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   c.GetString("adminID"),
		Name: c.GetString("adminName"),
	}
}

// POST /requests/init — testing aid; production submissions arrive via Rabbit
func (ctl *RequestController) InitRequest(c *gin.Context) {
	var payload dto.SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := ctl.Service.CreateRequest(c.Request.Context(), RequestFromPayload(payload))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /requests/:id
func (ctl *RequestController) GetRequest(c *gin.Context) {
	req, err := ctl.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GET /requests/mine — the caller's own requests, identified by the auth
// context rather than a path parameter.
func (ctl *RequestController) GetMyRequests(c *gin.Context) {
	reqs, err := ctl.Service.GetByCustomerID(c.Request.Context(), c.GetString("adminID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// GET /admin/requests
func (ctl *RequestController) GetAllRequests(c *gin.Context) {
	reqs, err := ctl.Service.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// GET /admin/requests/status/:status
func (ctl *RequestController) GetRequestsByStatus(c *gin.Context) {
	status := model.Status(c.Param("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	reqs, err := ctl.Service.GetByStatus(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// GET /admin/customers/:customerId/requests
func (ctl *RequestController) GetCustomerRequests(c *gin.Context) {
	reqs, err := ctl.Service.GetByCustomerID(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// POST /admin/requests/:id/review
func (ctl *RequestController) SubmitReview(c *gin.Context) {
	var body dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ctl.Service.SubmitReview(c.Request.Context(), c.Param("id"), reviewInput(body), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedRequest": updated})
}

// GET /admin/customers/:customerId/batch
func (ctl *RequestController) PreviewBatch(c *gin.Context) {
	preview, err := ctl.Service.PreviewBatch(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// POST /admin/customers/:customerId/batch-review
func (ctl *RequestController) SubmitBatchReview(c *gin.Context) {
	var body dto.SubmitBatchReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make(map[string]service.SubmitReviewInput, len(body.Reviews))
	for id, r := range body.Reviews {
		inputs[id] = reviewInput(r)
	}

	results, err := ctl.Service.SubmitBatchReview(c.Request.Context(), c.Param("customerId"), inputs, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.BatchReviewResultDTO, 0, len(results))
	for _, r := range results {
		item := dto.BatchReviewResultDTO{RequestID: r.RequestID, Ok: r.Err == nil}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"perRequestResults": out})
}

// POST /admin/requests/:id/purchase
func (ctl *RequestController) MarkPurchased(c *gin.Context) {
	var body dto.MarkPurchasedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.PurchaseInput{
		Record: model.PurchaseRecord{
			Supplier:            body.Supplier,
			PurchaseOrderNumber: body.PurchaseOrderNumber,
			TrackingNumber:      body.TrackingNumber,
			Carrier:             body.Carrier,
			EstimatedDelivery:   body.EstimatedDelivery,
			PurchaseAmount:      body.PurchaseAmount,
			PaymentMethod:       body.PaymentMethod,
			Currency:            body.Currency,
			ShippingAddress:     body.ShippingAddress,
			Notes:               body.Notes,
		},
		Confirmations: make(map[string][]string, len(body.Confirmations)),
	}
	for _, conf := range body.Confirmations {
		input.Confirmations[conf.ItemID] = conf.ConfirmedFields
	}

	updated, err := ctl.Service.MarkPurchased(c.Request.Context(), c.Param("id"), input, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedRequest": updated})
}

// PATCH /admin/requests/:id/status
func (ctl *RequestController) UpdateStatus(c *gin.Context) {
	var body dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ctl.Service.UpdateStatus(c.Request.Context(), c.Param("id"), service.UpdateStatusInput{
		Status:           model.Status(body.Status),
		SubStatus:        model.SubStatus(body.SubStatus),
		Notes:            body.Notes,
		PaymentConfirmed: body.PaymentConfirmed,
	}, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /admin/requests/:id/cancel
func (ctl *RequestController) CancelRequest(c *gin.Context) {
	var body dto.CancelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ctl.Service.Cancel(c.Request.Context(), c.Param("id"), body.Reason, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /requests/:id/customer-decision — recorded from the customer, not admin
func (ctl *RequestController) RecordCustomerDecision(c *gin.Context) {
	var body dto.CustomerDecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ctl.Service.RecordCustomerDecision(c.Request.Context(), c.Param("id"), body.Approved, body.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /admin/requests/:id/comments
func (ctl *RequestController) AddComment(c *gin.Context) {
	var body dto.AddCommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ctl.Service.AddComment(c.Request.Context(), c.Param("id"), body.Text, body.IsInternal, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GET /admin/requests/:id/tracking
func (ctl *RequestController) GetTracking(c *gin.Context) {
	req, err := ctl.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if req.PurchaseRecord == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no purchase record on this request"})
		return
	}
	info := ctl.Tracking.Lookup(req.PurchaseRecord.Carrier, req.PurchaseRecord.TrackingNumber)
	c.JSON(http.StatusOK, info)
}

// RequestFromPayload maps an inbound customer submission onto the model. Item
// ids are assigned by the service.
func RequestFromPayload(p dto.SubmitRequestPayload) *model.Request {
	req := &model.Request{
		RequestNumber: p.RequestNumber,
		Customer: model.Customer{
			ID:    p.Customer.ID,
			Name:  p.Customer.Name,
			Email: p.Customer.Email,
		},
		Shipping: model.Shipping{
			AddressLine1: p.Shipping.AddressLine1,
			City:         p.Shipping.City,
			PostalCode:   p.Shipping.PostalCode,
			Country:      p.Shipping.Country,
			Comments:     p.Shipping.Comments,
		},
		Priority:      model.Priority(p.Priority),
		Currency:      p.Currency,
		CustomerNotes: p.CustomerNotes,
	}
	for _, it := range p.Items {
		req.Items = append(req.Items, model.Item{
			Name:        it.Name,
			SourceURL:   it.SourceURL,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Currency:    it.Currency,
			Description: it.Description,
			Notes:       it.Notes,
			Size:        it.Size,
			Color:       it.Color,
			Brand:       it.Brand,
			Category:    it.Category,
			PhotoURLs:   it.PhotoURLs,
		})
	}
	return req
}

func reviewInput(body dto.SubmitReviewRequest) service.SubmitReviewInput {
	input := service.SubmitReviewInput{
		BatchComment: body.BatchComment,
		IsInternal:   body.IsInternal,
	}
	for _, d := range body.Decisions {
		input.Decisions = append(input.Decisions, service.ItemDecisionInput{
			ItemID:   d.ItemID,
			Decision: model.Decision(d.Decision),
			Comment:  d.Comment,
		})
	}
	for _, e := range body.Edits {
		input.Edits = append(input.Edits, service.ItemEditInput{
			ItemID: e.ItemID,
			Edit: review.ItemEdit{
				Name:        e.Name,
				SourceURL:   e.SourceURL,
				Description: e.Description,
				Quantity:    e.Quantity,
				Price:       e.Price,
				Size:        e.Size,
				Color:       e.Color,
				Brand:       e.Brand,
				Notes:       e.Notes,
				Category:    e.Category,
			},
		})
	}
	return input
}

// writeError maps domain errors onto HTTP statuses: validation problems are
// 422 with the offending item/field, guard and version conflicts are 409,
// missing requests are 404.
func writeError(c *gin.Context, err error) {
	var vErr *review.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  vErr.Message,
			"itemId": vErr.ItemID,
			"field":  vErr.Field,
		})
		return
	}

	var tErr *lifecycle.TransitionError
	if errors.As(err, &tErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": tErr.Error(),
			"from":  tErr.From,
			"to":    tErr.To,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
	case errors.Is(err, repository.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRequestAlreadyExists),
		errors.Is(err, service.ErrNotReviewable),
		errors.Is(err, service.ErrNotAwaitingPurchase),
		errors.Is(err, service.ErrNotAwaitingCustomer):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, review.ErrMissingComment),
		errors.Is(err, review.ErrEmptyBatch),
		errors.Is(err, review.ErrMixedCustomers):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
