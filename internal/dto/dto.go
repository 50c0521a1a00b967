// dto.go
package dto

import "time"

// SubmitRequestPayload initializes a request from a customer submission. It
// arrives via the Rabbit consumer (primary) or via the API for testing.
type SubmitRequestPayload struct {
	RequestNumber string      `json:"requestNumber"`
	Customer      CustomerDTO `json:"customer" binding:"required"`
	Items         []ItemDTO   `json:"items" binding:"required,min=1"`
	Shipping      ShippingDTO `json:"shipping"`
	Priority      string      `json:"priority"`
	Currency      string      `json:"currency"`
	CustomerNotes string      `json:"customerNotes"`
}

type CustomerDTO struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ItemDTO struct {
	Name        string   `json:"name" binding:"required"`
	SourceURL   string   `json:"sourceUrl"`
	Quantity    int      `json:"quantity" binding:"required,min=1"`
	Price       float64  `json:"price" binding:"min=0"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Notes       string   `json:"notes"`
	Size        string   `json:"size"`
	Color       string   `json:"color"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	PhotoURLs   []string `json:"photoUrls"`
}

type ShippingDTO struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Comments     string `json:"comments"`
}

// ItemDecisionDTO is one per-item verdict in a review submission.
type ItemDecisionDTO struct {
	ItemID   string `json:"itemId" binding:"required"`
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

// ItemEditDTO carries reviewer edits to one item's fields. Nil means leave
// the field alone.
type ItemEditDTO struct {
	ItemID      string   `json:"itemId" binding:"required"`
	Name        *string  `json:"name"`
	SourceURL   *string  `json:"sourceUrl"`
	Description *string  `json:"description"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
	Size        *string  `json:"size"`
	Color       *string  `json:"color"`
	Brand       *string  `json:"brand"`
	Notes       *string  `json:"notes"`
	Category    *string  `json:"category"`
}

type SubmitReviewRequest struct {
	Decisions    []ItemDecisionDTO `json:"decisions" binding:"required"`
	Edits        []ItemEditDTO     `json:"edits"`
	BatchComment string            `json:"batchComment"`
	IsInternal   bool              `json:"isInternal"`
}

// SubmitBatchReviewRequest maps request id to that member's review input.
type SubmitBatchReviewRequest struct {
	Reviews map[string]SubmitReviewRequest `json:"reviews" binding:"required"`
}

type BatchReviewResultDTO struct {
	RequestID string `json:"requestId"`
	Ok        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// ItemConfirmationDTO lists the specification fields the reviewer has
// explicitly verified on one item before purchase.
type ItemConfirmationDTO struct {
	ItemID          string   `json:"itemId" binding:"required"`
	ConfirmedFields []string `json:"confirmedFields" binding:"required"`
}

type MarkPurchasedRequest struct {
	Supplier            string                `json:"supplier" binding:"required"`
	PurchaseOrderNumber string                `json:"purchaseOrderNumber" binding:"required"`
	TrackingNumber      string                `json:"trackingNumber" binding:"required"`
	Carrier             string                `json:"carrier"`
	EstimatedDelivery   *time.Time            `json:"estimatedDelivery"`
	PurchaseAmount      float64               `json:"purchaseAmount"`
	PaymentMethod       string                `json:"paymentMethod"`
	Currency            string                `json:"currency"`
	ShippingAddress     string                `json:"shippingAddress"`
	Notes               string                `json:"notes"`
	Confirmations       []ItemConfirmationDTO `json:"confirmations"`
}

type UpdateStatusRequest struct {
	Status           string `json:"status"`
	SubStatus        string `json:"subStatus"`
	Notes            string `json:"notes"`
	PaymentConfirmed bool   `json:"paymentConfirmed"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type AddCommentRequest struct {
	Text       string `json:"text" binding:"required"`
	IsInternal bool   `json:"isInternal"`
}

type CustomerDecisionRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}
