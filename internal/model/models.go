// models.go
package model

import "time"

// Request is a customer's buy-on-behalf purchase order. Items holds the
// current working values; OriginalItems is the immutable snapshot of what the
// customer submitted, kept so reviewer edits can always be diffed and undone.
type Request struct {
	ID            string   `bson:"_id" json:"id"`
	RequestNumber string   `bson:"request_number" json:"requestNumber"`
	Customer      Customer `bson:"customer" json:"customer"`

	Items         []Item `bson:"items" json:"items"`
	OriginalItems []Item `bson:"original_items" json:"originalItems"`

	Shipping Shipping `bson:"shipping" json:"shipping"`
	Priority Priority `bson:"priority" json:"priority"`
	Currency string   `bson:"currency" json:"currency"`

	// TotalAmountValue is the persisted aggregate; recompute with TotalAmount().
	TotalAmountValue float64 `bson:"total_amount" json:"totalAmount"`

	Status       Status       `bson:"status" json:"status"`
	SubStatus    SubStatus    `bson:"sub_status,omitempty" json:"subStatus,omitempty"`
	ReviewStatus ReviewStatus `bson:"review_status" json:"reviewStatus"`

	// Decisions is the committed per-item review outcome set, written once a
	// review is submitted. Empty until then.
	Decisions []ItemDecision `bson:"decisions,omitempty" json:"decisions,omitempty"`

	PurchaseRecord *PurchaseRecord `bson:"purchase_record,omitempty" json:"purchaseRecord,omitempty"`

	AdminNotes     string          `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	CustomerNotes  string          `bson:"customer_notes,omitempty" json:"customerNotes,omitempty"`
	ReviewComments []ReviewComment `bson:"review_comments,omitempty" json:"reviewComments,omitempty"`

	CancelledAt        *time.Time `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string     `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	DeliveredAt        *time.Time `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`

	ModifiedByAdmin       bool                 `bson:"modified_by_admin" json:"modifiedByAdmin"`
	AdminModificationNote string               `bson:"admin_modification_note,omitempty" json:"adminModificationNote,omitempty"`
	AdminModificationDate *time.Time           `bson:"admin_modification_date,omitempty" json:"adminModificationDate,omitempty"`
	LastModifiedByAdmin   string               `bson:"last_modified_by_admin,omitempty" json:"lastModifiedByAdmin,omitempty"`
	ModificationHistory   []ModificationRecord `bson:"modification_history,omitempty" json:"modificationHistory,omitempty"`

	StatusHistory []StatusRecord `bson:"status_history" json:"statusHistory"`

	// Version supports optimistic concurrency; every committed write bumps it.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type Customer struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

type Shipping struct {
	AddressLine1 string `bson:"address_line1" json:"addressLine1"`
	City         string `bson:"city" json:"city"`
	PostalCode   string `bson:"postal_code" json:"postalCode"`
	Country      string `bson:"country" json:"country"`
	Comments     string `bson:"comments,omitempty" json:"comments,omitempty"`
}

// Item is one product line within a Request. Items belong to exactly one
// Request and are identified by ID within it, never globally.
type Item struct {
	ID          string   `bson:"id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	SourceURL   string   `bson:"source_url" json:"sourceUrl"`
	Quantity    int      `bson:"quantity" json:"quantity"`
	Price       float64  `bson:"price" json:"price"`
	Currency    string   `bson:"currency" json:"currency"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
	Size        string   `bson:"size,omitempty" json:"size,omitempty"`
	Color       string   `bson:"color,omitempty" json:"color,omitempty"`
	Brand       string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Category    string   `bson:"category,omitempty" json:"category,omitempty"`
	PhotoURLs   []string `bson:"photo_urls,omitempty" json:"photoUrls,omitempty"`
}

// ItemDecision is one committed per-item review verdict.
type ItemDecision struct {
	ItemID   string   `bson:"item_id" json:"itemId"`
	Decision Decision `bson:"decision" json:"decision"`
	Comment  string   `bson:"comment,omitempty" json:"comment,omitempty"`
}

// PurchaseRecord is attached by the "mark as purchased" action.
type PurchaseRecord struct {
	Supplier            string     `bson:"supplier" json:"supplier"`
	PurchaseOrderNumber string     `bson:"purchase_order_number" json:"purchaseOrderNumber"`
	TrackingNumber      string     `bson:"tracking_number" json:"trackingNumber"`
	Carrier             string     `bson:"carrier,omitempty" json:"carrier,omitempty"`
	EstimatedDelivery   *time.Time `bson:"estimated_delivery,omitempty" json:"estimatedDelivery,omitempty"`
	PurchaseAmount      float64    `bson:"purchase_amount,omitempty" json:"purchaseAmount,omitempty"`
	PaymentMethod       string     `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	Currency            string     `bson:"currency,omitempty" json:"currency,omitempty"`
	ShippingAddress     string     `bson:"shipping_address,omitempty" json:"shippingAddress,omitempty"`
	Notes               string     `bson:"notes,omitempty" json:"notes,omitempty"`
	PurchasedAt         time.Time  `bson:"purchased_at" json:"purchasedAt"`
	PurchasedBy         string     `bson:"purchased_by" json:"purchasedBy"`
}

type ReviewComment struct {
	ID         string    `bson:"id" json:"id"`
	Text       string    `bson:"text" json:"text"`
	AdminName  string    `bson:"admin_name" json:"adminName"`
	IsInternal bool      `bson:"is_internal" json:"isInternal"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// ModificationRecord captures one admin edit event: the previous and new
// values of every item that changed. Appended on commit, never mutated.
type ModificationRecord struct {
	Seq            int       `bson:"seq" json:"seq"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
	AdminName      string    `bson:"admin_name" json:"adminName"`
	PreviousValues []Item    `bson:"previous_values" json:"previousValues"`
	NewValues      []Item    `bson:"new_values" json:"newValues"`
	Summary        string    `bson:"summary" json:"summary"`
}

type StatusRecord struct {
	Status    Status    `bson:"status" json:"status"`
	SubStatus SubStatus `bson:"sub_status,omitempty" json:"subStatus,omitempty"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	ActorID   string    `bson:"actor_id" json:"actorId"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Current   bool      `bson:"current" json:"current"`
}

// ItemCount reports the number of line items on the request.
func (r *Request) ItemCount() int {
	return len(r.Items)
}

// TotalAmount sums price x quantity over the items still in the order. Once a
// review has been committed, items whose decision is rejected are excluded;
// approved and needs_modification items both still count.
func (r *Request) TotalAmount() float64 {
	excluded := map[string]bool{}
	for _, d := range r.Decisions {
		if d.Decision == DecisionRejected {
			excluded[d.ItemID] = true
		}
	}
	var total float64
	for _, it := range r.Items {
		if excluded[it.ID] {
			continue
		}
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// EffectiveStatus overlays changes_requested whenever the review outcome is
// needs_modification, regardless of the underlying main status.
func (r *Request) EffectiveStatus() Status {
	if r.ReviewStatus == ReviewNeedsModification {
		return StatusChangesRequested
	}
	return r.Status
}

// ItemByID looks an item up in the working copy.
func (r *Request) ItemByID(id string) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// IsTerminal reports whether the request can no longer change state.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusDelivered || r.Status == StatusCancelled
}
