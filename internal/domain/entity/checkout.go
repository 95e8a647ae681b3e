package entity

import "time"

// RemoteLineItem is a cart line translated to the commerce backend's variant id.
type RemoteLineItem struct {
	VariantID string `json:"variantId" bson:"variant_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// CheckoutSession is what the commerce backend returns for a created checkout.
type CheckoutSession struct {
	ID     string
	WebURL string
}

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusCompleted CheckoutStatus = "completed"
)

// CheckoutRecord is the audit trail of one handoff to the commerce backend.
type CheckoutRecord struct {
	SessionKey  string           `bson:"session_key"`
	CheckoutID  string           `bson:"checkout_id"`
	WebURL      string           `bson:"web_url"`
	LineItems   []RemoteLineItem `bson:"line_items"`
	Total       string           `bson:"total"`
	Status      CheckoutStatus   `bson:"status"`
	CreatedAt   time.Time        `bson:"created_at"`
	CompletedAt *time.Time       `bson:"completed_at,omitempty"`
}
