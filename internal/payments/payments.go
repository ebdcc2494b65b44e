// Package payments adapts the Stripe API and Stripe webhook payloads to the
// provider-neutral shapes the billing services work with.
package payments

import "time"

// Metadata keys written on Stripe objects so webhooks can recover the tenant.
const (
	MetadataOrgID       = "orgId"
	MetadataUserID      = "userId"
	MetadataFirebaseUID = "firebaseUID"
)

// CustomerRequest describes a customer to create.
type CustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Customer is the subset of a provider customer the services read.
type Customer struct {
	ID       string
	Email    string
	Deleted  bool
	Metadata map[string]string
}

// CheckoutRequest describes a hosted subscription checkout for one price.
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	// Metadata is attached to both the session and the subscription it creates.
	Metadata map[string]string
}

// CheckoutSession is a created or completed checkout session.
type CheckoutSession struct {
	ID             string
	URL            string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
}

// Subscription is the provider subscription state the status-update routine consumes.
type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string // price of the first line item
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

// Invoice is the subset of a provider invoice recorded on payment events.
type Invoice struct {
	ID                 string
	CustomerID         string
	Currency           string
	AmountPaid         int64
	AmountDue          int64
	AttemptCount       int64
	NextPaymentAttempt *time.Time
}
