package models

import "time"

// Billing log statuses.
const (
	BillingLogCreated   = "created"
	BillingLogCompleted = "completed"
)

// Invoice statuses.
const (
	InvoicePaid          = "paid"
	InvoicePaymentFailed = "payment_failed"
)

// BillingLog is the audit record of an issued checkout session.
// The document ID is the provider session ID.
type BillingLog struct {
	SessionID string    `json:"sessionId" firestore:"sessionId"`
	OrgID     string    `json:"orgId" firestore:"orgId"`
	UserID    string    `json:"userId,omitempty" firestore:"userId,omitempty"`
	PriceID   string    `json:"priceId,omitempty" firestore:"priceId,omitempty"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// BillingInvoice is one record per provider invoice, keyed by invoice ID.
// Amounts are in the currency's minor unit.
type BillingInvoice struct {
	InvoiceID          string     `json:"invoiceId" firestore:"invoiceId"`
	OrgID              string     `json:"orgId" firestore:"orgId"`
	AmountPaid         int64      `json:"amountPaid,omitempty" firestore:"amountPaid,omitempty"`
	AmountDue          int64      `json:"amountDue,omitempty" firestore:"amountDue,omitempty"`
	Currency           string     `json:"currency" firestore:"currency"`
	Status             string     `json:"status" firestore:"status"`
	AttemptCount       int64      `json:"attemptCount,omitempty" firestore:"attemptCount,omitempty"`
	NextPaymentAttempt *time.Time `json:"nextPaymentAttempt,omitempty" firestore:"nextPaymentAttempt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt" firestore:"createdAt"`
}
