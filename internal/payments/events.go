package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("payments: invalid webhook signature")

// EventKind enumerates the webhook events the billing engine acts on.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutSessionCompleted
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

var eventKindNames = map[EventKind]string{
	EventCheckoutSessionCompleted: "checkout.session.completed",
	EventSubscriptionUpdated:      "customer.subscription.updated",
	EventSubscriptionDeleted:      "customer.subscription.deleted",
	EventInvoicePaymentSucceeded:  "invoice.payment_succeeded",
	EventInvoicePaymentFailed:     "invoice.payment_failed",
}

var eventKindsByName = func() map[string]EventKind {
	m := make(map[string]EventKind, len(eventKindNames))
	for k, name := range eventKindNames {
		m[name] = k
	}
	return m
}()

// ParseEventKind maps a Stripe event type to its kind. Unrecognized types map to EventUnknown.
func ParseEventKind(eventType string) EventKind {
	return eventKindsByName[eventType]
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a verified webhook event.
type Event struct {
	ID      string
	Type    string // type as delivered, kept for logging unknown kinds
	Kind    EventKind
	Created time.Time
	// Object is the raw JSON of data.object.
	Object json.RawMessage
}

// VerifyEvent checks the Stripe-Signature header against payload with the
// endpoint secret and parses the event envelope. The signature comparison is
// constant-time and the timestamp must be within Stripe's default tolerance.
// Events rendered with a different API version than the SDK's are accepted.
func VerifyEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Kind:    ParseEventKind(string(ev.Type)),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

// objectRef holds the ID of a field Stripe renders either as an ID string or,
// when expanded, as an object.
type objectRef string

func (r *objectRef) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = objectRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = objectRef(obj.ID)
	return nil
}

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     objectRef         `json:"customer"`
	Subscription objectRef         `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// DecodeCheckoutSession decodes a checkout.session event object.
func DecodeCheckoutSession(raw json.RawMessage) (*CheckoutSession, error) {
	var p checkoutSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payments: decode checkout session: %w", err)
	}
	return &CheckoutSession{
		ID:             p.ID,
		CustomerID:     string(p.Customer),
		SubscriptionID: string(p.Subscription),
		Metadata:       p.Metadata,
	}, nil
}

type subscriptionPayload struct {
	ID                string            `json:"id"`
	Customer          objectRef         `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"` // pre-2025 API versions
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// DecodeSubscription decodes a customer.subscription event object. The period
// end is read from the first item and falls back to the subscription-level
// field older API versions send.
func DecodeSubscription(raw json.RawMessage) (*Subscription, error) {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payments: decode subscription: %w", err)
	}
	sub := &Subscription{
		ID:                p.ID,
		CustomerID:        string(p.Customer),
		Status:            p.Status,
		CancelAtPeriodEnd: p.CancelAtPeriodEnd,
		Metadata:          p.Metadata,
	}
	periodEnd := p.CurrentPeriodEnd
	if len(p.Items.Data) > 0 {
		sub.PriceID = p.Items.Data[0].Price.ID
		if p.Items.Data[0].CurrentPeriodEnd > 0 {
			periodEnd = p.Items.Data[0].CurrentPeriodEnd
		}
	}
	if periodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return sub, nil
}

type invoicePayload struct {
	ID                 string    `json:"id"`
	Customer           objectRef `json:"customer"`
	Currency           string    `json:"currency"`
	AmountPaid         int64     `json:"amount_paid"`
	AmountDue          int64     `json:"amount_due"`
	AttemptCount       int64     `json:"attempt_count"`
	NextPaymentAttempt *int64    `json:"next_payment_attempt"`
}

// DecodeInvoice decodes an invoice event object.
func DecodeInvoice(raw json.RawMessage) (*Invoice, error) {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payments: decode invoice: %w", err)
	}
	inv := &Invoice{
		ID:           p.ID,
		CustomerID:   string(p.Customer),
		Currency:     p.Currency,
		AmountPaid:   p.AmountPaid,
		AmountDue:    p.AmountDue,
		AttemptCount: p.AttemptCount,
	}
	if p.NextPaymentAttempt != nil && *p.NextPaymentAttempt > 0 {
		t := time.Unix(*p.NextPaymentAttempt, 0).UTC()
		inv.NextPaymentAttempt = &t
	}
	return inv, nil
}
