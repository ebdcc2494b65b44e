package core

import (
	"context"

	"github.com/example/assessly-billing/internal/models"
	"github.com/example/assessly-billing/internal/payments"
)

// AccessValidator confirms a principal belongs to an organization.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, orgID, userID string) error
}

// BillingService mints provider-hosted checkout and portal sessions.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	CreatePortalLink(ctx context.Context, orgID, returnURL, callerID string) (string, error)
}

// WebhookService verifies and reconciles Stripe webhook deliveries.
type WebhookService interface {
	HandleStripeWebhook(ctx context.Context, signature string, payload []byte) (*WebhookResult, error)
}

// RenewalService scans for subscriptions about to renew and emits reminders.
type RenewalService interface {
	RunRenewalScan(ctx context.Context) (*RenewalReport, error)
}

// UserService defines the interface for user-related operations.
type UserService interface {
	// InitializeProfile returns the caller's profile, provisioning a new
	// organization, payment customer and profile on first use. The boolean
	// reports whether anything was created.
	InitializeProfile(ctx context.Context, nu NewUser) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// PaymentProvider is the subset of the payment provider API the services call.
// *payments.StripeClient satisfies it.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, req payments.CustomerRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetCustomer(ctx context.Context, customerID string) (*payments.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*payments.Subscription, error)
}

// EventLedger remembers webhook events that were fully processed.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Publisher hands a message to an external queue.
type Publisher interface {
	Publish(queueName string, body []byte) error
}

// ClaimsSetter assigns Firebase custom claims. *auth.Client satisfies it.
type ClaimsSetter interface {
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}
