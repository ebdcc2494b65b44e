package payments

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeClient talks to the Stripe API with its own key and backends.
// It never touches the package-level stripe.Key.
type StripeClient struct {
	api *client.API
}

type stripeOptions struct {
	backendURL string
}

// Option configures a StripeClient.
type Option func(*stripeOptions)

// WithBackendURL points the client at a different API host, such as stripe-mock
// or an httptest server.
func WithBackendURL(url string) Option {
	return func(o *stripeOptions) { o.backendURL = url }
}

// NewStripeClient creates a StripeClient authenticated with secretKey.
func NewStripeClient(secretKey string, opts ...Option) *StripeClient {
	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var backends *stripe.Backends
	if o.backendURL != "" {
		cfg := &stripe.BackendConfig{
			URL:               stripe.String(o.backendURL),
			MaxNetworkRetries: stripe.Int64(0),
		}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
		}
	}
	return &StripeClient{api: client.New(secretKey, backends)}
}

// CreateCustomer creates a Stripe customer and returns its ID.
func (s *StripeClient) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	c, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("payments: create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession creates a subscription-mode hosted checkout session.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:           stripe.String(req.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL, CustomerID: req.CustomerID, Metadata: sess.Metadata}, nil
}

// CreatePortalSession creates a billing portal session and returns its URL.
func (s *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	if returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}
	sess, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("payments: create stripe portal session: %w", err)
	}
	return sess.URL, nil
}

// GetCustomer retrieves a customer by ID.
func (s *StripeClient) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, fmt.Errorf("payments: retrieve stripe customer %s: %w", customerID, err)
	}
	return &Customer{ID: c.ID, Email: c.Email, Deleted: c.Deleted, Metadata: c.Metadata}, nil
}

// GetSubscription retrieves a subscription by ID.
func (s *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("payments: retrieve stripe subscription %s: %w", subscriptionID, err)
	}
	return subscriptionFromStripe(sub), nil
}

func subscriptionFromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	return out
}
