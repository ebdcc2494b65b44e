package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/db"
	"github.com/example/assessly-billing/internal/metrics"
	"github.com/example/assessly-billing/internal/models"
	"github.com/example/assessly-billing/internal/payments"
)

// CheckoutRequest is the input of CreateCheckoutSession.
type CheckoutRequest struct {
	OrgID      string
	PriceID    string
	SuccessURL string
	CancelURL  string
	CallerID   string
}

// CheckoutResult is the created session.
type CheckoutResult struct {
	SessionID string
	URL       string
}

// billingService implements the BillingService interface.
type billingService struct {
	access           AccessValidator
	orgRepo          db.OrganizationRepository
	billingLogs      db.BillingLogRepository
	provider         PaymentProvider
	defaultReturnURL string
	logger           *zap.Logger
	now              func() time.Time
}

// NewBillingService creates a BillingService. defaultReturnURL is used for
// portal sessions requested without a return URL.
func NewBillingService(
	access AccessValidator,
	orgRepo db.OrganizationRepository,
	billingLogs db.BillingLogRepository,
	provider PaymentProvider,
	defaultReturnURL string,
	logger *zap.Logger,
) BillingService {
	return &billingService{
		access:           access,
		orgRepo:          orgRepo,
		billingLogs:      billingLogs,
		provider:         provider,
		defaultReturnURL: defaultReturnURL,
		logger:           logger,
		now:              time.Now,
	}
}

// CreateCheckoutSession validates the caller, creates a hosted subscription
// checkout for the organization's customer and records a BillingLog in the
// created state before handing back the URL.
func (s *billingService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.CallerID == "" {
		return nil, ErrUnauthenticated
	}
	if req.OrgID == "" || req.PriceID == "" || req.SuccessURL == "" || req.CancelURL == "" {
		return nil, fmt.Errorf("%w: orgId, priceId, successUrl and cancelUrl are required", ErrInvalidArgument)
	}

	if err := s.access.ValidateAccess(ctx, req.OrgID, req.CallerID); err != nil {
		metrics.CheckoutSessions.WithLabelValues("denied").Inc()
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrOrganizationNotFound, req.OrgID)
		}
		return nil, fmt.Errorf("failed to load organization '%s': %w", req.OrgID, err)
	}
	if org.StripeCustomerID == "" {
		metrics.CheckoutSessions.WithLabelValues("precondition_failed").Inc()
		return nil, fmt.Errorf("%w: organization '%s' is not fully provisioned", ErrNoPaymentCustomer, req.OrgID)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		CustomerID: org.StripeCustomerID,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata: map[string]string{
			payments.MetadataOrgID:  req.OrgID,
			payments.MetadataUserID: req.CallerID,
		},
	})
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues("provider_error").Inc()
		s.logger.Error("Stripe checkout session creation failed",
			zap.String("orgId", req.OrgID),
			zap.String("priceId", req.PriceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: could not create checkout session", ErrPaymentProvider)
	}

	now := s.now().UTC()
	entry := &models.BillingLog{
		SessionID: sess.ID,
		OrgID:     req.OrgID,
		UserID:    req.CallerID,
		PriceID:   req.PriceID,
		Status:    models.BillingLogCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.billingLogs.Create(ctx, entry); err != nil {
		metrics.CheckoutSessions.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to record billing log for session '%s': %w", sess.ID, err)
	}

	metrics.CheckoutSessions.WithLabelValues("created").Inc()
	s.logger.Info("Checkout session created",
		zap.String("orgId", req.OrgID),
		zap.String("sessionId", sess.ID),
		zap.String("priceId", req.PriceID),
	)
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalLink returns a hosted billing-management URL for the organization.
func (s *billingService) CreatePortalLink(ctx context.Context, orgID, returnURL, callerID string) (string, error) {
	if callerID == "" {
		return "", ErrUnauthenticated
	}
	if err := s.access.ValidateAccess(ctx, orgID, callerID); err != nil {
		metrics.PortalSessions.WithLabelValues("denied").Inc()
		return "", err
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("failed to load organization '%s': %w", orgID, err)
	}
	if org == nil || org.StripeCustomerID == "" {
		metrics.PortalSessions.WithLabelValues("precondition_failed").Inc()
		return "", fmt.Errorf("%w: no subscription found for organization '%s'", ErrNoPaymentCustomer, orgID)
	}

	if returnURL == "" {
		returnURL = s.defaultReturnURL
	}
	url, err := s.provider.CreatePortalSession(ctx, org.StripeCustomerID, returnURL)
	if err != nil {
		metrics.PortalSessions.WithLabelValues("provider_error").Inc()
		s.logger.Error("Stripe portal link creation failed",
			zap.String("orgId", orgID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: could not create billing portal session", ErrPaymentProvider)
	}

	metrics.PortalSessions.WithLabelValues("created").Inc()
	return url, nil
}
