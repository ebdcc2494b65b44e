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

// Webhook outcomes, also used as the metric label.
const (
	OutcomeProcessed        = "processed"
	OutcomeIgnored          = "ignored"
	OutcomeNoTenant         = "no_tenant"
	OutcomeDuplicate        = "duplicate"
	OutcomeStale            = "stale"
	OutcomeFailed           = "failed"
	OutcomeInvalidSignature = "invalid_signature"
)

// WebhookResult describes how a verified event was handled.
type WebhookResult struct {
	EventID string
	Type    string
	Outcome string
}

// WebhookConfig holds the dependencies of the reconciliation engine.
type WebhookConfig struct {
	Secret        string
	Prices        PriceTable
	Provider      PaymentProvider
	Organizations db.OrganizationRepository
	BillingLogs   db.BillingLogRepository
	Invoices      db.InvoiceRepository
	// Ledger is optional. When set, events it has already seen are acknowledged without reprocessing.
	Ledger EventLedger
	Logger *zap.Logger
}

type webhookService struct {
	WebhookConfig
	now func() time.Time
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(cfg WebhookConfig) WebhookService {
	return &webhookService{WebhookConfig: cfg, now: time.Now}
}

// HandleStripeWebhook verifies the delivery, dispatches on the event kind and
// applies the matching handler. A returned error wrapping ErrWebhookSignature
// means nothing was written; one wrapping ErrWebhookProcessing means the
// provider should redeliver.
func (s *webhookService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) (*WebhookResult, error) {
	event, err := payments.VerifyEvent(payload, signature, s.Secret)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unverified", OutcomeInvalidSignature).Inc()
		s.Logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	result := &WebhookResult{EventID: event.ID, Type: event.Type}
	log := s.Logger.With(zap.String("eventId", event.ID), zap.String("type", event.Type))

	if s.Ledger != nil {
		seen, err := s.Ledger.Seen(ctx, event.ID)
		if err != nil {
			log.Warn("Event ledger lookup failed, processing anyway", zap.Error(err))
		} else if seen {
			result.Outcome = OutcomeDuplicate
			s.record(event, result.Outcome)
			log.Info("Webhook event already processed")
			return result, nil
		}
	}

	result.Outcome, err = s.dispatch(ctx, event, log)
	if err != nil {
		result.Outcome = OutcomeFailed
		s.record(event, result.Outcome)
		log.Error("Webhook handler failed", zap.Error(err))
		return result, fmt.Errorf("%w: %s", ErrWebhookProcessing, event.Type)
	}
	s.record(event, result.Outcome)

	if s.Ledger != nil && result.Outcome != OutcomeIgnored && result.Outcome != OutcomeNoTenant {
		if err := s.Ledger.MarkProcessed(ctx, event.ID); err != nil {
			log.Warn("Failed to record processed event", zap.Error(err))
		}
	}
	return result, nil
}

func (s *webhookService) record(event *payments.Event, outcome string) {
	metrics.WebhookEvents.WithLabelValues(event.Kind.String(), outcome).Inc()
}

func (s *webhookService) dispatch(ctx context.Context, event *payments.Event, log *zap.Logger) (string, error) {
	switch event.Kind {
	case payments.EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event, log)
	case payments.EventSubscriptionUpdated, payments.EventSubscriptionDeleted:
		return s.handleSubscriptionChanged(ctx, event, log)
	case payments.EventInvoicePaymentSucceeded:
		return s.handleInvoice(ctx, event, models.InvoicePaid, log)
	case payments.EventInvoicePaymentFailed:
		return s.handleInvoice(ctx, event, models.InvoicePaymentFailed, log)
	case payments.EventUnknown:
		log.Info("No handler for webhook event")
		return OutcomeIgnored, nil
	default:
		log.Warn("Unhandled webhook event kind", zap.Stringer("kind", event.Kind))
		return OutcomeIgnored, nil
	}
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, event *payments.Event, log *zap.Logger) (string, error) {
	session, err := payments.DecodeCheckoutSession(event.Object)
	if err != nil {
		return "", err
	}
	orgID := session.Metadata[payments.MetadataOrgID]
	if orgID == "" {
		log.Warn("Checkout session carries no organization", zap.String("sessionId", session.ID), zap.Error(errMissingTenant))
		return OutcomeNoTenant, nil
	}
	if session.SubscriptionID == "" {
		log.Warn("Checkout session has no subscription", zap.String("sessionId", session.ID))
		return OutcomeIgnored, nil
	}

	sub, err := s.Provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return "", err
	}
	outcome, err := s.applySubscription(ctx, orgID, sub, event)
	if err != nil {
		return "", err
	}

	if err := s.BillingLogs.MarkCompleted(ctx, session.ID, orgID, s.now().UTC()); err != nil {
		return "", err
	}
	log.Info("Checkout session completed", zap.String("orgId", orgID), zap.String("sessionId", session.ID))
	return outcome, nil
}

func (s *webhookService) handleSubscriptionChanged(ctx context.Context, event *payments.Event, log *zap.Logger) (string, error) {
	sub, err := payments.DecodeSubscription(event.Object)
	if err != nil {
		return "", err
	}
	orgID, err := s.resolveOrgID(ctx, sub.CustomerID, sub.Metadata)
	if err != nil {
		if errors.Is(err, errMissingTenant) {
			log.Warn("Subscription event carries no organization", zap.String("customerId", sub.CustomerID))
			return OutcomeNoTenant, nil
		}
		return "", err
	}
	outcome, err := s.applySubscription(ctx, orgID, sub, event)
	if err != nil {
		return "", err
	}
	log.Info("Subscription updated", zap.String("orgId", orgID), zap.String("status", sub.Status), zap.String("outcome", outcome))
	return outcome, nil
}

func (s *webhookService) handleInvoice(ctx context.Context, event *payments.Event, status string, log *zap.Logger) (string, error) {
	inv, err := payments.DecodeInvoice(event.Object)
	if err != nil {
		return "", err
	}
	orgID, err := s.resolveOrgID(ctx, inv.CustomerID, nil)
	if err != nil {
		if errors.Is(err, errMissingTenant) {
			log.Warn("Invoice event carries no organization", zap.String("customerId", inv.CustomerID))
			return OutcomeNoTenant, nil
		}
		return "", err
	}

	record := &models.BillingInvoice{
		InvoiceID: inv.ID,
		OrgID:     orgID,
		Currency:  inv.Currency,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	if status == models.InvoicePaid {
		record.AmountPaid = inv.AmountPaid
	} else {
		record.AmountDue = inv.AmountDue
		record.AttemptCount = inv.AttemptCount
		record.NextPaymentAttempt = inv.NextPaymentAttempt
	}
	if err := s.Invoices.Upsert(ctx, record); err != nil {
		return "", err
	}
	log.Info("Invoice recorded", zap.String("orgId", orgID), zap.String("invoiceId", inv.ID), zap.String("status", status))
	return OutcomeProcessed, nil
}

// resolveOrgID reads the organization from the customer's metadata, falling
// back to fallback (the object's own metadata) when the customer has none.
func (s *webhookService) resolveOrgID(ctx context.Context, customerID string, fallback map[string]string) (string, error) {
	if customerID != "" {
		customer, err := s.Provider.GetCustomer(ctx, customerID)
		if err != nil {
			return "", err
		}
		if orgID := customer.Metadata[payments.MetadataOrgID]; orgID != "" {
			return orgID, nil
		}
	}
	if orgID := fallback[payments.MetadataOrgID]; orgID != "" {
		return orgID, nil
	}
	return "", errMissingTenant
}

// applySubscription is the shared status-update routine: it overwrites the
// organization's subscription with the provider state, unless a newer event
// has already been applied.
func (s *webhookService) applySubscription(ctx context.Context, orgID string, sub *payments.Subscription, event *payments.Event) (string, error) {
	applied, err := s.Organizations.ApplySubscription(ctx, orgID, models.Subscription{
		Plan:              s.Prices.PlanFor(sub.PriceID),
		Status:            sub.Status,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		LastEventAt:       event.Created,
	})
	if err != nil {
		return "", err
	}
	if !applied {
		return OutcomeStale, nil
	}
	return OutcomeProcessed, nil
}
