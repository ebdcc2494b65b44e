package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/db"
	"github.com/example/assessly-billing/internal/metrics"
	"github.com/example/assessly-billing/internal/models"
)

// DefaultRenewalWindow is how far ahead the scan looks for period ends.
const DefaultRenewalWindow = 7 * 24 * time.Hour

// RenewalReport summarizes one scan.
type RenewalReport struct {
	Scanned int
	Created int
	Skipped int
	Failed  int
}

// RenewalConfig holds the dependencies of the renewal notifier.
type RenewalConfig struct {
	Organizations db.OrganizationRepository
	Notifications db.NotificationRepository
	Window        time.Duration
	// Publisher and Queue are optional. When set, every new reminder is also
	// published for the external email notifier.
	Publisher Publisher
	Queue     string
	Logger    *zap.Logger
}

// RenewalMessage is the queue payload of a reminder.
type RenewalMessage struct {
	NotificationID    string    `json:"notificationId"`
	OrgID             string    `json:"orgId"`
	OrgName           string    `json:"orgName,omitempty"`
	Plan              string    `json:"plan"`
	CurrentPeriodEnd  time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd"`
	Message           string    `json:"message"`
}

type renewalService struct {
	RenewalConfig
	now func() time.Time
}

// NewRenewalService creates a RenewalService.
func NewRenewalService(cfg RenewalConfig) RenewalService {
	if cfg.Window <= 0 {
		cfg.Window = DefaultRenewalWindow
	}
	return &renewalService{RenewalConfig: cfg, now: time.Now}
}

// RunRenewalScan inserts one renewal reminder per organization and billing
// period for active subscriptions ending within the window. Failures on one
// organization do not stop the scan; they are combined into the returned error.
func (s *renewalService) RunRenewalScan(ctx context.Context) (*RenewalReport, error) {
	now := s.now().UTC()
	orgs, err := s.Organizations.ListRenewalsDue(ctx, now.Add(s.Window))
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations due for renewal: %w", err)
	}

	report := &RenewalReport{Scanned: len(orgs)}
	var errs error
	for _, org := range orgs {
		created, err := s.remind(ctx, org, now)
		switch {
		case err != nil:
			report.Failed++
			metrics.RenewalReminders.WithLabelValues("failed").Inc()
			errs = multierr.Append(errs, fmt.Errorf("organization '%s': %w", org.ID, err))
		case created:
			report.Created++
			metrics.RenewalReminders.WithLabelValues("created").Inc()
		default:
			report.Skipped++
			metrics.RenewalReminders.WithLabelValues("skipped").Inc()
		}
	}

	s.Logger.Info("Renewal scan finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, errs
}

func (s *renewalService) remind(ctx context.Context, org *models.Organization, now time.Time) (bool, error) {
	periodEnd := org.Subscription.CurrentPeriodEnd.UTC()
	n := &models.Notification{
		ID:        RenewalNotificationID(org.ID, periodEnd),
		OrgID:     org.ID,
		Type:      models.NotificationRenewalReminder,
		Message:   renewalText(org.Subscription),
		CreatedAt: now,
		Read:      false,
	}
	created, err := s.Notifications.CreateOnce(ctx, n)
	if err != nil || !created {
		return false, err
	}

	if s.Publisher != nil && s.Queue != "" {
		body, err := json.Marshal(RenewalMessage{
			NotificationID:    n.ID,
			OrgID:             org.ID,
			OrgName:           org.Name,
			Plan:              string(org.Subscription.Plan),
			CurrentPeriodEnd:  periodEnd,
			CancelAtPeriodEnd: org.Subscription.CancelAtPeriodEnd,
			Message:           n.Message,
		})
		if err != nil {
			return true, err
		}
		// The notification is stored; a publish failure only loses the email.
		if err := s.Publisher.Publish(s.Queue, body); err != nil {
			s.Logger.Warn("Failed to publish renewal reminder",
				zap.String("orgId", org.ID),
				zap.String("queue", s.Queue),
				zap.Error(err),
			)
		}
	}
	return true, nil
}

// RenewalNotificationID is the document ID of the reminder for one billing period.
func RenewalNotificationID(orgID string, periodEnd time.Time) string {
	return fmt.Sprintf("renewal_%s_%s", orgID, periodEnd.UTC().Format("20060102"))
}

func renewalText(sub models.Subscription) string {
	date := sub.CurrentPeriodEnd.UTC().Format("January 2, 2006")
	if sub.CancelAtPeriodEnd {
		return fmt.Sprintf("Your %s subscription ends on %s.", sub.Plan, date)
	}
	return fmt.Sprintf("Your %s subscription renews on %s.", sub.Plan, date)
}
