package db

import (
	"context"
	"errors"
	"time"

	"github.com/example/assessly-billing/internal/models"
)

// Errors the repositories translate Firestore status codes into.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// OrganizationRepository defines storage operations on tenant records.
type OrganizationRepository interface {
	// NewID reserves a fresh organization document ID.
	NewID() string
	GetByID(ctx context.Context, orgID string) (*models.Organization, error)
	// CreateWithOwner writes a new organization and its owner's profile atomically.
	// It fails with ErrAlreadyExists if either document already exists.
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.User) error
	// ApplySubscription overwrites the embedded subscription unless the stored
	// state came from a strictly newer provider event. It reports whether the
	// write happened.
	ApplySubscription(ctx context.Context, orgID string, sub models.Subscription) (bool, error)
	// ListRenewalsDue returns active organizations whose period ends at or before dueBefore.
	ListRenewalsDue(ctx context.Context, dueBefore time.Time) ([]*models.Organization, error)
}

// UserRepository defines the interface for user profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// BillingLogRepository stores checkout session audit records.
type BillingLogRepository interface {
	Create(ctx context.Context, entry *models.BillingLog) error
	// MarkCompleted upserts the log for sessionID with status completed.
	MarkCompleted(ctx context.Context, sessionID, orgID string, at time.Time) error
}

// InvoiceRepository stores invoice outcomes keyed by provider invoice ID.
type InvoiceRepository interface {
	Upsert(ctx context.Context, invoice *models.BillingInvoice) error
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	// CreateOnce writes n under n.ID and reports false if that ID already exists.
	CreateOnce(ctx context.Context, n *models.Notification) (bool, error)
}
