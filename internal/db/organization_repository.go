package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/assessly-billing/internal/models"
)

const organizationsCollection = "organizations"

// firestoreOrganizationRepository implements OrganizationRepository using Firestore.
type firestoreOrganizationRepository struct {
	client *firestore.Client
}

// NewFirestoreOrganizationRepository creates a new instance of firestoreOrganizationRepository.
func NewFirestoreOrganizationRepository(client *firestore.Client) OrganizationRepository {
	return &firestoreOrganizationRepository{client: client}
}

func (r *firestoreOrganizationRepository) NewID() string {
	return r.client.Collection(organizationsCollection).NewDoc().ID
}

// GetByID retrieves an organization document by its ID.
func (r *firestoreOrganizationRepository) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(organizationsCollection).Doc(orgID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("organization with ID '%s' not found: %w", orgID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get organization with ID '%s': %w", orgID, err)
	}

	var org models.Organization
	if err := docSnap.DataTo(&org); err != nil {
		return nil, fmt.Errorf("failed to decode organization data for ID '%s': %w", orgID, err)
	}
	org.ID = docSnap.Ref.ID
	return &org, nil
}

// CreateWithOwner creates the organization and the owner's profile in one batch.
// Both writes are Creates: if either document exists the whole batch fails with
// ErrAlreadyExists, so a profile is provisioned at most once and stripeCustomerId
// is only ever assigned here.
func (r *firestoreOrganizationRepository) CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.User) error {
	if org.ID == "" || owner.ID == "" {
		return errors.New("organization and owner IDs are required for CreateWithOwner")
	}
	batch := r.client.Batch()
	batch.Create(r.client.Collection(organizationsCollection).Doc(org.ID), org)
	batch.Create(r.client.Collection(usersCollection).Doc(owner.ID), owner)
	if _, err := batch.Commit(ctx); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("organization '%s' or owner '%s': %w", org.ID, owner.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create organization '%s' for owner '%s': %w", org.ID, owner.ID, err)
	}
	return nil
}

// ApplySubscription replaces the whole subscription field inside a transaction.
func (r *firestoreOrganizationRepository) ApplySubscription(ctx context.Context, orgID string, sub models.Subscription) (bool, error) {
	if orgID == "" {
		return false, errors.New("orgID cannot be empty for ApplySubscription operation")
	}
	ref := r.client.Collection(organizationsCollection).Doc(orgID)

	var applied bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false // the function may be retried
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("organization with ID '%s' not found: %w", orgID, ErrNotFound)
			}
			return err
		}
		var current models.Organization
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("failed to decode organization data for ID '%s': %w", orgID, err)
		}
		if isStale(current.Subscription, sub) {
			return nil
		}
		applied = true
		return tx.Update(ref, []firestore.Update{
			{Path: "subscription", Value: sub},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply subscription to organization '%s': %w", orgID, err)
	}
	return applied, nil
}

// isStale reports whether next was produced by an event older than the one behind current.
func isStale(current, next models.Subscription) bool {
	if next.LastEventAt.IsZero() || current.LastEventAt.IsZero() {
		return false
	}
	return next.LastEventAt.Before(current.LastEventAt)
}

// ListRenewalsDue queries active subscriptions ending at or before dueBefore.
// The query needs a composite index on (subscription.status, subscription.currentPeriodEnd).
func (r *firestoreOrganizationRepository) ListRenewalsDue(ctx context.Context, dueBefore time.Time) ([]*models.Organization, error) {
	query := r.client.Collection(organizationsCollection).
		Where("subscription.status", "==", models.SubscriptionStatusActive).
		Where("subscription.currentPeriodEnd", "<=", dueBefore)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orgs []*models.Organization
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate organizations due for renewal: %w", err)
		}
		var org models.Organization
		if err := doc.DataTo(&org); err != nil {
			return nil, fmt.Errorf("failed to decode organization data for ID '%s': %w", doc.Ref.ID, err)
		}
		org.ID = doc.Ref.ID
		orgs = append(orgs, &org)
	}
	return orgs, nil
}
