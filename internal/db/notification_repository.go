package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/assessly-billing/internal/models"
)

const notificationsCollection = "notifications"

type firestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a NotificationRepository backed by Firestore.
func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	return &firestoreNotificationRepository{client: client}
}

// CreateOnce creates n under its ID. An existing document with that ID is left
// untouched and reported as (false, nil).
func (r *firestoreNotificationRepository) CreateOnce(ctx context.Context, n *models.Notification) (bool, error) {
	if n.ID == "" {
		return false, errors.New("notification ID cannot be empty for CreateOnce operation")
	}
	_, err := r.client.Collection(notificationsCollection).Doc(n.ID).Create(ctx, n)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to create notification '%s': %w", n.ID, err)
	}
	return true, nil
}
