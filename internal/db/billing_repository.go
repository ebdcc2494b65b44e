package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/assessly-billing/internal/models"
)

const (
	billingLogsCollection     = "billingLogs"
	billingInvoicesCollection = "billingInvoices"
)

type firestoreBillingLogRepository struct {
	client *firestore.Client
}

// NewFirestoreBillingLogRepository creates a BillingLogRepository backed by Firestore.
func NewFirestoreBillingLogRepository(client *firestore.Client) BillingLogRepository {
	return &firestoreBillingLogRepository{client: client}
}

// Create stores a new log under its session ID.
func (r *firestoreBillingLogRepository) Create(ctx context.Context, entry *models.BillingLog) error {
	if entry.SessionID == "" {
		return errors.New("session ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(billingLogsCollection).Doc(entry.SessionID).Create(ctx, entry)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("billing log for session '%s': %w", entry.SessionID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create billing log for session '%s': %w", entry.SessionID, err)
	}
	return nil
}

// MarkCompleted merges the completed status into the session's log, creating it
// if the create-time write never landed.
func (r *firestoreBillingLogRepository) MarkCompleted(ctx context.Context, sessionID, orgID string, at time.Time) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty for MarkCompleted operation")
	}
	data := map[string]interface{}{
		"sessionId": sessionID,
		"status":    models.BillingLogCompleted,
		"updatedAt": at,
	}
	if orgID != "" {
		data["orgId"] = orgID
	}
	_, err := r.client.Collection(billingLogsCollection).Doc(sessionID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to complete billing log for session '%s': %w", sessionID, err)
	}
	return nil
}

type firestoreInvoiceRepository struct {
	client *firestore.Client
}

// NewFirestoreInvoiceRepository creates an InvoiceRepository backed by Firestore.
func NewFirestoreInvoiceRepository(client *firestore.Client) InvoiceRepository {
	return &firestoreInvoiceRepository{client: client}
}

// Upsert overwrites the invoice document, so redelivery replaces rather than duplicates.
func (r *firestoreInvoiceRepository) Upsert(ctx context.Context, invoice *models.BillingInvoice) error {
	if invoice.InvoiceID == "" {
		return errors.New("invoice ID cannot be empty for Upsert operation")
	}
	_, err := r.client.Collection(billingInvoicesCollection).Doc(invoice.InvoiceID).Set(ctx, invoice)
	if err != nil {
		return fmt.Errorf("failed to upsert invoice '%s': %w", invoice.InvoiceID, err)
	}
	return nil
}
