package core

import "errors"

// Errors returned by the billing services. Handlers map them to status codes
// with errors.Is; the wrapped message never carries provider error detail.
var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoPaymentCustomer    = errors.New("organization has no payment customer")
	ErrPaymentProvider      = errors.New("payment provider request failed")
	ErrWebhookSignature     = errors.New("stripe webhook signature verification failed")
	ErrWebhookProcessing    = errors.New("stripe webhook processing failed")
)

var errMissingTenant = errors.New("no organization id in event metadata")
