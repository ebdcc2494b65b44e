package models

import "time"

// NotificationRenewalReminder is the type of the reminder the renewal scan emits.
const NotificationRenewalReminder = "renewal_reminder"

// Notification is an in-app notification addressed to an organization.
type Notification struct {
	ID        string    `json:"id" firestore:"-"`
	OrgID     string    `json:"orgId" firestore:"orgId"`
	Type      string    `json:"type" firestore:"type"`
	Message   string    `json:"message" firestore:"message"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	Read      bool      `json:"read" firestore:"read"`
}
