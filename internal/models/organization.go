package models

import "time"

// Plan is the subscription tier of an organization.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanBasic        Plan = "basic"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// SubscriptionStatusActive is the provider status the renewal scan looks for.
// Every other status is stored verbatim as the provider reports it.
const SubscriptionStatusActive = "active"

// Subscription is embedded in an Organization and mirrors the provider's
// subscription state as of the last applied webhook event.
type Subscription struct {
	Plan              Plan      `json:"plan" firestore:"plan"`
	Status            string    `json:"status" firestore:"status"` // e.g., "active", "past_due", "canceled"
	CurrentPeriodEnd  time.Time `json:"currentPeriodEnd,omitempty" firestore:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd" firestore:"cancelAtPeriodEnd"`
	// LastEventAt is the creation time of the provider event that produced this state.
	LastEventAt time.Time `json:"lastEventAt,omitempty" firestore:"lastEventAt,omitempty"`
}

// Organization is a tenant: the billing and membership unit.
type Organization struct {
	ID               string       `json:"id" firestore:"-"` // Document ID
	Name             string       `json:"name" firestore:"name"`
	OwnerID          string       `json:"ownerId" firestore:"ownerId"`
	Members          []string     `json:"members" firestore:"members"`
	StripeCustomerID string       `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	Subscription     Subscription `json:"subscription" firestore:"subscription"`
	CreatedAt        time.Time    `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time    `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// HasMember reports whether userID is listed as a member of the organization.
func (o *Organization) HasMember(userID string) bool {
	for _, m := range o.Members {
		if m == userID {
			return true
		}
	}
	return false
}
