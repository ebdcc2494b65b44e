// Package metrics holds the Prometheus collectors for the billing services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assessly_billing"

var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "The total number of Stripe webhook deliveries by event type and outcome",
	}, []string{"type", "outcome"})

	CheckoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "The total number of checkout session requests by outcome",
	}, []string{"outcome"})

	PortalSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portal_sessions_total",
		Help:      "The total number of billing portal session requests by outcome",
	}, []string{"outcome"})

	RenewalReminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renewal_reminders_total",
		Help:      "The total number of renewal reminders by outcome",
	}, []string{"outcome"})
)
