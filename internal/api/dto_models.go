package api

// Callable protocol envelopes. Requests carry their arguments under "data";
// successful responses carry the return value under "result" and failures an
// "error" object with a canonical status name.

// CallableError is the error payload of a failed callable request.
type CallableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error CallableError `json:"error"`
}

// CreateCheckoutSessionRequest is the body of POST /billing/createCheckoutSession.
type CreateCheckoutSessionRequest struct {
	Data struct {
		OrgID      string `json:"orgId"`
		PriceID    string `json:"priceId"`
		SuccessURL string `json:"successUrl"`
		CancelURL  string `json:"cancelUrl"`
	} `json:"data"`
}

// CreateCheckoutSessionResult is returned under "result".
type CreateCheckoutSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreatePortalLinkRequest is the body of POST /billing/createPortalLink.
type CreatePortalLinkRequest struct {
	Data struct {
		OrgID     string `json:"orgId"`
		ReturnURL string `json:"returnUrl"`
	} `json:"data"`
}

// CreatePortalLinkResult is returned under "result".
type CreatePortalLinkResult struct {
	URL string `json:"url"`
}

// WebhookAck acknowledges a webhook delivery.
type WebhookAck struct {
	Received bool `json:"received"`
}
