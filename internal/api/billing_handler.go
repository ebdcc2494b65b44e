package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/example/assessly-billing/internal/core"
	"github.com/example/assessly-billing/internal/middleware"
)

// maxWebhookBodyBytes bounds the webhook payload read into memory.
const maxWebhookBodyBytes = 65536

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
	webhookService core.WebhookService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, ws core.WebhookService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, webhookService: ws, logger: logger}
}

// CreateCheckoutSession handles POST /billing/createCheckoutSession.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, codes.InvalidArgument, "Invalid request payload")
		return
	}

	res, err := h.billingService.CreateCheckoutSession(c.Request.Context(), core.CheckoutRequest{
		OrgID:      req.Data.OrgID,
		PriceID:    req.Data.PriceID,
		SuccessURL: req.Data.SuccessURL,
		CancelURL:  req.Data.CancelURL,
		CallerID:   c.GetString(middleware.ContextUserID),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": CreateCheckoutSessionResult{SessionID: res.SessionID, URL: res.URL}})
}

// CreatePortalLink handles POST /billing/createPortalLink.
func (h *BillingHandler) CreatePortalLink(c *gin.Context) {
	var req CreatePortalLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, codes.InvalidArgument, "Invalid request payload")
		return
	}

	url, err := h.billingService.CreatePortalLink(c.Request.Context(), req.Data.OrgID, req.Data.ReturnURL, c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": CreatePortalLinkResult{URL: url}})
}

// HandleStripeWebhook handles POST /stripeWebhook.
// This endpoint is public; Stripe authenticates deliveries with the Stripe-Signature header.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	_, err = h.webhookService.HandleStripeWebhook(c.Request.Context(), c.GetHeader("Stripe-Signature"), payload)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, WebhookAck{Received: true})
	case errors.Is(err, core.ErrWebhookSignature):
		c.String(http.StatusBadRequest, "Webhook Error: signature verification failed")
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}
