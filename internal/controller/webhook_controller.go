package controller

import (
	"coursegate_backend/internal/service"
	"coursegate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// WebhookController is the payment-gateway intake. Deliveries are retried by
// the gateway, so every response that is not a 5xx must be safe to repeat.
type WebhookController struct {
	PurchaseService *service.PurchaseService
}

func NewWebhookController(purchaseService *service.PurchaseService) *WebhookController {
	return &WebhookController{PurchaseService: purchaseService}
}

// PaymentEvent godoc
// @Summary Ingest a payment event; idempotent on the provider event id
// @Tags webhooks
// @Accept json
// @Produce json
// @Param body body service.PaymentEvent true "payment event"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "unknown user"
// @Router /api/webhooks/payment [post]
func (c *WebhookController) PaymentEvent(ctx *gin.Context) {
	var evt service.PaymentEvent
	if err := ctx.ShouldBindJSON(&evt); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	purchase, err := c.PurchaseService.HandlePaymentEvent(evt)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"purchaseId": purchase.ID})
}
