package handlers

import (
	"amstapay/internal/services/webhook"
	"amstapay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const signatureHeader = "x-paystack-signature"

type WebhookHandler struct {
	webhookService webhook.Service
	log            *zap.SugaredLogger
}

func NewWebhookHandler(webhookService webhook.Service, log *zap.SugaredLogger) *WebhookHandler {
	if webhookService == nil {
		panic("webhook handler requires a webhook service")
	}
	return &WebhookHandler{
		webhookService: webhookService,
		log:            log,
	}
}

// HandlePaystack receives provider callbacks. The signature is checked over
// the raw body before any parsing; invalid signatures are rejected without
// touching the payload. Processing errors after a valid signature are logged
// but still acknowledged so the provider does not retry a poison event forever.
func (h *WebhookHandler) HandlePaystack(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get(signatureHeader)

	if err := h.webhookService.VerifySignature(body, signature); err != nil {
		h.log.Warnw("webhook signature verification failed",
			"ip", c.IP(),
			"body_size", len(body),
		)
		return utils.Unauthorized(c, err.Error())
	}

	if err := h.webhookService.HandleEvent(c.Context(), body); err != nil {
		h.log.Errorw("webhook event processing failed", "error", err)
	}

	return utils.Success(c, fiber.Map{"status": "ok"})
}
