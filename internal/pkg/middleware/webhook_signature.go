package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/recurpay/internal/pkg/billing"
)

const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

type WebhookSignatureConfig struct {
	// Secret is the provider webhook secret, optionally "whsec_" prefixed.
	// Verification is skipped when empty.
	Secret string

	// Now defaults to time.Now.
	Now func() time.Time
}

// WebhookSignature rejects deliveries whose Standard Webhooks signature does
// not match the raw body.
func WebhookSignature(cfg WebhookSignatureConfig) fiber.Handler {
	secret := strings.TrimSpace(cfg.Secret)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		valid := billing.VerifyWebhookSignature(
			c.BodyRaw(),
			c.Get(HeaderWebhookID),
			c.Get(HeaderWebhookTimestamp),
			c.Get(HeaderWebhookSignature),
			secret,
			now(),
		)
		if !valid {
			log.Warnf("[Webhook] Rejected delivery %q with invalid signature", c.Get(HeaderWebhookID))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "invalid_signature"})
		}
		return c.Next()
	}
}
