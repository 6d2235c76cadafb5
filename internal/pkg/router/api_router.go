package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/ManuelReschke/recurpay/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Provider deliveries are retried on non-2xx, so no rate limiter here.
	v1.Post("/webhooks/portone",
		middleware.WebhookSignature(middleware.WebhookSignatureConfig{Secret: h.deps.WebhookSecret}),
		h.deps.Billing.HandlePaymentWebhook,
	)

	if len(h.deps.AdminUsers) > 0 {
		admin := v1.Group("/billing", basicauth.New(basicauth.Config{Users: h.deps.AdminUsers}))
		admin.Get("/schedule-warnings", h.deps.Billing.HandleScheduleWarnings)
	}
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
