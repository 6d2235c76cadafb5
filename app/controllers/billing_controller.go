package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/recurpay/internal/pkg/billing"
)

const webhookProcessingTimeout = 30 * time.Second

// NotificationHandler runs the payment flow for a raw webhook body.
type NotificationHandler interface {
	HandleWebhookBody(ctx context.Context, body []byte) (*billing.Result, error)
}

// WarningLister exposes recorded scheduling warnings.
type WarningLister interface {
	RecentWarnings(ctx context.Context, limit int64) ([]billing.Warning, error)
}

type BillingController struct {
	handler  NotificationHandler
	warnings WarningLister
}

// NewBillingController wires the webhook endpoints; warnings may be nil.
func NewBillingController(handler NotificationHandler, warnings WarningLister) *BillingController {
	return &BillingController{
		handler:  handler,
		warnings: warnings,
	}
}

func (bc *BillingController) HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookProcessingTimeout)
	defer cancel()

	res, err := bc.handler.HandleWebhookBody(ctx, rawBody)
	if err != nil {
		return writeBillingError(c, err)
	}
	if res != nil && len(res.Warnings) > 0 {
		log.Warnf("[Webhook] Payment acknowledged with %d warning(s)", len(res.Warnings))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (bc *BillingController) HandleScheduleWarnings(c *fiber.Ctx) error {
	if bc.warnings == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "warnings store not configured"})
	}
	limit := int64(c.QueryInt("limit", 50))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	items, err := bc.warnings.RecentWarnings(c.UserContext(), limit)
	if err != nil {
		log.Errorf("[Webhook] Loading schedule warnings failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "warnings_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "warnings": items})
}

func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func writeBillingError(c *fiber.Ctx, err error) error {
	e := billing.AsError(err)
	if e.Kind == billing.KindUnexpected {
		log.Errorf("[Webhook] Unexpected failure: %v", err)
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	body := fiber.Map{
		"success": false,
		"error":   msg,
		"code":    string(e.Kind),
	}
	if e.Detail != "" {
		body["details"] = e.Detail
	}
	status := e.StatusCode
	if status < 400 || status > 599 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler renders every unhandled error, including recovered panics, as
// the webhook's JSON error shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
	}
	log.Errorf("[App] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "unexpected failure",
		"code":    string(billing.KindUnexpected),
	})
}
