package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/recurpay/app/controllers"
	"github.com/ManuelReschke/recurpay/internal/pkg/billing"
)

type okHandler struct{}

func (okHandler) HandleWebhookBody(context.Context, []byte) (*billing.Result, error) {
	return &billing.Result{State: billing.StateDone}, nil
}

func newRouterTestApp(t *testing.T, admins map[string]string) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	billing.NewMetrics(reg)

	app := fiber.New(fiber.Config{ErrorHandler: controllers.ErrorHandler})
	InstallRouter(app, Dependencies{
		Billing:       controllers.NewBillingController(okHandler{}, nil),
		MetricsGather: reg,
		AdminUsers:    admins,
	})
	return app
}

func TestInstallRouter_WebhookAndHealth(t *testing.T) {
	app := newRouterTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/portone", strings.NewReader(`{"payment_id":"p","status":"Paid"}`))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestInstallRouter_Metrics(t *testing.T) {
	app := newRouterTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "recurpay_schedule_failures_total")
}

func TestInstallRouter_AdminRoutesRequireAuth(t *testing.T) {
	app := newRouterTestApp(t, map[string]string{"ops": "pw"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/billing/schedule-warnings", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/schedule-warnings", nil)
	req.SetBasicAuth("ops", "pw")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	// no warnings store configured in this app
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInstallRouter_UnknownRouteIsJSON(t *testing.T) {
	app := newRouterTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"success":false`)
}
