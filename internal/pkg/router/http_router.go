package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/recurpay/app/controllers"
)

// Dependencies carries everything the routers need.
type Dependencies struct {
	Billing       *controllers.BillingController
	WebhookSecret string
	MetricsGather prometheus.Gatherer
	AdminUsers    map[string]string
}

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", controllers.HandleHealth)

	gatherer := h.deps.MetricsGather
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if len(h.deps.AdminUsers) > 0 {
		app.Get("/monitor", basicauth.New(basicauth.Config{Users: h.deps.AdminUsers}), monitor.New())
	}
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
