package main

import (
	"fmt"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/recurpay/app/controllers"
	"github.com/ManuelReschke/recurpay/internal/pkg/billing"
	"github.com/ManuelReschke/recurpay/internal/pkg/cache"
	"github.com/ManuelReschke/recurpay/internal/pkg/database"
	"github.com/ManuelReschke/recurpay/internal/pkg/env"
	"github.com/ManuelReschke/recurpay/internal/pkg/router"
)

const webhookBodyLimit = 1 << 20 // 1 MiB

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	provider := billing.NewPortOneClientFromEnv()
	if !provider.Configured() {
		// webhooks are still accepted and answered with configuration_missing
		log.Errorf("[Billing] PORTONE_API_SECRET is not set; payment notifications will fail")
	}

	redisSink := billing.NewRedisWarningSink(cache.GetClient())
	service := billing.NewService(
		provider,
		billing.NewRepository(database.GetDB()),
		billing.MultiWarningSink{billing.LogWarningSink{}, redisSink},
		billing.WithMetrics(billing.NewMetrics(prometheus.DefaultRegisterer)),
	)

	app := fiber.New(fiber.Config{
		BodyLimit:    webhookBodyLimit,
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if basePath := findBasePath(); basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Billing:       controllers.NewBillingController(service, redisSink),
		WebhookSecret: env.GetEnv("PORTONE_WEBHOOK_SECRET", ""),
		MetricsGather: prometheus.DefaultGatherer,
		AdminUsers:    adminUsers(),
	})

	return app
}

// findBasePath locates the project root when started from cmd/recurpay.
func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path
		}
	}
	log.Warnf("[App] openapi.yml not found, API docs disabled")
	return ""
}

// adminUsers returns basic auth credentials for /monitor and the warnings
// endpoint. Both stay unregistered without ADMIN_PASSWORD.
func adminUsers() map[string]string {
	password := env.GetEnv("ADMIN_PASSWORD", "")
	if password == "" {
		return nil
	}
	return map[string]string{env.GetEnv("ADMIN_USER", "admin"): password}
}
