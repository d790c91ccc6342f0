package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lucasferrin/directory-backend/api/routes"
	"github.com/lucasferrin/directory-backend/internal/checkout"
	"github.com/lucasferrin/directory-backend/internal/companies"
	"github.com/lucasferrin/directory-backend/internal/notifications"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	contentwebhook "github.com/lucasferrin/directory-backend/internal/webhooks/content"
	stripewebhook "github.com/lucasferrin/directory-backend/internal/webhooks/stripe"
	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/db"
	"github.com/lucasferrin/directory-backend/pkg/logger"
	"github.com/lucasferrin/directory-backend/pkg/metrics"
	"github.com/lucasferrin/directory-backend/pkg/migrate"
	"github.com/lucasferrin/directory-backend/pkg/redis"
	"github.com/lucasferrin/directory-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	var notifier notifications.Notifier
	if cfg.Sendgrid.APIKey != "" {
		mailer, err := notifications.NewMailer(cfg.Sendgrid, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create mailer", err)
			os.Exit(1)
		}
		notifier = mailer
	} else {
		logg.Warn(context.Background(), "sendgrid api key not set, email notifications disabled")
	}

	submissionRepo := submissions.NewRepository(dbClient.DB())
	companyRepo := companies.NewRepository(dbClient.DB())

	companyService, err := companies.NewService(companies.ServiceParams{
		Repo:        companyRepo,
		Submissions: submissionRepo,
		Metrics:     webhookMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create companies service", err)
		os.Exit(1)
	}

	submissionService, err := submissions.NewService(submissions.ServiceParams{
		Repo:      submissionRepo,
		Companies: companyService,
		Notifier:  notifier,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create submissions service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repo:      submissionRepo,
		Stripe:    checkout.NewStripeClient(stripeClient),
		StripeCfg: cfg.Stripe,
		BaseURL:   cfg.App.BaseURL,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Submissions: submissionRepo,
		Engine:      submissionService,
		Companies:   companyService,
		StripeAPI:   stripewebhook.NewStripeClient(stripeClient),
		Notifier:    notifier,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	contentWebhookService, err := contentwebhook.NewService(contentwebhook.ServiceParams{
		Engine: submissionService,
		Secret: cfg.Content.Secret,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create content webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Registry:             registry,
			Submissions:          submissionService,
			Companies:            companyService,
			Checkout:             checkoutService,
			StripeClient:         stripeClient,
			StripeWebhookService: stripeWebhookService,
			StripeWebhookGuard:   stripeWebhookGuard,
			ContentWebhook:       contentWebhookService,
			WebhookMetrics:       webhookMetrics,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
