package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasferrin/directory-backend/api/controllers"
	webhookcontrollers "github.com/lucasferrin/directory-backend/api/controllers/webhooks"
	"github.com/lucasferrin/directory-backend/api/middleware"
	"github.com/lucasferrin/directory-backend/internal/checkout"
	"github.com/lucasferrin/directory-backend/internal/companies"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	stripewebhook "github.com/lucasferrin/directory-backend/internal/webhooks/stripe"
	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/db"
	"github.com/lucasferrin/directory-backend/pkg/logger"
	"github.com/lucasferrin/directory-backend/pkg/metrics"
	"github.com/lucasferrin/directory-backend/pkg/redis"
	"github.com/lucasferrin/directory-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	Registry *prometheus.Registry

	Submissions *submissions.Service
	Companies   *companies.Service
	Checkout    *checkout.Service

	StripeClient         *stripe.Client
	StripeWebhookService webhookcontrollers.StripeWebhookService
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
	ContentWebhook       webhookcontrollers.ContentWebhookService

	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(p.Config.App.BaseURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/submissions", controllers.CreateSubmission(p.Submissions, p.Logger))
		r.Get("/companies", controllers.ListCompanies(p.Companies, p.Logger))
		r.Post("/checkout/session", controllers.CreateCheckoutSession(p.Checkout, p.Logger))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookService, p.StripeClient, p.StripeWebhookGuard, p.WebhookMetrics, p.Logger))
			r.Post("/content", webhookcontrollers.ContentWebhook(p.ContentWebhook, p.WebhookMetrics, p.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.OperatorAuth(p.Config.Admin, p.Logger))
		r.Post("/submissions/{submissionId}/status", controllers.AdminSetSubmissionStatus(p.Submissions, p.Logger))
	})

	return r
}
