package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/handler"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/middleware"
)

type Dependencies struct {
	Health      *handler.HealthHandler
	Orders      *handler.OrderHandler
	Shipping    *handler.ShippingHandler
	Zones       *handler.DeliveryZoneHandler
	Webhooks    *handler.WebhookHandler
	Idempotency *middleware.Idempotency

	APILimiter      middleware.Limiter
	APIRateLimitRPM int
}

// New assembles the HTTP surface. The webhook endpoint sits outside the
// API rate limiter so a burst of legitimate provider retries cannot be
// throttled into redelivery loops.
func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", deps.Health.Live)
	r.Get("/readyz", deps.Health.Ready)

	r.Post("/webhooks/stripe", deps.Webhooks.HandleStripe)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.APILimiter != nil && deps.APIRateLimitRPM > 0 {
			rl := middleware.NewDistributedRateLimiter(deps.APILimiter, deps.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api")
			r.Use(rl.Middleware())
		}

		r.Post("/shipping/rates", deps.Shipping.QuoteRates)
		r.Get("/farmers/{id}/delivery-zones", deps.Zones.ListByFarmer)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", deps.Orders.ListOrders)
			r.Get("/{id}", deps.Orders.GetOrder)
			r.Get("/{id}/invoice", deps.Orders.DownloadInvoice)
			if deps.Idempotency != nil {
				r.With(deps.Idempotency.Middleware()).Post("/", deps.Orders.CreateOrder)
			} else {
				r.Post("/", deps.Orders.CreateOrder)
			}
		})
	})

	return r
}
