package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendorhall/checkout/api/controllers"
	"github.com/vendorhall/checkout/api/middleware"
	checkoutsvc "github.com/vendorhall/checkout/internal/checkout"
	"github.com/vendorhall/checkout/internal/confirmation"
	"github.com/vendorhall/checkout/internal/submission"
	"github.com/vendorhall/checkout/pkg/config"
	"github.com/vendorhall/checkout/pkg/logger"
	pkgredis "github.com/vendorhall/checkout/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisPinger pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	checkoutService checkoutsvc.Service,
	submissionService submission.Service,
	confirmationService confirmation.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/checkout/sessions", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/", controllers.SessionCreate(checkoutService, logg))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", controllers.SessionFetch(checkoutService, logg))
			r.Delete("/", controllers.SessionClear(checkoutService, logg))
			r.Put("/items/{itemID}/price", controllers.ItemPriceUpdate(checkoutService, logg))
			r.Delete("/items/{itemID}", controllers.ItemRemove(checkoutService, logg))
			r.Put("/discount", controllers.DiscountUpdate(checkoutService, logg))
			r.Post("/discount/quick", controllers.QuickDiscount(checkoutService, logg))
			r.Get("/payment-methods", controllers.PaymentMethods(checkoutService, logg))
			r.Put("/payment-method", controllers.PaymentMethodSelect(checkoutService, logg))
			r.Put("/contact", controllers.ContactUpdate(checkoutService, logg))
			r.Post("/submit", controllers.Submit(submissionService, logg))
		})
	})

	r.Get("/checkout/confirmation/{orderID}", controllers.Confirmation(confirmationService, logg))

	return r
}
