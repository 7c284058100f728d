package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/trustchain-backend/api/controllers"
	"github.com/angelmondragon/trustchain-backend/api/middleware"
	"github.com/angelmondragon/trustchain-backend/internal/admission"
	"github.com/angelmondragon/trustchain-backend/internal/orders"
	"github.com/angelmondragon/trustchain-backend/internal/payments"
	"github.com/angelmondragon/trustchain-backend/internal/products"
	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	"github.com/angelmondragon/trustchain-backend/pkg/config"
	"github.com/angelmondragon/trustchain-backend/pkg/db"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/trustchain-backend/pkg/redis"
)

// Params carries everything the router mounts. Redis and Metrics are optional.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *pkgredis.Client
	Ledger    controllers.LedgerStatus
	Metrics   prometheus.Gatherer
	Admission admission.Service
	Products  products.Service
	Penalties controllers.PenaltyReader
	Orders    orders.Service
	Payments  payments.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	// A nil *Client must not reach the middleware as a non-nil interface.
	var (
		idempotencyStore pkgredis.IdempotencyStore
		rateStore        pkgredis.RateLimitStore
	)
	if p.Redis != nil {
		idempotencyStore = p.Redis
		rateStore = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Ledger))
	})

	gatherer := p.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	writePolicy := middleware.NewRateLimitPolicy("writes", cfg.RateLimit.WriteWindow, cfg.RateLimit.WriteLimit)
	can := func(action auth.Action) func(http.Handler) http.Handler {
		return middleware.RequirePermission(action, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.WriteRateLimit(writePolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.With(can(auth.ActionSubmitProduct)).Post("/", controllers.SubmitProduct(p.Admission, logg))
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(p.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(can(auth.ActionCreateOrder)).Post("/", controllers.CreateOrder(p.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.RoleConsumer)).Get("/mine", controllers.MyOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.With(can(auth.ActionUpdateOrder)).Put("/{orderId}", controllers.UpdateOrder(p.Orders, logg))
			r.With(can(auth.ActionViewLedger)).Get("/{orderId}/ledger", controllers.OrderLedgerHistory(p.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(can(auth.ActionCreatePayment)).Post("/", controllers.CreatePayment(p.Payments, logg))
			r.Get("/{paymentId}", controllers.GetPayment(p.Payments, logg))
			r.With(can(auth.ActionSignPayment)).Post("/{paymentId}/signatures", controllers.SignPayment(p.Payments, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.With(can(auth.ActionReviewFlagged)).Get("/flagged-products", controllers.AdminFlaggedProducts(p.Products, logg))
		r.With(can(auth.ActionViewPenalties)).Get("/penalties/{supplierId}", controllers.AdminSupplierPenalties(p.Penalties, logg))
		r.With(can(auth.ActionListDelivered)).Get("/orders/delivered", controllers.AdminDeliveredOrders(p.Orders, logg))
	})

	return r
}
