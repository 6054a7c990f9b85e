package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelierhq/atelier-backend/api/controllers"
	"github.com/atelierhq/atelier-backend/api/middleware"
	"github.com/atelierhq/atelier-backend/internal/cart"
	checkoutsvc "github.com/atelierhq/atelier-backend/internal/checkout"
	"github.com/atelierhq/atelier-backend/internal/deliveries"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	"github.com/atelierhq/atelier-backend/internal/stock"
	"github.com/atelierhq/atelier-backend/internal/workshops"
	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/redis"
)

// Services groups everything the HTTP surface depends on.
type Services struct {
	Stock      stock.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Workshops  workshops.Service
	Deliveries deliveries.Service
	Invoices   invoices.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.Ping())

		r.Route("/stock", func(r chi.Router) {
			r.Post("/adjust", controllers.StockAdjust(svcs.Stock, logg))
			r.Get("/locations/{locationID}", controllers.StockByLocation(svcs.Stock, logg))
		})

		r.Post("/cart/items", controllers.CartAddItem(svcs.Cart, logg))
		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/workshops", func(r chi.Router) {
			r.Get("/", controllers.WorkshopList(svcs.Workshops, logg))
			r.Patch("/{id}/assign", controllers.WorkshopAssign(svcs.Workshops, logg))
			r.Patch("/{id}/status", controllers.WorkshopUpdateStatus(svcs.Workshops, logg))
			r.Post("/{id}/schedule-delivery", controllers.WorkshopScheduleDelivery(svcs.Workshops, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", controllers.DeliveryList(svcs.Deliveries, logg))
			r.Post("/transfers", controllers.DeliveryCreateTransfer(svcs.Deliveries, logg))
			r.Get("/{id}", controllers.DeliveryDetail(svcs.Deliveries, logg))
			r.Post("/{id}/confirm", controllers.DeliveryConfirm(svcs.Deliveries, logg))
			r.Patch("/{id}/status", controllers.DeliveryUpdateStatus(svcs.Deliveries, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svcs.Invoices, logg))
			r.Post("/", controllers.InvoiceCreate(svcs.Invoices, logg))
			r.Get("/{id}", controllers.InvoiceDetail(svcs.Invoices, logg))
			r.Post("/{id}/payments", controllers.InvoiceRecordPayment(svcs.Invoices, logg))
		})
	})

	return r
}
