package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/distriweb/storefront/api/controllers"
	"github.com/distriweb/storefront/api/middleware"
	cartsvc "github.com/distriweb/storefront/internal/cart"
	"github.com/distriweb/storefront/internal/catalog"
	"github.com/distriweb/storefront/internal/filter"
	"github.com/distriweb/storefront/internal/orders"
	"github.com/distriweb/storefront/internal/register"
	"github.com/distriweb/storefront/internal/session"
	"github.com/distriweb/storefront/pkg/config"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store storage.Store,
	upstreamPinger controllers.UpstreamPinger,
	sess *session.Store,
	cart *cartsvc.Store,
	filters *filter.Store,
	catalogService *catalog.Service,
	orderWorkflow *orders.Workflow,
	registerService *register.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, store, upstreamPinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.Login(sess, logg))
			r.Post("/logout", controllers.Logout(sess, logg))
			r.Get("/session", controllers.Session(sess, logg))
		})

		r.Post("/register", controllers.Register(registerService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cart, logg))
			r.Delete("/", controllers.CartClear(cart, logg))
			r.Post("/items", controllers.CartAddItem(cart, logg))
			r.Delete("/items/{code}", controllers.CartRemoveItem(cart, logg))
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", controllers.FiltersGet(filters, logg))
			r.Put("/", controllers.FiltersUpdate(filters, logg))
			r.Put("/category", controllers.FiltersSetCategory(filters, logg))
			r.Delete("/", controllers.FiltersClear(filters, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
			r.Get("/brands", controllers.CatalogBrands(catalogService, logg))
			r.Get("/products", controllers.CatalogProducts(catalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderSubmit(orderWorkflow, cart, logg))
			r.Get("/status", controllers.OrderStatus(orderWorkflow, logg))
			r.Post("/reset", controllers.OrderReset(orderWorkflow, logg))
		})
	})

	return r
}
