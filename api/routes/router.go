package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gearhouse/autoparts-backend/api/controllers"
	"github.com/gearhouse/autoparts-backend/api/middleware"
	"github.com/gearhouse/autoparts-backend/internal/analytics"
	authsvc "github.com/gearhouse/autoparts-backend/internal/auth"
	cartsvc "github.com/gearhouse/autoparts-backend/internal/cart"
	"github.com/gearhouse/autoparts-backend/internal/catalog"
	"github.com/gearhouse/autoparts-backend/internal/memberships"
	"github.com/gearhouse/autoparts-backend/internal/notifications"
	"github.com/gearhouse/autoparts-backend/internal/orders"
	"github.com/gearhouse/autoparts-backend/internal/promotions"
	syncsvc "github.com/gearhouse/autoparts-backend/internal/sync"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/metrics"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth          authsvc.Service
	Catalog       catalog.Service
	Cart          cartsvc.Service
	Memberships   memberships.Service
	Promotions    promotions.Service
	Notifications notifications.Service
	Orders        orders.Service
	Analytics     analytics.Service
	SyncReporter  *syncsvc.Reporter
	SyncHub       *syncsvc.Hub
	RateLimiter   *middleware.RateLimiter
	HTTPMetrics   *metrics.HTTPMetrics
	Readiness     []controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, svcs.HTTPMetrics),
		middleware.CORS(),
	)

	staff := []enums.Role{enums.RoleOwner, enums.RolePartner, enums.RoleAdmin}
	seniorStaff := []enums.Role{enums.RoleOwner, enums.RolePartner}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svcs.Readiness...))
	})
	r.Handle("/metrics", promhttp.Handler())

	limit := func(endpoint string) func(http.Handler) http.Handler {
		if svcs.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return svcs.RateLimiter.Limit(endpoint)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Session, svcs.Auth, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit("auth")).Post("/exchange", controllers.ExchangeSession(svcs.Auth, cfg.Session, logg))
			r.Get("/me", controllers.Me(svcs.Auth, cfg.Session, logg))
			r.Post("/logout", controllers.Logout(svcs.Auth, cfg.Session, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))
			r.Get("/products/{productID}", controllers.GetProduct(svcs.Catalog, logg))
			r.Get("/categories", controllers.ListCategories(svcs.Catalog, logg))
			r.Get("/car-brands", controllers.ListCarBrands(svcs.Catalog, logg))
			r.Get("/car-models", controllers.ListCarModels(svcs.Catalog, logg))
			r.Get("/product-brands", controllers.ListProductBrands(svcs.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, staff...))
				r.Post("/products", controllers.CreateProduct(svcs.Catalog, logg))
				r.Put("/products/{productID}", controllers.UpdateProduct(svcs.Catalog, logg))
				r.Delete("/products/{productID}", controllers.DeleteProduct(svcs.Catalog, logg))
				r.Post("/categories", controllers.CreateCategory(svcs.Catalog, logg))
				r.Put("/categories/{categoryID}", controllers.UpdateCategory(svcs.Catalog, logg))
				r.Delete("/categories/{categoryID}", controllers.DeleteCategory(svcs.Catalog, logg))
				r.Post("/car-brands", controllers.CreateCarBrand(svcs.Catalog, logg))
				r.Delete("/car-brands/{brandID}", controllers.DeleteCarBrand(svcs.Catalog, logg))
				r.Post("/car-models", controllers.CreateCarModel(svcs.Catalog, logg))
				r.Delete("/car-models/{modelID}", controllers.DeleteCarModel(svcs.Catalog, logg))
				r.Post("/product-brands", controllers.CreateProductBrand(svcs.Catalog, logg))
				r.Delete("/product-brands/{brandID}", controllers.DeleteProductBrand(svcs.Catalog, logg))
			})
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.ListPromotions(svcs.Promotions, logg))
			r.Get("/offers", controllers.ListBundleOffers(svcs.Promotions, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, staff...))
				r.Post("/", controllers.CreatePromotion(svcs.Promotions, logg))
				r.Put("/{promotionID}", controllers.UpdatePromotion(svcs.Promotions, logg))
				r.Delete("/{promotionID}", controllers.DeletePromotion(svcs.Promotions, logg))
				r.Post("/offers", controllers.CreateBundleOffer(svcs.Promotions, logg))
				r.Put("/offers/{offerID}", controllers.UpdateBundleOffer(svcs.Promotions, logg))
				r.Delete("/offers/{offerID}", controllers.DeleteBundleOffer(svcs.Promotions, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
			r.Post("/bundles/{groupID}/void", controllers.VoidCartBundle(svcs.Cart, logg))
			r.Get("/validate-stock", controllers.ValidateCartStock(svcs.Cart, logg))
			r.With(middleware.RequireRoles(logg, staff...)).Post("/items/priced", controllers.AddPricedCartItem(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Post("/checkout", controllers.Checkout(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/changes", controllers.PullOrderChanges(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(svcs.Orders, logg))
			r.With(middleware.RequireRoles(logg, staff...)).Patch("/{orderID}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/memberships", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, seniorStaff...))
				r.Get("/partners", controllers.ListPartners(svcs.Memberships, logg))
				r.Post("/partners", controllers.CreatePartner(svcs.Memberships, logg))
				r.Put("/partners/{partnerID}", controllers.UpdatePartner(svcs.Memberships, logg))
				r.Delete("/partners/{partnerID}", controllers.DeletePartner(svcs.Memberships, logg))
				r.Post("/admins/{adminID}/settle", controllers.SettleAdminRevenue(svcs.Memberships, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, staff...))
				r.Get("/admins", controllers.ListAdmins(svcs.Memberships, logg))
				r.Post("/admins", controllers.CreateAdmin(svcs.Memberships, logg))
				r.Put("/admins/{adminID}", controllers.UpdateAdmin(svcs.Memberships, logg))
				r.Delete("/admins/{adminID}", controllers.DeleteAdmin(svcs.Memberships, logg))
				r.Get("/subscribers", controllers.ListSubscribers(svcs.Memberships, logg))
				r.Post("/subscribers", controllers.CreateSubscriber(svcs.Memberships, logg))
				r.Delete("/subscribers/{subscriberID}", controllers.DeleteSubscriber(svcs.Memberships, logg))
			})
		})

		r.With(middleware.RequireRoles(logg, staff...)).Get("/analytics/dashboard", controllers.Dashboard(svcs.Analytics, logg))

		r.Route("/sync", func(r chi.Router) {
			r.Get("/tables", controllers.SyncTables(svcs.SyncReporter, logg))
			r.Get("/pull", controllers.SyncPull(svcs.SyncReporter, logg))
			r.Post("/pull", controllers.SyncBulkPull(svcs.SyncReporter, logg))
			r.Get("/ws", controllers.SyncSocket(svcs.SyncHub, logg))
		})
	})

	return r
}
