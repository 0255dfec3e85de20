package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merkadolite/merkadolite-backend/api/controllers"
	"github.com/merkadolite/merkadolite-backend/api/middleware"
	"github.com/merkadolite/merkadolite-backend/internal/cart"
	"github.com/merkadolite/merkadolite-backend/internal/deliveries"
	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/internal/notifications"
	"github.com/merkadolite/merkadolite-backend/internal/orders"
	"github.com/merkadolite/merkadolite-backend/internal/promotions"
	"github.com/merkadolite/merkadolite-backend/internal/users"
	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// Services carries the wired domain services the router exposes.
type Services struct {
	Cart          cart.Service
	Orders        orders.Service
	Inventory     inventory.Service
	Promotions    promotions.Service
	Deliveries    deliveries.Service
	Notifications notifications.Service
	Users         users.Service
}

// Dependencies are probed by the readiness endpoint.
type Dependencies struct {
	DB    controllers.Pinger
	Redis controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	staff := []enums.UserRole{
		enums.UserRoleAdministrator,
		enums.UserRoleSeller,
		enums.UserRoleWarehouseManager,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/confirm", controllers.ConfirmOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListMyOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
		})

		r.Route("/cart/{customerId}", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(svcs.Cart, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, staff...))
			r.Get("/", controllers.ListInventory(svcs.Inventory, logg))
			r.Get("/low-stock", controllers.ListLowStock(svcs.Inventory, logg))
			r.Get("/expiring", controllers.ListExpiring(svcs.Inventory, logg))
			r.Get("/{productId}", controllers.GetInventory(svcs.Inventory, logg))
			r.Patch("/", controllers.AdjustStock(svcs.Inventory, logg))
			r.Post("/check-expirations", controllers.CheckExpirations(svcs.Inventory, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.ListPromotions(svcs.Promotions, logg))
			r.Get("/{promotionId}", controllers.GetPromotion(svcs.Promotions, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdministrator, enums.UserRoleSeller))
				r.Post("/", controllers.CreatePromotion(svcs.Promotions, logg))
				r.Patch("/{promotionId}", controllers.UpdatePromotion(svcs.Promotions, logg))
				r.Delete("/{promotionId}", controllers.DeletePromotion(svcs.Promotions, logg))
				r.Post("/auto-generate", controllers.GenerateAutoPromotions(svcs.Promotions, logg))
			})
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/pending", controllers.ListPendingDeliveries(svcs.Deliveries, logg))
			r.Get("/{orderId}", controllers.GetDelivery(svcs.Deliveries, logg))
			r.With(middleware.RequireRole(logg, staff...)).
				Post("/{orderId}/dispatch", controllers.DispatchDelivery(svcs.Deliveries, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdministrator, enums.UserRoleDriver)).
				Post("/{orderId}/deliver", controllers.DeliverOrder(svcs.Deliveries, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdministrator))
			r.Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
			r.Put("/{userId}", controllers.UpdateUser(svcs.Users, logg))
			r.Delete("/{userId}", controllers.DeleteUser(svcs.Users, logg))
		})
	})

	return r
}
