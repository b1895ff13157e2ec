package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharmacare-app/pharmacare-backend/api/controllers"
	"github.com/pharmacare-app/pharmacare-backend/api/middleware"
	"github.com/pharmacare-app/pharmacare-backend/internal/auth"
	"github.com/pharmacare-app/pharmacare-backend/internal/fulfillment"
	"github.com/pharmacare-app/pharmacare-backend/internal/medications"
	"github.com/pharmacare-app/pharmacare-backend/internal/notifications"
	"github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/internal/prescriptions"
	"github.com/pharmacare-app/pharmacare-backend/pkg/config"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
	"github.com/pharmacare-app/pharmacare-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	AuthService          auth.Service
	PrescriptionsService prescriptions.Service
	FulfillmentService   fulfillment.Service
	MedicationsService   medications.Service
	NotificationsService notifications.Service
	OrdersRepo           orders.Repository
	OrderWorkflow        orders.Workflow
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, cfg.Idempotency.TTL, logg))

		// Account creation is manager-only; clients are registered in person.
		r.With(middleware.RequireAnyRole(logg, enums.UserRoleManager)).
			Post("/auth/register", controllers.AuthRegister(deps.AuthService, logg))

		r.Route("/prescriptions", func(r chi.Router) {
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleClient)).
				Post("/", controllers.SubmitPrescription(deps.PrescriptionsService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleClient)).
				Get("/me", controllers.MyPrescriptions(deps.PrescriptionsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, enums.UserRoleSalesperson, enums.UserRolePharmacist, enums.UserRoleManager))
				r.Get("/pending", controllers.PendingPrescriptions(deps.PrescriptionsService, logg))
				r.Post("/{prescriptionID}/process", controllers.ProcessPrescription(deps.FulfillmentService, logg))
				r.Post("/{prescriptionID}/reject", controllers.RejectPrescription(deps.FulfillmentService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireStaff(logg)).
				Get("/", controllers.ListOrders(deps.OrdersRepo, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleClient)).
				Get("/me", controllers.MyOrders(deps.OrdersRepo, logg))
			r.Get("/{orderID}", controllers.OrderDetail(deps.OrdersRepo, logg))
			r.With(middleware.RequireStaff(logg)).
				Patch("/{orderID}/status", controllers.UpdateOrderStatus(deps.OrderWorkflow, logg))
		})

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", controllers.ListMedications(deps.MedicationsService, logg))
			r.Get("/{medicationID}", controllers.GetMedication(deps.MedicationsService, logg))
			r.Post("/availability", controllers.CheckAvailability(deps.MedicationsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, enums.UserRolePharmacist, enums.UserRoleManager))
				r.Post("/", controllers.CreateMedication(deps.MedicationsService, logg))
				r.Patch("/{medicationID}", controllers.UpdateMedication(deps.MedicationsService, logg))
				r.Post("/{medicationID}/disable", controllers.DisableMedication(deps.MedicationsService, logg))
				r.Get("/low-stock", controllers.LowStockMedications(deps.MedicationsService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.NotificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.NotificationsService, logg))
		})
	})

	return r
}
