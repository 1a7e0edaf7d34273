package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/subtrackr/subtrackr-backend/api/controllers"
	"github.com/subtrackr/subtrackr-backend/api/middleware"
	"github.com/subtrackr/subtrackr-backend/internal/auth"
	"github.com/subtrackr/subtrackr-backend/internal/dashboard"
	"github.com/subtrackr/subtrackr-backend/internal/notifications"
	"github.com/subtrackr/subtrackr-backend/internal/reminders"
	"github.com/subtrackr/subtrackr-backend/internal/subscriptions"
	"github.com/subtrackr/subtrackr-backend/pkg/auth/session"
	"github.com/subtrackr/subtrackr-backend/pkg/config"
	"github.com/subtrackr/subtrackr-backend/pkg/db"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
	"github.com/subtrackr/subtrackr-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker

	Auth          auth.Service
	Subscriptions subscriptions.Service
	Reminders     reminders.Service
	Notifications notifications.Service
	Dashboard     dashboard.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", controllers.SubscriptionCreate(p.Subscriptions, logg))
			r.Get("/", controllers.SubscriptionList(p.Subscriptions, logg))
			r.Get("/{subscriptionId}", controllers.SubscriptionDetail(p.Subscriptions, logg))
			r.Put("/{subscriptionId}", controllers.SubscriptionUpdate(p.Subscriptions, logg))
			r.Delete("/{subscriptionId}", controllers.SubscriptionDelete(p.Subscriptions, logg))
			r.Get("/{subscriptionId}/reminders", controllers.SubscriptionReminders(p.Reminders, logg))
		})

		r.Get("/reminders/upcoming", controllers.UpcomingReminders(p.Reminders, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})

		r.Get("/dashboard/summary", controllers.DashboardSummary(p.Dashboard, logg))
	})

	return r
}
