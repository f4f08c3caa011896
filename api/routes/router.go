package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamvault/streamvault-backend/api/controllers"
	"github.com/streamvault/streamvault-backend/api/middleware"
	"github.com/streamvault/streamvault-backend/internal/auth"
	"github.com/streamvault/streamvault-backend/pkg/auth/session"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	planService controllers.PlanService,
	promotionService controllers.PromotionService,
	couponService controllers.CouponService,
	subscriptionService controllers.SubscriptionService,
	invoiceService controllers.InvoiceService,
	userDirectory controllers.UserDirectory,
	promRegistry *prometheus.Registry,
) http.Handler {
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

	readyProbes := []db.Pinger{dbP}
	if redisClient != nil {
		readyProbes = append(readyProbes, redisClient)
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyProbes...))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(registerService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	// Public catalog endpoints: the plan list and the live promotion banner.
	r.Get("/api/v1/plans", controllers.PlansList(planService, logg))
	r.Get("/api/v1/promotions/current", controllers.PromotionCurrent(promotionService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Get("/me", controllers.Me(userDirectory, logg))
		r.Get("/plans/{planId}", controllers.PlanDetail(planService, logg))

		r.Post("/coupons/validate", controllers.CouponValidate(couponService, logg))
		r.Post("/pricing/preview", controllers.SubscriptionPreview(subscriptionService, logg))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/me", controllers.SubscriptionDetail(subscriptionService, logg))
			r.Post("/change-plan", controllers.SubscriptionChangePlan(subscriptionService, logg))
			r.Post("/cancel", controllers.SubscriptionCancel(subscriptionService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoicesList(invoiceService, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(invoiceService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.AdminPlansList(planService, logg))
			r.Post("/", controllers.AdminPlanCreate(planService, logg))
			r.Put("/{planId}", controllers.AdminPlanUpdate(planService, logg))
			r.Delete("/{planId}", controllers.AdminPlanDelete(planService, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.AdminPromotionsList(promotionService, logg))
			r.Post("/", controllers.AdminPromotionCreate(promotionService, logg))
			r.Put("/{promotionId}", controllers.AdminPromotionUpdate(promotionService, logg))
			r.Delete("/{promotionId}", controllers.AdminPromotionDelete(promotionService, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminCouponsList(couponService, logg))
			r.Post("/", controllers.AdminCouponCreate(couponService, logg))
			r.Put("/{couponId}", controllers.AdminCouponUpdate(couponService, logg))
			r.Delete("/{couponId}", controllers.AdminCouponDelete(couponService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.AdminSubscriptionsList(subscriptionService, logg))
			r.Put("/{subscriptionId}", controllers.AdminSubscriptionUpdate(subscriptionService, logg))
		})

		r.Get("/invoices", controllers.AdminInvoicesList(invoiceService, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUsersList(userDirectory, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(userDirectory, logg))
			r.Put("/{userId}/credentials", controllers.AdminUserIPTVUpdate(userDirectory, logg))
		})
	})

	return r
}
