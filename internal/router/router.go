package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tour-booking-api/internal/config"
	"tour-booking-api/internal/handler"
	"tour-booking-api/internal/middleware"
	"tour-booking-api/internal/model"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	userResource *handler.Resource[model.User],
	tourHandler *handler.TourHandler,
	reviewResource *handler.Resource[model.Review],
	auditHandler *handler.AuditHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/users", func(users chi.Router) {
			users.Post("/signup", authHandler.Signup)
			users.Post("/login", authHandler.Login)
			users.Get("/logout", authHandler.Logout)
			users.Post("/forgotPassword", authHandler.ForgotPassword)
			users.Patch("/resetPassword/{token}", authHandler.ResetPassword)

			users.Group(func(me chi.Router) {
				me.Use(authMiddleware.Protect)
				me.Patch("/updatePassword", authHandler.UpdatePassword)
				me.Get("/me", userHandler.Me)
				me.Patch("/updateMe", userHandler.UpdateMe)
				me.Delete("/deleteMe", userHandler.DeleteMe)
			})

			users.Group(func(admin chi.Router) {
				admin.Use(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleAdmin))
				admin.Get("/", userResource.List)
				admin.Get("/{id}", userResource.Get)
				admin.Patch("/{id}", userResource.Update)
				admin.Delete("/{id}", userResource.Delete)
			})
		})

		api.Route("/tours", func(tours chi.Router) {
			tours.With(authMiddleware.Optional).Get("/", tourHandler.List)
			tours.Get("/top-5-cheap", tourHandler.TopTours)
			tours.Get("/{id}", tourHandler.Get)

			tours.Group(func(manage chi.Router) {
				manage.Use(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleAdmin, model.RoleLeadGuide))
				manage.Post("/", tourHandler.Create)
				manage.Patch("/{id}", tourHandler.Update)
				manage.Delete("/{id}", tourHandler.Delete)
			})

			// chi requires one wildcard name per position, so the nested
			// mount reuses {id} for the tour id.
			tours.Route("/{id}/reviews", func(nested chi.Router) {
				nested.Get("/", reviewResource.List)
				nested.With(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleUser)).Post("/", reviewResource.Create)
			})
		})

		api.Route("/reviews", func(reviews chi.Router) {
			reviews.Get("/", reviewResource.List)
			reviews.Get("/{id}", reviewResource.Get)
			reviews.With(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleUser)).Post("/", reviewResource.Create)

			reviews.Group(func(manage chi.Router) {
				manage.Use(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleUser, model.RoleAdmin))
				manage.Patch("/{id}", reviewResource.Update)
				manage.Delete("/{id}", reviewResource.Delete)
			})
		})

		api.With(authMiddleware.Protect, authMiddleware.RequireRoles(model.RoleAdmin)).Get("/audit", auditHandler.List)
	})

	return r
}
