// Package triallifecycle предоставляет маршруты для основного приложения.
package triallifecycle

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/check"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/convert"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/health"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/notifications"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/start"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/handlers/trial/status"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/jwt"
	subservice "github.com/magabrotheeeer/trial-lifecycle/internal/services/subscription"
	sweeperservice "github.com/magabrotheeeer/trial-lifecycle/internal/services/sweeper"

	"log/slog"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, subscriptionService *subservice.Service, sweeper *sweeperservice.Service, maker jwt.Maker) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/trial", start.New(logger, subscriptionService).ServeHTTP)
			r.Get("/trial", status.New(logger, subscriptionService).ServeHTTP)
			r.Post("/trial/convert", convert.New(logger, subscriptionService).ServeHTTP)
			r.Get("/trial/notifications", notifications.New(logger, subscriptionService).ServeHTTP)
			r.Post("/trial/check", check.New(logger, sweeper).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
