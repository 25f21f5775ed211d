package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/billbot/internal/auth"
	authHandler "github.com/MrJamesThe3rd/billbot/internal/http/auth"
	"github.com/MrJamesThe3rd/billbot/internal/http/billing"
	"github.com/MrJamesThe3rd/billbot/internal/http/project"
	"github.com/MrJamesThe3rd/billbot/internal/http/webhook"
	"github.com/MrJamesThe3rd/billbot/internal/metrics"
)

func New(
	whatsapp *webhook.Handler,
	authV1 *authHandler.Handler,
	projectsV1 *project.Handler,
	billingV1 *billing.Handler,
	authSvc *auth.Service,
	corsOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/whatsapp", whatsapp.Routes)
	router.Route("/api/auth", authV1.Routes)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authSvc.Middleware)

		r.Route("/projects", projectsV1.Routes)

		r.Route("/billing-requests", billingV1.Routes)
	})

	return router
}

// instrument records request latency per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.RecordRequest(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
	})
}
