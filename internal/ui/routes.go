package ui

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"recdiff/internal/middleware"
)

// RouterConfig configures the middleware stack of NewRouter.
type RouterConfig struct {
	Logger    *slog.Logger
	RateLimit middleware.RateLimitConfig

	// CORSOrigins enables read-only cross-origin access, e.g. for
	// dashboards fetching /report.json.
	CORSOrigins []string
}

// MountRoutes registers the report pages on r.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Home)
	r.Get("/tables/{tableName}", h.TableDetail)
	r.Get("/sheets/{sheetName}", h.SheetDetail)
	r.Get("/report.json", h.ReportJSON)
	r.Get("/healthz", h.Healthz)
}

// NewRouter returns the report server: request ids, access logging, panic
// recovery and per-client rate limiting around the report pages.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	r.Use(middleware.RateLimiter(cfg.RateLimit))
	MountRoutes(r, h)
	return r
}
