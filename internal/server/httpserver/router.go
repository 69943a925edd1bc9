package httpserver

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver/handler"
	"github.com/yndnr/snapwatch-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Watcher serves source and live endpoints.
	Watcher handler.Watcher

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics backs /metrics and request metrics. Nil disables both.
	Metrics *metric.Registry

	// RateLimit is the per-IP request rate for /v1 routes (requests/second).
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	h := handler.New(cfg.Watcher, l)

	base := []Middleware{Recover(l), RequestID(), AccessLog(l, cfg.Metrics)}
	api := base
	if cfg.RateLimit > 0 {
		limiters := service.NewLimiterRegistry(rate.Limit(cfg.RateLimit), cfg.RateBurst, 0)
		api = append(append([]Middleware{}, base...), RateLimit(limiters))
	}

	mux := http.NewServeMux()

	health := Chain(h, base...)
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", health)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(l)))
	}

	mux.Handle("/v1/", Chain(h, api...))
	return mux
}
