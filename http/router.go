package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendtrack/service"
)

type RouterConfig struct {
	Loans    *service.LoanService
	Terms    *service.TermRecommendationService
	Limiter  *RateLimiter
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter wires the loan endpoints behind rate limiting and metrics, plus
// the health and metrics endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	loanHandler := NewLoanHandler(cfg.Loans, cfg.Logger)
	termHandler := NewTermRecommendationHandler(cfg.Terms, cfg.Logger)
	metrics := NewMetrics(cfg.Registry)

	mux := http.NewServeMux()
	limited := func(route string, h http.HandlerFunc) {
		mux.Handle(route, metrics.Instrument(route, RateLimitMiddleware(cfg.Limiter, h)))
	}

	limited("/loan/schedule", loanHandler.CalculateSchedule)
	limited("/loan/schedule/export", loanHandler.ExportSchedule)
	limited("/loan/max-principal", loanHandler.MaxPrincipal)
	limited("/loan/required-tenure", loanHandler.RequiredTenure)
	limited("/loan/recommend-term", termHandler.RecommendTerm)

	mux.Handle("/healthz", metrics.Instrument("/healthz", http.HandlerFunc(Health)))
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	return RequestID(AccessLog(cfg.Logger, mux))
}

func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
