package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"credit-sales/config"
	"credit-sales/logging"
)

// Routes groups what NewRouter mounts. Tools and Credit may be nil.
type Routes struct {
	Loans   *LoanHandler
	Terms   *TermRecommendationHandler
	Tools   *ToolHandler
	Credit  *CreditHandler
	Limiter *RateLimiter
	Logger  *zap.Logger
}

// NewRouter mounts the API. Loan and credit endpoints share the rate limiter.
func NewRouter(rt Routes) http.Handler {
	logger := logging.OrNop(rt.Logger)
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(rt.Limiter, logger, h)
	}

	mux := http.NewServeMux()
	mux.Handle("/loan/calculate", limited(rt.Loans.CalculateLoan))
	mux.Handle("/loan/simulate", limited(rt.Loans.SimulateLoan))
	mux.Handle("/loan/quotes", limited(rt.Loans.ListQuotes))
	mux.Handle("/loan/recommend-term", limited(rt.Terms.RecommendTerm))
	if rt.Credit != nil {
		mux.Handle("/credit/simulate", limited(rt.Credit.Simulate))
		mux.Handle("/credit/loan-options", limited(rt.Credit.LoanOptions))
		mux.Handle("/credit/clients/{id}", limited(rt.Credit.ClientInfo))
		mux.Handle("/credit/clients/{id}/pre-approved-loans", limited(rt.Credit.PreApprovedLoan))
		mux.Handle("/credit/applications/{id}", limited(rt.Credit.ApplicationStatus))
	}
	if rt.Tools != nil {
		mux.HandleFunc("/agent/tools", rt.Tools.ListTools)
		mux.HandleFunc("/agent/tools/{name}", rt.Tools.CallTool)
	}
	mux.HandleFunc("/healthz", Health)

	return accessLog(logger, mux)
}

// NewServer builds the http.Server for cfg.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
