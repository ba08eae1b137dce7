package http

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"credit-sales/domain"
	"credit-sales/logging"
	"credit-sales/service"
)

type LoanHandler struct {
	service *service.LoanService
	logger  *zap.Logger
}

func NewLoanHandler(service *service.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logging.OrNop(logger)}
}

// CalculateLoan handles POST /loan/calculate.
func (h *LoanHandler) CalculateLoan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireJSON(w, r) {
		return
	}

	var input domain.LoanRequest
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.CalculateLoan(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

type simulateRequest struct {
	domain.LoanRequest
	Entries int `json:"entries"`
}

// SimulateLoan handles POST /loan/simulate. entries is optional.
func (h *LoanHandler) SimulateLoan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireJSON(w, r) {
		return
	}

	var input simulateRequest
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}
	if input.Entries < 0 {
		http.Error(w, "entries cannot be negative", http.StatusBadRequest)
		return
	}

	result, err := h.service.SimulateLoan(r.Context(), input.LoanRequest, input.Entries)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

type quotesResponse struct {
	Quotes []domain.QuoteRecord `json:"quotes"`
}

// ListQuotes handles GET /loan/quotes?limit=N.
func (h *LoanHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.service.RecentQuotes(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, quotesResponse{Quotes: records})
}
