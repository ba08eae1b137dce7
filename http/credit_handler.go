package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"credit-sales/creditapi"
	"credit-sales/domain"
	"credit-sales/logging"
	"credit-sales/service"
)

// CreditHandler exposes the credit bureau client: the local payment
// simulation and a pass-through of the bureau's read endpoints.
type CreditHandler struct {
	client *creditapi.Client
	logger *zap.Logger
}

func NewCreditHandler(client *creditapi.Client, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{client: client, logger: logging.OrNop(logger)}
}

type creditSimulateRequest struct {
	Amount       float64 `json:"amount"`
	TermMonths   int     `json:"term_months"`
	InterestRate float64 `json:"interest_rate"`
}

// Simulate handles POST /credit/simulate. It never calls the bureau.
func (h *CreditHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireJSON(w, r) {
		return
	}

	var input creditSimulateRequest
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	req := domain.LoanRequest{
		Principal:         input.Amount,
		TermMonths:        input.TermMonths,
		AnnualRatePercent: input.InterestRate,
	}
	if err := service.CheckCeilings(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sim, err := h.client.SimulateLoanPayment(input.Amount, input.TermMonths, input.InterestRate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sim)
}

// PreApprovedLoan handles GET /credit/clients/{id}/pre-approved-loans.
func (h *CreditHandler) PreApprovedLoan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	data, err := h.client.GetPreApprovedLoan(r.Context(), r.PathValue("id"))
	h.forward(w, data, err)
}

// ClientInfo handles GET /credit/clients/{id}.
func (h *CreditHandler) ClientInfo(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	data, err := h.client.GetClientInfo(r.Context(), r.PathValue("id"))
	h.forward(w, data, err)
}

// ApplicationStatus handles GET /credit/applications/{id}.
func (h *CreditHandler) ApplicationStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	data, err := h.client.GetApplicationStatus(r.Context(), r.PathValue("id"))
	h.forward(w, data, err)
}

type loanOptionsRequest struct {
	Amount     float64        `json:"amount"`
	TermMonths int            `json:"term_months"`
	ClientData map[string]any `json:"client_data,omitempty"`
}

// LoanOptions handles POST /credit/loan-options.
func (h *CreditHandler) LoanOptions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !requireJSON(w, r) {
		return
	}

	var input loanOptionsRequest
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}
	if !(input.Amount > 0) {
		writeError(w, h.logger, &domain.FieldError{Field: "amount", Reason: "debe ser mayor que cero", Err: domain.ErrInvalidAmount})
		return
	}
	if input.TermMonths <= 0 {
		writeError(w, h.logger, &domain.FieldError{Field: "term_months", Reason: "debe ser mayor que cero", Err: domain.ErrInvalidTerm})
		return
	}

	data, err := h.client.CalculateLoanOptions(r.Context(), input.Amount, input.TermMonths, input.ClientData)
	h.forward(w, data, err)
}

type bureauError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// forward relays a bureau answer. Bureau 4xx answers keep their status;
// everything else the bureau does wrong is a 502.
func (h *CreditHandler) forward(w http.ResponseWriter, data json.RawMessage, err error) {
	if err == nil {
		writeJSON(w, h.logger, http.StatusOK, data)
		return
	}

	var apiErr *creditapi.APIError
	switch {
	case domain.IsValidationError(err):
		writeError(w, h.logger, err)
	case errors.Is(err, creditapi.ErrNotConfigured):
		writeJSON(w, h.logger, http.StatusServiceUnavailable, bureauError{Error: err.Error()})
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		writeJSON(w, h.logger, apiErr.StatusCode, bureauError{Error: apiErr.Code, Message: apiErr.Message})
	default:
		h.logger.Warn("credit API call failed", zap.Error(err))
		writeJSON(w, h.logger, http.StatusBadGateway, bureauError{Error: "credit API unavailable"})
	}
}
