package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-sales/creditapi"
	"credit-sales/domain"
)

type bureauCall struct {
	Path string
	Body map[string]any
}

// newBureau serves a canned answer and records the last call.
func newBureau(t *testing.T, status int, response string) (*creditapi.Client, *bureauCall) {
	t.Helper()
	call := &bureauCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call.Path = r.URL.Path
		call.Body = nil
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.Body)
		}
		w.Header().Set("Connection", "close")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return creditapi.NewClient(creditapi.Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}, nil), call
}

func newCreditRouter(t *testing.T, client *creditapi.Client) http.Handler {
	t.Helper()
	rt := newTestRoutes(t, nil, 100)
	rt.Credit = NewCreditHandler(client, nil)
	return NewRouter(rt)
}

func TestCreditSimulate(t *testing.T) {
	h := newCreditRouter(t, creditapi.NewClient(creditapi.Config{}, nil))

	w := do(h, http.MethodPost, "/credit/simulate", `{"amount": 10000, "term_months": 24, "interest_rate": 12.5}`)
	require.Equal(t, http.StatusOK, w.Code)

	var sim creditapi.Simulation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.Equal(t, creditapi.LoanDetails{
		Amount:         10000,
		TermMonths:     24,
		InterestRate:   12.5,
		MonthlyPayment: 473.07,
		TotalPayment:   11353.75,
		TotalInterest:  1353.75,
	}, sim.LoanDetails)
	require.Len(t, sim.AmortizationTable, 12)
	assert.Equal(t, domain.Installment{Month: 1, Payment: 473.07, Principal: 368.91, Interest: 104.17, RemainingBalance: 9631.09},
		sim.AmortizationTable[0])
}

func TestCreditSimulate_ZeroRateAndErrors(t *testing.T) {
	h := newCreditRouter(t, creditapi.NewClient(creditapi.Config{}, nil))

	w := do(h, http.MethodPost, "/credit/simulate", `{"amount": 1200, "term_months": 2, "interest_rate": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"loan_details": {"amount": 1200, "term_months": 2, "interest_rate": 0,
			"monthly_payment": 600, "total_payment": 1200, "total_interest": 0},
		"amortization_table": [
			{"month": 1, "payment": 600, "principal": 600, "interest": 0, "remaining_balance": 600},
			{"month": 2, "payment": 600, "principal": 600, "interest": 0, "remaining_balance": 0}
		]
	}`, w.Body.String())

	tests := []struct {
		name string
		body string
	}{
		{"negative rate", `{"amount": 1000, "term_months": 12, "interest_rate": -1}`},
		{"zero amount", `{"amount": 0, "term_months": 12, "interest_rate": 5}`},
		{"term above ceiling", `{"amount": 1000, "term_months": 601, "interest_rate": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, "/credit/simulate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreditPassThrough(t *testing.T) {
	client, call := newBureau(t, http.StatusOK, `{"max_amount": 50000}`)
	h := newCreditRouter(t, client)

	w := do(h, http.MethodGet, "/credit/clients/c42/pre-approved-loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"max_amount": 50000}`, w.Body.String())
	assert.Equal(t, "/clients/c42/pre-approved-loans", call.Path)

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/credit/clients/c42", "").Code)
	assert.Equal(t, "/clients/c42", call.Path)

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/credit/applications/APP-7", "").Code)
	assert.Equal(t, "/credit-applications/APP-7", call.Path)

	w = do(h, http.MethodPost, "/credit/loan-options", `{"amount": 8000, "term_months": 12, "client_data": {"income": 9000}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/loan-calculator", call.Path)
	assert.Equal(t, map[string]any{"amount": 8000.0, "term_months": 12.0, "client_data": map[string]any{"income": 9000.0}}, call.Body)
}

func TestCreditLoanOptions_Validation(t *testing.T) {
	client, _ := newBureau(t, http.StatusOK, `{}`)
	h := newCreditRouter(t, client)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/credit/loan-options", `{"amount": 0, "term_months": 12}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/credit/loan-options", `{"amount": 10, "term_months": 0}`).Code)
}

func TestCreditBureauErrors(t *testing.T) {
	t.Run("client error keeps status", func(t *testing.T) {
		client, _ := newBureau(t, http.StatusNotFound, `{"error": "client_not_found", "message": "no such client"}`)
		w := do(newCreditRouter(t, client), http.MethodGet, "/credit/clients/nobody", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error": "client_not_found", "message": "no such client"}`, w.Body.String())
	})

	t.Run("server error is bad gateway", func(t *testing.T) {
		client, _ := newBureau(t, http.StatusInternalServerError, `boom`)
		w := do(newCreditRouter(t, client), http.MethodGet, "/credit/clients/c1", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("not configured", func(t *testing.T) {
		w := do(newCreditRouter(t, creditapi.NewClient(creditapi.Config{}, nil)), http.MethodGet, "/credit/applications/APP-1", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
