package domain

import "time"

// LoanRequest holds the inputs of a fixed-payment loan calculation.
type LoanRequest struct {
	Principal         float64 `json:"principal"`
	TermMonths        int     `json:"term_months"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
}

// LoanQuote is the result of a calculation. Amounts are rounded to cents.
type LoanQuote struct {
	MonthlyPayment float64       `json:"monthly_payment"`
	TotalPayment   float64       `json:"total_payment"`
	TotalInterest  float64       `json:"total_interest"`
	Schedule       []Installment `json:"amortization_schedule,omitempty"`
}

// Installment is one month of an amortization schedule.
type Installment struct {
	Month            int     `json:"month"`
	Payment          float64 `json:"payment"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// LoanSimulation pairs a quote with the first months of its schedule.
type LoanSimulation struct {
	Request  LoanRequest   `json:"request"`
	Quote    LoanQuote     `json:"quote"`
	Schedule []Installment `json:"amortization_schedule"`
}

type QuoteKind string

const (
	QuoteKindQuote      QuoteKind = "quote"
	QuoteKindSimulation QuoteKind = "simulation"
)

// QuoteRecord is a stored calculation, used for reporting.
type QuoteRecord struct {
	ID        string      `json:"id"`
	Kind      QuoteKind   `json:"kind"`
	Request   LoanRequest `json:"request"`
	Quote     LoanQuote   `json:"quote"`
	CreatedAt time.Time   `json:"created_at"`
}
