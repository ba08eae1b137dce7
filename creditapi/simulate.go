package creditapi

import (
	"credit-sales/calculator"
	"credit-sales/domain"
)

// LoanDetails summarizes a simulated loan.
type LoanDetails struct {
	Amount         float64 `json:"amount"`
	TermMonths     int     `json:"term_months"`
	InterestRate   float64 `json:"interest_rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPayment   float64 `json:"total_payment"`
	TotalInterest  float64 `json:"total_interest"`
}

type Simulation struct {
	LoanDetails       LoanDetails          `json:"loan_details"`
	AmortizationTable []domain.Installment `json:"amortization_table"`
}

// SimulateLoanPayment computes the loan locally, without calling the API.
// interestRate is the nominal annual percentage and may be 0. The table holds
// the first twelve months.
func (c *Client) SimulateLoanPayment(amount float64, termMonths int, interestRate float64) (Simulation, error) {
	sim, err := calculator.Simulate(domain.LoanRequest{
		Principal:         amount,
		TermMonths:        termMonths,
		AnnualRatePercent: interestRate,
	}, calculator.DefaultScheduleEntries)
	if err != nil {
		return Simulation{}, err
	}

	return Simulation{
		LoanDetails: LoanDetails{
			Amount:         amount,
			TermMonths:     termMonths,
			InterestRate:   interestRate,
			MonthlyPayment: sim.Quote.MonthlyPayment,
			TotalPayment:   sim.Quote.TotalPayment,
			TotalInterest:  sim.Quote.TotalInterest,
		},
		AmortizationTable: sim.Schedule,
	}, nil
}
