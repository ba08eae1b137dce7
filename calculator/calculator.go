// Package calculator computes fixed-payment (annuity) loan quotes and
// amortization schedules. Every function here is pure and safe to call
// concurrently.
package calculator

import (
	"math"

	"credit-sales/domain"
)

// DefaultScheduleEntries is the number of installments materialized when the
// caller does not ask for a specific length.
const DefaultScheduleEntries = 12

// Round2 rounds to cents, half away from zero. Negative zero is reported as 0.
func Round2(value float64) float64 {
	rounded := math.Round(value*100) / 100
	if rounded == 0 {
		return 0
	}
	return rounded
}

// MonthlyRate converts a nominal annual percentage into a monthly decimal rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12 / 100
}

// Quote is the strict entry point: amount, term and rate must all be
// positive.
func Quote(req domain.LoanRequest) (domain.LoanQuote, error) {
	if err := ValidateQuoteRequest(req); err != nil {
		return domain.LoanQuote{}, err
	}
	return quote(req), nil
}

// BuildSchedule returns the first maxEntries installments of the loan. A zero
// rate is accepted and amortizes in a straight line. maxEntries <= 0 means
// DefaultScheduleEntries.
func BuildSchedule(req domain.LoanRequest, maxEntries int) ([]domain.Installment, error) {
	if err := ValidateScheduleRequest(req); err != nil {
		return nil, err
	}
	schedule, _ := amortize(req, maxEntries)
	return schedule, nil
}

// Simulate returns the quote together with the truncated schedule, accepting
// a zero rate like BuildSchedule.
func Simulate(req domain.LoanRequest, maxEntries int) (domain.LoanSimulation, error) {
	if err := ValidateScheduleRequest(req); err != nil {
		return domain.LoanSimulation{}, err
	}
	schedule, _ := amortize(req, maxEntries)
	return domain.LoanSimulation{
		Request:  req,
		Quote:    quote(req),
		Schedule: schedule,
	}, nil
}

// ValidateQuoteRequest applies the checks of Quote without computing.
func ValidateQuoteRequest(req domain.LoanRequest) error {
	return validate(req, false)
}

// ValidateScheduleRequest applies the checks of BuildSchedule and Simulate.
func ValidateScheduleRequest(req domain.LoanRequest) error {
	return validate(req, true)
}

func validate(req domain.LoanRequest, allowZeroRate bool) error {
	if !(req.Principal > 0) || math.IsInf(req.Principal, 1) {
		return &domain.FieldError{Field: "principal", Reason: "debe ser un número mayor que cero", Err: domain.ErrInvalidAmount}
	}
	if req.TermMonths <= 0 {
		return &domain.FieldError{Field: "term_months", Reason: "debe ser mayor que cero", Err: domain.ErrInvalidTerm}
	}
	rate := req.AnnualRatePercent
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return &domain.FieldError{Field: "annual_rate_percent", Reason: "debe ser un número finito", Err: domain.ErrInvalidRate}
	}
	if allowZeroRate {
		if rate < 0 {
			return &domain.FieldError{Field: "annual_rate_percent", Reason: "no puede ser negativa", Err: domain.ErrInvalidRate}
		}
		return nil
	}
	if rate <= 0 {
		return &domain.FieldError{Field: "annual_rate_percent", Reason: "debe ser mayor que cero", Err: domain.ErrInvalidRate}
	}
	return nil
}

// negligibleGrowth is the n*rate below which the annuity is indistinguishable
// from straight-line amortization at cent precision.
const negligibleGrowth = 1e-12

// monthlyPayment is the unrounded fixed installment.
func monthlyPayment(principal float64, months int, rate float64) float64 {
	n := float64(months)
	if rate == 0 || n*rate < negligibleGrowth {
		return principal / n
	}
	// (1+r)^n - 1 without cancellation when 1+r is a few ulps above 1
	growthMinusOne := math.Expm1(n * math.Log1p(rate))
	switch {
	case growthMinusOne == 0:
		return principal / n
	case math.IsInf(growthMinusOne, 1):
		return principal * rate
	}
	return principal * rate * (1 + growthMinusOne) / growthMinusOne
}

func quote(req domain.LoanRequest) domain.LoanQuote {
	payment := monthlyPayment(req.Principal, req.TermMonths, MonthlyRate(req.AnnualRatePercent))
	total := payment * float64(req.TermMonths)

	return domain.LoanQuote{
		MonthlyPayment: Round2(payment),
		TotalPayment:   Round2(total),
		TotalInterest:  Round2(total - req.Principal),
	}
}

// amortize runs the schedule through every month and returns the reported
// prefix plus the unrounded balance left after the final payment. Rounding
// never feeds back into the running balance.
func amortize(req domain.LoanRequest, maxEntries int) ([]domain.Installment, float64) {
	if maxEntries <= 0 {
		maxEntries = DefaultScheduleEntries
	}
	rate := MonthlyRate(req.AnnualRatePercent)
	payment := monthlyPayment(req.Principal, req.TermMonths, rate)

	schedule := make([]domain.Installment, 0, min(maxEntries, req.TermMonths))
	balance := req.Principal
	for month := 1; month <= req.TermMonths; month++ {
		interest := balance * rate
		principal := payment - interest
		balance -= principal

		if month <= maxEntries {
			schedule = append(schedule, domain.Installment{
				Month:            month,
				Payment:          Round2(payment),
				Principal:        Round2(principal),
				Interest:         Round2(interest),
				RemainingBalance: Round2(math.Max(0, balance)),
			})
		}
	}
	return schedule, balance
}
