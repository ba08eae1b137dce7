package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"credit-sales/domain"
	"credit-sales/logging"
)

// loanToolResult is the JSON answer of calculate_loan.
type loanToolResult struct {
	LoanAmount         float64 `json:"loan_amount"`
	TermMonths         int     `json:"term_months"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	TotalPayment       float64 `json:"total_payment"`
	TotalInterest      float64 `json:"total_interest"`
}

// toolFieldNames maps the calculator's field names to the tool's keys.
var toolFieldNames = map[string]string{
	"principal":           "amount",
	"term_months":         "term",
	"annual_rate_percent": "rate",
}

// CalculateLoanTool quotes a loan from {"amount", "term", "rate"}. Rates must
// be positive.
func CalculateLoanTool(calc LoanCalculator, logger *zap.Logger) Tool {
	logger = logging.OrNop(logger)
	return Tool{
		Name:        ToolCalculateLoan,
		Description: "Calcula las cuotas y el costo total de un préstamo",
		Run: func(ctx context.Context, input string) string {
			req, msg := parseLoanParams(input)
			if msg != "" {
				return msg
			}

			quote, err := calc.CalculateLoan(ctx, req)
			if err != nil {
				if m := validationMessage(err); m != "" {
					return m
				}
				logger.Error("calculate_loan failed", zap.Error(err))
				return "Error al calcular el préstamo. Por favor, verifica los datos e inténtalo de nuevo."
			}

			out, err := json.Marshal(loanToolResult{
				LoanAmount:         req.Principal,
				TermMonths:         req.TermMonths,
				AnnualInterestRate: req.AnnualRatePercent,
				MonthlyPayment:     quote.MonthlyPayment,
				TotalPayment:       quote.TotalPayment,
				TotalInterest:      quote.TotalInterest,
			})
			if err != nil {
				logger.Error("encoding calculate_loan result", zap.Error(err))
				return "Error al calcular el préstamo. Por favor, verifica los datos e inténtalo de nuevo."
			}
			return string(out)
		},
	}
}

func parseLoanParams(input string) (domain.LoanRequest, string) {
	data, msg := decodeObject(input, []string{"amount", "term", "rate"})
	if msg != "" {
		return domain.LoanRequest{}, msg
	}

	amount, err := parseNumber(data["amount"])
	if err != nil {
		return domain.LoanRequest{}, malformedField("amount", err)
	}
	term, err := parseInteger(data["term"])
	if err != nil {
		return domain.LoanRequest{}, malformedField("term", err)
	}
	rate, err := parseNumber(data["rate"])
	if err != nil {
		return domain.LoanRequest{}, malformedField("rate", err)
	}

	return domain.LoanRequest{
		Principal:         amount,
		TermMonths:        term,
		AnnualRatePercent: rate,
	}, ""
}

// parseNumber accepts a JSON number or a numeric string.
func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: se esperaba un número", domain.ErrMalformedInput)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q no es un número", domain.ErrMalformedInput, s)
	}
	return f, nil
}

// parseInteger accepts whole numbers only; 24.0 is fine, 24.5 is not.
func parseInteger(raw json.RawMessage) (int, error) {
	f, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: se esperaba un número entero de meses", domain.ErrMalformedInput)
	}
	return int(f), nil
}

func malformedField(field string, err error) string {
	reason := strings.TrimPrefix(err.Error(), domain.ErrMalformedInput.Error()+": ")
	return fmt.Sprintf("Error: El campo '%s' no tiene un formato válido: %s.", field, reason)
}

// validationMessage renders a validation error naming the tool's field. It
// returns "" for anything that is not a validation error.
func validationMessage(err error) string {
	var fieldErr *domain.FieldError
	if !errors.As(err, &fieldErr) || !domain.IsValidationError(err) {
		return ""
	}
	field, ok := toolFieldNames[fieldErr.Field]
	if !ok {
		field = fieldErr.Field
	}
	return fmt.Sprintf("Error: El campo '%s' no es válido: %s.", field, fieldErr.Reason)
}
