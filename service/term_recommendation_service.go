package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"credit-sales/calculator"
	"credit-sales/domain"
	"credit-sales/logging"
)

var ErrNoViableTerm = errors.New("no se encontraron plazos válidos con el pago mensual máximo especificado")

type TermRecommendationService struct {
	loanService *LoanService
	logger      *zap.Logger
}

func NewTermRecommendationService(loanService *LoanService, logger *zap.Logger) *TermRecommendationService {
	return &TermRecommendationService{
		loanService: loanService,
		logger:      logging.OrNop(logger),
	}
}

// RecommendTerm analiza diferentes plazos y recomienda el óptimo
func (s *TermRecommendationService) RecommendTerm(
	ctx context.Context,
	input domain.TermRecommendationInput,
) (domain.TermRecommendationResult, error) {
	if err := validateTermInput(input); err != nil {
		return domain.TermRecommendationResult{}, err
	}

	recommendations := []domain.TermRecommendation{}

	// Calcular escenarios para cada plazo
	for term := input.MinTermMonths; term <= input.MaxTermMonths; term++ {
		if err := ctx.Err(); err != nil {
			return domain.TermRecommendationResult{}, err
		}

		quote, err := s.loanService.Estimate(ctx, domain.LoanRequest{
			Principal:         input.Amount,
			TermMonths:        term,
			AnnualRatePercent: input.AnnualRatePercent,
		})
		if err != nil {
			s.logger.Warn("failed to calculate loan for term", zap.Int("term", term), zap.Error(err))
			continue
		}

		// Filtrar por pago mensual máximo
		if quote.MonthlyPayment > input.MaxMonthlyPayment {
			continue
		}

		recommendations = append(recommendations, domain.TermRecommendation{
			TermMonths:     term,
			MonthlyPayment: quote.MonthlyPayment,
			TotalInterest:  quote.TotalInterest,
			Score:          calculateScore(quote, input, term),
			Reason:         generateReason(input.Preference),
		})
	}

	if len(recommendations) == 0 {
		return domain.TermRecommendationResult{}, ErrNoViableTerm
	}

	// Ordenar por score descendente; a igual score, el plazo más corto
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].TermMonths < recommendations[j].TermMonths
	})

	top := &recommendations[0]
	top.Reason = explainRecommendation(*top, input.Preference)

	s.logger.Debug("term recommended",
		zap.Int("term", top.TermMonths),
		zap.Int("candidates", len(recommendations)),
		zap.String("preference", string(input.Preference)))

	return domain.TermRecommendationResult{
		RecommendedTerm: top.TermMonths,
		Recommendations: recommendations,
	}, nil
}

func validateTermInput(input domain.TermRecommendationInput) error {
	if !(input.Amount > 0) || math.IsInf(input.Amount, 1) {
		return &domain.FieldError{Field: "amount", Reason: "debe ser un número mayor que cero", Err: domain.ErrInvalidAmount}
	}
	if input.Amount > MaxLoanAmount {
		return &domain.FieldError{Field: "amount", Reason: fmt.Sprintf("excede el máximo permitido de $%.2f", MaxLoanAmount), Err: domain.ErrInvalidAmount}
	}
	if !(input.AnnualRatePercent > 0) || math.IsInf(input.AnnualRatePercent, 1) {
		return &domain.FieldError{Field: "annual_rate_percent", Reason: "debe ser un número mayor que cero", Err: domain.ErrInvalidRate}
	}
	if input.AnnualRatePercent > MaxInterestRate {
		return &domain.FieldError{Field: "annual_rate_percent", Reason: fmt.Sprintf("excede el máximo permitido de %.2f%%", MaxInterestRate), Err: domain.ErrInvalidRate}
	}
	if input.MinTermMonths < MinTermMonths || input.MaxTermMonths < MinTermMonths {
		return &domain.FieldError{Field: "min_term_months", Reason: "los plazos deben ser mayores que cero", Err: domain.ErrInvalidTerm}
	}
	if input.MinTermMonths > input.MaxTermMonths {
		return &domain.FieldError{Field: "min_term_months", Reason: "es mayor que max_term_months", Err: domain.ErrInvalidTerm}
	}
	if input.MaxTermMonths > MaxTermMonths {
		return &domain.FieldError{Field: "max_term_months", Reason: fmt.Sprintf("excede el límite de %d meses", MaxTermMonths), Err: domain.ErrInvalidTerm}
	}
	// Validar que el rango no sea demasiado grande para evitar cálculos costosos
	if input.MaxTermMonths-input.MinTermMonths > MaxTermRangeMonths {
		return &domain.FieldError{Field: "max_term_months", Reason: fmt.Sprintf("el rango de plazos excede el máximo de %d meses", MaxTermRangeMonths), Err: domain.ErrInvalidTerm}
	}
	if !(input.MaxMonthlyPayment > 0) {
		return &domain.FieldError{Field: "max_monthly_payment", Reason: "debe ser mayor que cero", Err: domain.ErrInvalidAmount}
	}
	switch input.Preference {
	case domain.PreferMinimizeInterest, domain.PreferMinimizePayment, domain.PreferBalanced:
	default:
		return &domain.FieldError{Field: "preference", Reason: fmt.Sprintf("valor desconocido %q", input.Preference), Err: domain.ErrMalformedInput}
	}
	return nil
}

// calculateScore normaliza interés, cuota y plazo a 0-10 y los pondera según
// la preferencia.
func calculateScore(
	quote domain.LoanQuote,
	input domain.TermRecommendationInput,
	term int,
) float64 {
	rate := input.AnnualRatePercent / 100
	maxPossibleInterest := input.Amount * rate * float64(input.MaxTermMonths) / 12
	minPossibleInterest := input.Amount * rate * float64(input.MinTermMonths) / 12
	interestRange := maxPossibleInterest - minPossibleInterest

	minPayment := input.Amount / float64(input.MaxTermMonths)
	paymentRange := input.MaxMonthlyPayment - minPayment

	var interestScore, paymentScore float64
	termScore := 10.0

	if interestRange > 0 {
		interestScore = 10.0 * (1.0 - (quote.TotalInterest-minPossibleInterest)/interestRange)
	}
	if paymentRange > 0 {
		paymentScore = 10.0 * (1.0 - (quote.MonthlyPayment-minPayment)/paymentRange)
	}
	if termRange := input.MaxTermMonths - input.MinTermMonths; termRange > 0 {
		termScore = 10.0 * (1.0 - float64(term-input.MinTermMonths)/float64(termRange))
	}

	var score float64
	switch input.Preference {
	case domain.PreferMinimizeInterest:
		score = 0.6*interestScore + 0.2*paymentScore + 0.2*termScore
	case domain.PreferMinimizePayment:
		score = 0.2*interestScore + 0.6*paymentScore + 0.2*termScore
	case domain.PreferBalanced:
		score = 0.4*interestScore + 0.4*paymentScore + 0.2*termScore
	}

	return calculator.Round2(score)
}

func generateReason(preference domain.TermPreference) string {
	switch preference {
	case domain.PreferMinimizeInterest:
		return "Plazo optimizado para minimizar el costo total de intereses"
	case domain.PreferMinimizePayment:
		return "Plazo optimizado para minimizar el pago mensual"
	case domain.PreferBalanced:
		return "Balance óptimo entre pago mensual y costo total"
	}
	return "Recomendación basada en los parámetros proporcionados"
}

func explainRecommendation(rec domain.TermRecommendation, preference domain.TermPreference) string {
	switch preference {
	case domain.PreferMinimizeInterest:
		return fmt.Sprintf("Este plazo de %d meses minimiza el costo total de intereses ($%.2f), con un pago mensual de $%.2f.",
			rec.TermMonths, rec.TotalInterest, rec.MonthlyPayment)
	case domain.PreferMinimizePayment:
		return fmt.Sprintf("Este plazo de %d meses reduce tu pago mensual a $%.2f, dejando más flexibilidad en tu presupuesto.",
			rec.TermMonths, rec.MonthlyPayment)
	default:
		return fmt.Sprintf("Este plazo de %d meses ofrece un balance entre pago mensual ($%.2f) y costo total de intereses ($%.2f).",
			rec.TermMonths, rec.MonthlyPayment, rec.TotalInterest)
	}
}
