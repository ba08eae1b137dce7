package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-sales/domain"
)

func baseTermInput(pref domain.TermPreference) domain.TermRecommendationInput {
	return domain.TermRecommendationInput{
		Amount:            10000,
		AnnualRatePercent: 12,
		MinTermMonths:     12,
		MaxTermMonths:     24,
		MaxMonthlyPayment: 700,
		Preference:        pref,
	}
}

func TestRecommendTerm_MinimizeInterest(t *testing.T) {
	mockRepo := &MockQuoteRepository{}
	svc := NewTermRecommendationService(newTestService(mockRepo, nil), nil)

	result, err := svc.RecommendTerm(context.Background(), baseTermInput(domain.PreferMinimizeInterest))
	require.NoError(t, err)

	assert.Equal(t, 16, result.RecommendedTerm)
	require.Len(t, result.Recommendations, 9, "terms 12-15 exceed the payment cap")
	top := result.Recommendations[0]
	assert.Equal(t, 679.45, top.MonthlyPayment)
	assert.Equal(t, 871.14, top.TotalInterest)
	assert.Contains(t, top.Reason, "16 meses")
	assert.Equal(t, "Plazo optimizado para minimizar el costo total de intereses", result.Recommendations[1].Reason)

	for _, rec := range result.Recommendations {
		assert.LessOrEqual(t, rec.MonthlyPayment, 700.0)
	}
	assert.Empty(t, mockRepo.Saved, "candidate terms are not recorded")
}

func TestRecommendTerm_MinimizePayment(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)

	result, err := svc.RecommendTerm(context.Background(), baseTermInput(domain.PreferMinimizePayment))
	require.NoError(t, err)

	assert.Equal(t, 24, result.RecommendedTerm)
	assert.Equal(t, 470.73, result.Recommendations[0].MonthlyPayment)
}

func TestRecommendTerm_SortedByScore(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)

	result, err := svc.RecommendTerm(context.Background(), baseTermInput(domain.PreferBalanced))
	require.NoError(t, err)

	for i := 1; i < len(result.Recommendations); i++ {
		assert.GreaterOrEqual(t, result.Recommendations[i-1].Score, result.Recommendations[i].Score)
	}
	assert.Equal(t, result.Recommendations[0].TermMonths, result.RecommendedTerm)
}

func TestRecommendTerm_SingleTerm(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)
	in := baseTermInput(domain.PreferBalanced)
	in.MinTermMonths, in.MaxTermMonths = 24, 24

	result, err := svc.RecommendTerm(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, 24, result.RecommendedTerm)
}

func TestRecommendTerm_NoViableTerm(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)
	in := baseTermInput(domain.PreferBalanced)
	in.MaxMonthlyPayment = 100

	_, err := svc.RecommendTerm(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoViableTerm)
}

func TestRecommendTerm_Validation(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)

	tests := []struct {
		name   string
		mutate func(*domain.TermRecommendationInput)
		want   error
	}{
		{"amount", func(in *domain.TermRecommendationInput) { in.Amount = 0 }, domain.ErrInvalidAmount},
		{"infinite amount", func(in *domain.TermRecommendationInput) { in.Amount = math.Inf(1) }, domain.ErrInvalidAmount},
		{"amount above ceiling", func(in *domain.TermRecommendationInput) { in.Amount = 2e9 }, domain.ErrInvalidAmount},
		{"rate", func(in *domain.TermRecommendationInput) { in.AnnualRatePercent = 0 }, domain.ErrInvalidRate},
		{"infinite rate", func(in *domain.TermRecommendationInput) { in.AnnualRatePercent = math.Inf(1) }, domain.ErrInvalidRate},
		{"rate above ceiling", func(in *domain.TermRecommendationInput) { in.AnnualRatePercent = 1500 }, domain.ErrInvalidRate},
		{"min term", func(in *domain.TermRecommendationInput) { in.MinTermMonths = 0 }, domain.ErrInvalidTerm},
		{"inverted range", func(in *domain.TermRecommendationInput) { in.MinTermMonths = 30 }, domain.ErrInvalidTerm},
		{"max term", func(in *domain.TermRecommendationInput) { in.MinTermMonths, in.MaxTermMonths = 590, 601 }, domain.ErrInvalidTerm},
		{"range too wide", func(in *domain.TermRecommendationInput) { in.MinTermMonths, in.MaxTermMonths = 1, 200 }, domain.ErrInvalidTerm},
		{"payment cap", func(in *domain.TermRecommendationInput) { in.MaxMonthlyPayment = -5 }, domain.ErrInvalidAmount},
		{"preference", func(in *domain.TermRecommendationInput) { in.Preference = "cheapest" }, domain.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseTermInput(domain.PreferBalanced)
			tt.mutate(&in)
			_, err := svc.RecommendTerm(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrNoViableTerm)
		})
	}
}

func TestRecommendTerm_CanceledContext(t *testing.T) {
	svc := NewTermRecommendationService(newTestService(nil, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RecommendTerm(ctx, baseTermInput(domain.PreferBalanced))
	assert.ErrorIs(t, err, context.Canceled)
}
