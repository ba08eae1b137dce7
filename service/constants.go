package service

import "time"

const (
	MaxLoanAmount   = 1_000_000_000.0 // 1 billón
	MaxInterestRate = 1000.0          // 1000% anual
	MaxTermMonths   = 600             // 50 años
	MinTermMonths   = 1

	// Límites de términos para recomendación
	MaxTermRangeMonths = 120 // máximo rango de términos a evaluar (10 años)

	DefaultQuoteCacheTTL = 24 * time.Hour
	DefaultReportLimit   = 50
	MaxReportLimit       = 500
)
