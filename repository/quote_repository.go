package repository

import (
	"context"

	"credit-sales/domain"
)

// QuoteRepository stores calculated quotes for reporting.
type QuoteRepository interface {
	Save(ctx context.Context, record domain.QuoteRecord) error
	// List returns the most recent records first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]domain.QuoteRecord, error)
}
