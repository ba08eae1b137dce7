package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"credit-sales/calculator"
	"credit-sales/domain"
	"credit-sales/logging"
	"credit-sales/repository"
)

type LoanService struct {
	repo     repository.QuoteRepository
	cache    repository.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

type LoanServiceOption func(*LoanService)

func WithLogger(logger *zap.Logger) LoanServiceOption {
	return func(s *LoanService) { s.logger = logging.OrNop(logger) }
}

func WithCacheTTL(ttl time.Duration) LoanServiceOption {
	return func(s *LoanService) { s.cacheTTL = ttl }
}

// NewLoanService creates a new LoanService. repo and cache may be nil, in
// which case calculations are neither recorded nor cached.
func NewLoanService(repo repository.QuoteRepository,
	cache repository.CacheRepository,
	opts ...LoanServiceOption,
) *LoanService {
	s := &LoanService{
		repo:     repo,
		cache:    cache,
		cacheTTL: DefaultQuoteCacheTTL,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateLoan quotes the loan with the strict rules (rate must be
// positive) and records the calculation.
func (s *LoanService) CalculateLoan(
	ctx context.Context,
	req domain.LoanRequest,
) (domain.LoanQuote, error) {
	quote, err := s.Estimate(ctx, req)
	if err != nil {
		return domain.LoanQuote{}, err
	}
	s.record(ctx, domain.QuoteKindQuote, req, quote)
	return quote, nil
}

// Estimate is CalculateLoan without recording, for callers that evaluate
// many candidate loans.
func (s *LoanService) Estimate(
	ctx context.Context,
	req domain.LoanRequest,
) (domain.LoanQuote, error) {
	// Validar entrada
	if err := calculator.ValidateQuoteRequest(req); err != nil {
		return domain.LoanQuote{}, err
	}
	if err := CheckCeilings(req); err != nil {
		return domain.LoanQuote{}, err
	}

	key := quoteCacheKey(req)
	if cached, ok := s.cachedQuote(ctx, key); ok {
		s.logger.Debug("quote cache hit", zap.String("key", key))
		return cached, nil
	}

	quote, err := calculator.Quote(req)
	if err != nil {
		return domain.LoanQuote{}, err
	}
	s.storeQuote(ctx, key, quote)
	return quote, nil
}

// SimulateLoan returns the quote and the first entries months of the
// schedule. A zero rate is accepted.
func (s *LoanService) SimulateLoan(
	ctx context.Context,
	req domain.LoanRequest,
	entries int,
) (domain.LoanSimulation, error) {
	if err := calculator.ValidateScheduleRequest(req); err != nil {
		return domain.LoanSimulation{}, err
	}
	if err := CheckCeilings(req); err != nil {
		return domain.LoanSimulation{}, err
	}

	sim, err := calculator.Simulate(req, entries)
	if err != nil {
		return domain.LoanSimulation{}, err
	}

	recorded := sim.Quote
	recorded.Schedule = sim.Schedule
	s.record(ctx, domain.QuoteKindSimulation, req, recorded)
	return sim, nil
}

// RecentQuotes returns stored calculations, newest first.
func (s *LoanService) RecentQuotes(ctx context.Context, limit int) ([]domain.QuoteRecord, error) {
	if s.repo == nil {
		return []domain.QuoteRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	if limit > MaxReportLimit {
		limit = MaxReportLimit
	}
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	if records == nil {
		records = []domain.QuoteRecord{}
	}
	return records, nil
}

// CheckCeilings rejects requests above the service limits on amount, term and
// rate. NaN and other malformed values are left to the calculator.
func CheckCeilings(req domain.LoanRequest) error {
	if req.Principal > MaxLoanAmount {
		return &domain.FieldError{
			Field:  "principal",
			Reason: fmt.Sprintf("excede el máximo permitido de $%.2f", MaxLoanAmount),
			Err:    domain.ErrInvalidAmount,
		}
	}
	if req.TermMonths > MaxTermMonths {
		return &domain.FieldError{
			Field:  "term_months",
			Reason: fmt.Sprintf("excede el máximo permitido de %d meses", MaxTermMonths),
			Err:    domain.ErrInvalidTerm,
		}
	}
	if req.AnnualRatePercent > MaxInterestRate {
		return &domain.FieldError{
			Field:  "annual_rate_percent",
			Reason: fmt.Sprintf("excede el máximo permitido de %.2f%%", MaxInterestRate),
			Err:    domain.ErrInvalidRate,
		}
	}
	return nil
}

func quoteCacheKey(req domain.LoanRequest) string {
	raw := strconv.FormatFloat(req.Principal, 'g', -1, 64) + "|" +
		strconv.Itoa(req.TermMonths) + "|" +
		strconv.FormatFloat(req.AnnualRatePercent, 'g', -1, 64)
	return "quote:" + strconv.FormatUint(xxhash.Sum64String(raw), 16)
}

func (s *LoanService) cachedQuote(ctx context.Context, key string) (domain.LoanQuote, bool) {
	if s.cache == nil {
		return domain.LoanQuote{}, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return domain.LoanQuote{}, false
	}
	var quote domain.LoanQuote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		s.logger.Warn("discarding unreadable cached quote", zap.String("key", key), zap.Error(err))
		return domain.LoanQuote{}, false
	}
	return quote, true
}

// storeQuote and record are best effort: a failing cache or repository
// never fails the calculation.
func (s *LoanService) storeQuote(ctx context.Context, key string, quote domain.LoanQuote) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(quote)
	if err != nil {
		s.logger.Warn("failed to encode quote for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache quote", zap.String("key", key), zap.Error(err))
	}
}

func (s *LoanService) record(ctx context.Context, kind domain.QuoteKind, req domain.LoanRequest, quote domain.LoanQuote) {
	if s.repo == nil {
		return
	}
	rec := domain.QuoteRecord{
		ID:        s.newID(),
		Kind:      kind,
		Request:   req,
		Quote:     quote,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to save loan calculation",
			zap.String("id", rec.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}
