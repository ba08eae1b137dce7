package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-sales/domain"
)

func sampleRecord(i int, created time.Time) domain.QuoteRecord {
	return domain.QuoteRecord{
		ID:      fmt.Sprintf("rec-%d", i),
		Kind:    domain.QuoteKindQuote,
		Request: domain.LoanRequest{Principal: 1000 * float64(i+1), TermMonths: 12, AnnualRatePercent: 10},
		Quote: domain.LoanQuote{
			MonthlyPayment: 87.92,
			TotalPayment:   1055.0,
			TotalInterest:  55.0,
		},
		CreatedAt: created,
	}
}

func exerciseQuoteRepository(t *testing.T, repo QuoteRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, sampleRecord(i, base.Add(time.Duration(i)*time.Minute))))
	}

	sim := sampleRecord(3, base.Add(time.Hour))
	sim.Kind = domain.QuoteKindSimulation
	sim.Quote.Schedule = []domain.Installment{
		{Month: 1, Payment: 87.92, Principal: 79.59, Interest: 8.33, RemainingBalance: 920.41},
	}
	require.NoError(t, repo.Save(ctx, sim))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "rec-3", all[0].ID)
	assert.Equal(t, "rec-0", all[3].ID)
	assert.Equal(t, domain.QuoteKindSimulation, all[0].Kind)
	assert.Equal(t, sim.Quote.Schedule, all[0].Quote.Schedule)
	assert.True(t, sim.CreatedAt.Equal(all[0].CreatedAt))
	assert.Equal(t, 4000.0, all[0].Request.Principal)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "rec-2", limited[1].ID)
}

func TestQuoteRepositoryMemory(t *testing.T) {
	exerciseQuoteRepository(t, NewQuoteRepositoryMemory())
}

func TestQuoteRepositoryMemory_CanceledContext(t *testing.T) {
	repo := NewQuoteRepositoryMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Save(ctx, sampleRecord(0, time.Now())), context.Canceled)
}

func TestQuoteRepositoryMemory_ConcurrentSave(t *testing.T) {
	repo := NewQuoteRepositoryMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Save(context.Background(), sampleRecord(i, time.Now()))
		}(i)
	}
	wg.Wait()

	all, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestSQLiteQuoteRepository(t *testing.T) {
	repo, err := OpenSQLiteQuoteRepository(filepath.Join(t.TempDir(), "data", "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	exerciseQuoteRepository(t, repo)
}

func TestSQLiteQuoteRepository_InMemory(t *testing.T) {
	repo, err := OpenSQLiteQuoteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	exerciseQuoteRepository(t, repo)
}

func TestSQLiteQuoteRepository_DuplicateID(t *testing.T) {
	repo, err := OpenSQLiteQuoteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	rec := sampleRecord(0, time.Now())
	require.NoError(t, repo.Save(context.Background(), rec))
	assert.Error(t, repo.Save(context.Background(), rec))
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "forever", "a", 0))
	require.NoError(t, cache.Set(ctx, "short", "b", time.Minute))

	v, ok := cache.Get(ctx, "short")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	now = now.Add(time.Minute)
	_, ok = cache.Get(ctx, "short")
	assert.False(t, ok, "entry expires at its deadline")
	assert.Equal(t, 1, cache.Len())

	v, ok = cache.Get(ctx, "forever")
	require.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	cache := NewRedisCache("127.0.0.1:0", "", 0, "credit-sales:")
	t.Cleanup(func() { _ = cache.Close() })

	assert.Equal(t, "credit-sales:quote:abc", cache.key("quote:abc"))
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	cache := NewRedisCache("127.0.0.1:1", "", 0, "")
	t.Cleanup(func() { _ = cache.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, cache.Set(ctx, "k", "v", time.Minute))
}
