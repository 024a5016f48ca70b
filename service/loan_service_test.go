package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendtrack/domain"
	"lendtrack/repository"
)

type spyCache struct {
	data     map[string]string
	gets     int
	sets     int
	forceErr bool
}

func newSpyCache() *spyCache {
	return &spyCache{data: make(map[string]string)}
}

func (c *spyCache) Get(_ context.Context, key string) (string, bool) {
	c.gets++
	v, ok := c.data[key]
	return v, ok
}

func (c *spyCache) Set(_ context.Context, key string, value string) error {
	c.sets++
	if c.forceErr {
		return errors.New("cache unavailable")
	}
	c.data[key] = value
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalculateSchedule_CachesResult(t *testing.T) {
	cache := newSpyCache()
	service := NewLoanService(cache, discardLogger())
	ctx := context.Background()

	input := domain.LoanInput{Principal: 10_000, AnnualRatePercent: 12, Term: 24}

	first, err := service.CalculateSchedule(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := service.CalculateSchedule(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func TestCalculateSchedule_CacheFailureIsNotFatal(t *testing.T) {
	cache := newSpyCache()
	cache.forceErr = true
	service := NewLoanService(cache, discardLogger())

	schedule, err := service.CalculateSchedule(context.Background(), domain.LoanInput{
		Principal: 1200, AnnualRatePercent: 0, Term: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, schedule.Payment)
}

func TestCalculateSchedule_CorruptCacheEntryIsRecomputed(t *testing.T) {
	cache := newSpyCache()
	service := NewLoanService(cache, discardLogger())
	terms := domain.LoanTerms{Principal: 1200, AnnualRatePercent: 0, TermMonths: 12}
	cache.data[scheduleKey(terms)] = "{not json"

	schedule, err := service.CalculateSchedule(context.Background(), domain.LoanInput{
		Principal: 1200, AnnualRatePercent: 0, Term: 12,
	})
	require.NoError(t, err)
	assert.Len(t, schedule.Entries, 12)
	assert.Equal(t, 1, cache.sets)
}

func TestCalculateSchedule_TermUnits(t *testing.T) {
	service := NewLoanService(repository.NewMemoryCache(100, 0), discardLogger())
	ctx := context.Background()

	years, err := service.CalculateSchedule(ctx, domain.LoanInput{
		Principal: 50_000, AnnualRatePercent: 5, Term: 2, Unit: domain.TermUnitYears,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, years.Terms.TermMonths)
	assert.Len(t, years.Entries, 24)

	months, err := service.CalculateSchedule(ctx, domain.LoanInput{
		Principal: 50_000, AnnualRatePercent: 5, Term: 24, Unit: domain.TermUnitMonths,
	})
	require.NoError(t, err)
	assert.Equal(t, years, months)

	_, err = service.CalculateSchedule(ctx, domain.LoanInput{
		Principal: 50_000, AnnualRatePercent: 5, Term: 2, Unit: "weeks",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCalculateSchedule_Limits(t *testing.T) {
	service := NewLoanService(nil, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		input domain.LoanInput
		field string
	}{
		{"principal too large", domain.LoanInput{Principal: MaxLoanAmount + 1, AnnualRatePercent: 5, Term: 12}, "principal"},
		{"rate too large", domain.LoanInput{Principal: 1000, AnnualRatePercent: MaxInterestRate + 1, Term: 12}, "annual_rate_percent"},
		{"term too long", domain.LoanInput{Principal: 1000, AnnualRatePercent: 5, Term: MaxTermMonths + 1}, "term_months"},
		{"years too long", domain.LoanInput{Principal: 1000, AnnualRatePercent: 5, Term: 51, Unit: domain.TermUnitYears}, "term"},
		{"zero principal", domain.LoanInput{Principal: 0, AnnualRatePercent: 5, Term: 12}, "principal"},
		{"zero term", domain.LoanInput{Principal: 1000, AnnualRatePercent: 5, Term: 0}, "term_months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CalculateSchedule(ctx, tt.input)
			require.Error(t, err)

			var argErr *domain.ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.field, argErr.Field)
		})
	}
}

func TestMaxPrincipal(t *testing.T) {
	service := NewLoanService(repository.NewMemoryCache(100, 0), discardLogger())

	result, err := service.MaxPrincipal(context.Background(), domain.MaxPrincipalInput{
		TargetPayment: 1000, AnnualRatePercent: 8.5, Term: 1, Unit: domain.TermUnitYears,
	})
	require.NoError(t, err)
	assert.InDelta(t, 11465.29, result.Principal, 0.005)
	assert.InDelta(t, 1000.0, result.Schedule.Payment, 1e-6)
	assert.Len(t, result.Schedule.Entries, 12)

	_, err = service.MaxPrincipal(context.Background(), domain.MaxPrincipalInput{
		TargetPayment: -1, AnnualRatePercent: 8.5, Term: 12,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRequiredTenure(t *testing.T) {
	service := NewLoanService(repository.NewMemoryCache(100, 0), discardLogger())
	ctx := context.Background()

	result, err := service.RequiredTenure(ctx, domain.TenureInput{
		Principal: 10_000, TargetPayment: 1000, AnnualRatePercent: 8.5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.4085, result.Tenure, 1e-4)
	assert.Equal(t, 11, result.TermMonths)
	assert.Len(t, result.Schedule.Entries, 11)
	assert.LessOrEqual(t, result.Schedule.Payment, 1000.0)

	_, err = service.RequiredTenure(ctx, domain.TenureInput{
		Principal: 10_000, TargetPayment: 50, AnnualRatePercent: 8.5,
	})
	assert.ErrorIs(t, err, domain.ErrUnamortizableLoan)

	_, err = service.RequiredTenure(ctx, domain.TenureInput{
		Principal: 1_000_000, TargetPayment: 1, AnnualRatePercent: 0,
	})
	var argErr *domain.ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "target_payment", argErr.Field)
}
