package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"lendtrack/domain"
	"lendtrack/repository"
)

// LoanService applies API limits and caching on top of the amortization
// engine.
type LoanService struct {
	cache  repository.CacheRepository
	logger *slog.Logger
}

// NewLoanService creates a LoanService. A nil cache disables caching.
func NewLoanService(cache repository.CacheRepository, logger *slog.Logger) *LoanService {
	if cache == nil {
		cache = repository.NoopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanService{cache: cache, logger: logger}
}

// CalculateSchedule computes the amortization schedule for a loan request.
func (s *LoanService) CalculateSchedule(
	ctx context.Context,
	input domain.LoanInput,
) (domain.Schedule, error) {

	months, err := termInMonths(input.Term, input.Unit)
	if err != nil {
		return domain.Schedule{}, err
	}

	terms := domain.LoanTerms{
		Principal:         input.Principal,
		AnnualRatePercent: input.AnnualRatePercent,
		TermMonths:        months,
	}
	if err := checkLimits(terms); err != nil {
		return domain.Schedule{}, err
	}

	return s.schedule(ctx, terms)
}

// MaxPrincipal solves for the largest affordable principal and returns it
// together with its schedule.
func (s *LoanService) MaxPrincipal(
	ctx context.Context,
	input domain.MaxPrincipalInput,
) (domain.MaxPrincipalResult, error) {

	months, err := termInMonths(input.Term, input.Unit)
	if err != nil {
		return domain.MaxPrincipalResult{}, err
	}
	if err := checkLimits(domain.LoanTerms{
		AnnualRatePercent: input.AnnualRatePercent,
		TermMonths:        months,
	}); err != nil {
		return domain.MaxPrincipalResult{}, err
	}

	principal, err := SolveMaxPrincipal(input.TargetPayment, input.AnnualRatePercent, months)
	if err != nil {
		return domain.MaxPrincipalResult{}, fmt.Errorf("solve max principal: %w", err)
	}

	schedule, err := s.schedule(ctx, domain.LoanTerms{
		Principal:         principal,
		AnnualRatePercent: input.AnnualRatePercent,
		TermMonths:        months,
	})
	if err != nil {
		return domain.MaxPrincipalResult{}, err
	}

	return domain.MaxPrincipalResult{Principal: principal, Schedule: schedule}, nil
}

// RequiredTenure solves for the number of months needed to repay a principal
// with a fixed payment and schedules the loan over the rounded-up term.
func (s *LoanService) RequiredTenure(
	ctx context.Context,
	input domain.TenureInput,
) (domain.TenureResult, error) {

	if err := checkLimits(domain.LoanTerms{
		Principal:         input.Principal,
		AnnualRatePercent: input.AnnualRatePercent,
	}); err != nil {
		return domain.TenureResult{}, err
	}

	tenure, err := SolveRequiredTenure(input.Principal, input.TargetPayment, input.AnnualRatePercent)
	if err != nil {
		return domain.TenureResult{}, fmt.Errorf("solve required tenure: %w", err)
	}
	if tenure > MaxTermMonths {
		return domain.TenureResult{}, &domain.ArgumentError{
			Field:  "target_payment",
			Value:  input.TargetPayment,
			Reason: fmt.Sprintf("repayment would take %.1f months, more than the maximum of %d", tenure, MaxTermMonths),
		}
	}

	months, err := CeilTenure(tenure)
	if err != nil {
		return domain.TenureResult{}, err
	}
	schedule, err := s.schedule(ctx, domain.LoanTerms{
		Principal:         input.Principal,
		AnnualRatePercent: input.AnnualRatePercent,
		TermMonths:        months,
	})
	if err != nil {
		return domain.TenureResult{}, err
	}

	return domain.TenureResult{Tenure: tenure, TermMonths: months, Schedule: schedule}, nil
}

func (s *LoanService) schedule(ctx context.Context, terms domain.LoanTerms) (domain.Schedule, error) {
	key := scheduleKey(terms)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var schedule domain.Schedule
		err := json.Unmarshal([]byte(cached), &schedule)
		if err == nil {
			s.logger.DebugContext(ctx, "schedule served from cache", "key", key)
			return schedule, nil
		}
		s.logger.WarnContext(ctx, "discarding unreadable cached schedule", "key", key, "error", err)
	}

	schedule, err := ComputeSchedule(terms)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("compute schedule: %w", err)
	}

	// Caching is best effort.
	data, err := json.Marshal(schedule)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode schedule for cache", "key", key, "error", err)
		return schedule, nil
	}
	if err := s.cache.Set(ctx, key, string(data)); err != nil {
		s.logger.WarnContext(ctx, "failed to cache schedule", "key", key, "error", err)
	}

	s.logger.DebugContext(ctx, "schedule computed",
		"principal", terms.Principal,
		"annual_rate_percent", terms.AnnualRatePercent,
		"term_months", terms.TermMonths,
		"payment", schedule.Payment)

	return schedule, nil
}

func scheduleKey(terms domain.LoanTerms) string {
	return "schedule:" +
		strconv.FormatFloat(terms.Principal, 'g', -1, 64) + ":" +
		strconv.FormatFloat(terms.AnnualRatePercent, 'g', -1, 64) + ":" +
		strconv.Itoa(terms.TermMonths)
}

func termInMonths(term int, unit domain.TermUnit) (int, error) {
	switch unit {
	case "", domain.TermUnitMonths:
		return term, nil
	case domain.TermUnitYears:
		if term > MaxTermMonths/12 {
			return 0, &domain.ArgumentError{
				Field:  "term",
				Value:  term,
				Reason: fmt.Sprintf("exceeds the maximum of %d years", MaxTermMonths/12),
			}
		}
		return term * 12, nil
	default:
		return 0, &domain.ArgumentError{
			Field:  "term_unit",
			Value:  unit,
			Reason: `must be "months" or "years"`,
		}
	}
}

// checkLimits enforces the API upper bounds. Zero fields are not checked;
// domain validation is left to the engine.
func checkLimits(terms domain.LoanTerms) error {
	if terms.Principal > MaxLoanAmount {
		return &domain.ArgumentError{
			Field:  "principal",
			Value:  terms.Principal,
			Reason: fmt.Sprintf("exceeds the maximum of %.2f", MaxLoanAmount),
		}
	}
	if terms.AnnualRatePercent > MaxInterestRate {
		return &domain.ArgumentError{
			Field:  "annual_rate_percent",
			Value:  terms.AnnualRatePercent,
			Reason: fmt.Sprintf("exceeds the maximum of %.2f%%", MaxInterestRate),
		}
	}
	if terms.TermMonths > MaxTermMonths {
		return &domain.ArgumentError{
			Field:  "term_months",
			Value:  terms.TermMonths,
			Reason: fmt.Sprintf("exceeds the maximum of %d months", MaxTermMonths),
		}
	}
	return nil
}
