package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"lendtrack/domain"
)

type TermRecommendationService struct {
	logger *slog.Logger
}

func NewTermRecommendationService(logger *slog.Logger) *TermRecommendationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TermRecommendationService{logger: logger}
}

// ErrNoAffordableTerm is returned when every evaluated term costs more per
// month than the borrower can pay.
var ErrNoAffordableTerm = errors.New("no term in range fits the maximum monthly payment")

type candidate struct {
	term     int
	schedule domain.Schedule
}

// RecommendTerm evaluates every term in the requested range and ranks the
// affordable ones by the borrower's preference.
func (s *TermRecommendationService) RecommendTerm(
	ctx context.Context,
	input domain.TermRecommendationInput,
) (domain.TermRecommendationResult, error) {

	if err := validateRecommendation(input); err != nil {
		return domain.TermRecommendationResult{}, err
	}

	var candidates []candidate
	for term := input.MinTermMonths; term <= input.MaxTermMonths; term++ {
		schedule, err := ComputeSchedule(domain.LoanTerms{
			Principal:         input.Principal,
			AnnualRatePercent: input.AnnualRatePercent,
			TermMonths:        term,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "skipping term", "term_months", term, "error", err)
			continue
		}
		if schedule.Payment > input.MaxMonthlyPayment {
			continue
		}
		candidates = append(candidates, candidate{term: term, schedule: schedule})
	}

	if len(candidates) == 0 {
		return domain.TermRecommendationResult{}, ErrNoAffordableTerm
	}

	recommendations := score(candidates, input.Preference)

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})

	return domain.TermRecommendationResult{
		RecommendedTerm: recommendations[0].TermMonths,
		Recommendations: recommendations,
	}, nil
}

func validateRecommendation(input domain.TermRecommendationInput) error {
	if err := validatePositive("principal", input.Principal); err != nil {
		return err
	}
	if err := validateRate(input.AnnualRatePercent); err != nil {
		return err
	}
	if err := validatePositive("max_monthly_payment", input.MaxMonthlyPayment); err != nil {
		return err
	}
	if err := checkLimits(domain.LoanTerms{
		Principal:         input.Principal,
		AnnualRatePercent: input.AnnualRatePercent,
		TermMonths:        input.MaxTermMonths,
	}); err != nil {
		return err
	}
	if input.MinTermMonths < MinTermMonths {
		return &domain.ArgumentError{Field: "min_term_months", Value: input.MinTermMonths, Reason: "must be at least one month"}
	}
	if input.MinTermMonths > input.MaxTermMonths {
		return &domain.ArgumentError{Field: "max_term_months", Value: input.MaxTermMonths, Reason: "must not be below min_term_months"}
	}
	if input.MaxTermMonths-input.MinTermMonths > MaxTermRangeMonths {
		return &domain.ArgumentError{
			Field:  "max_term_months",
			Value:  input.MaxTermMonths,
			Reason: fmt.Sprintf("term range exceeds %d months", MaxTermRangeMonths),
		}
	}

	switch input.Preference {
	case domain.PreferenceMinimizeInterest, domain.PreferenceMinimizePayment, domain.PreferenceBalanced:
		return nil
	default:
		return &domain.ArgumentError{Field: "preference", Value: input.Preference, Reason: "unknown preference"}
	}
}

// score rates each candidate from 0 to 10, normalising interest, payment and
// term across the candidate set. Shorter terms score higher.
func score(candidates []candidate, preference domain.Preference) []domain.TermRecommendation {
	minInterest, maxInterest := math.Inf(1), math.Inf(-1)
	minPayment, maxPayment := math.Inf(1), math.Inf(-1)
	minTerm, maxTerm := candidates[0].term, candidates[len(candidates)-1].term

	for _, c := range candidates {
		minInterest = math.Min(minInterest, c.schedule.TotalInterest)
		maxInterest = math.Max(maxInterest, c.schedule.TotalInterest)
		minPayment = math.Min(minPayment, c.schedule.Payment)
		maxPayment = math.Max(maxPayment, c.schedule.Payment)
	}

	recommendations := make([]domain.TermRecommendation, 0, len(candidates))
	for _, c := range candidates {
		interestScore := normalise(c.schedule.TotalInterest, minInterest, maxInterest)
		paymentScore := normalise(c.schedule.Payment, minPayment, maxPayment)
		termScore := normalise(float64(c.term), float64(minTerm), float64(maxTerm))

		var total float64
		switch preference {
		case domain.PreferenceMinimizeInterest:
			total = 0.6*interestScore + 0.2*paymentScore + 0.2*termScore
		case domain.PreferenceMinimizePayment:
			total = 0.2*interestScore + 0.6*paymentScore + 0.2*termScore
		default:
			total = 0.4*interestScore + 0.4*paymentScore + 0.2*termScore
		}

		recommendations = append(recommendations, domain.TermRecommendation{
			TermMonths:     c.term,
			MonthlyPayment: c.schedule.Payment,
			TotalInterest:  c.schedule.TotalInterest,
			Score:          math.Round(total*100) / 100,
			Reason:         reason(preference, c),
		})
	}
	return recommendations
}

// normalise maps v in [lo, hi] to 10 at lo and 0 at hi.
func normalise(v, lo, hi float64) float64 {
	if hi <= lo {
		return 10
	}
	return 10 * (hi - v) / (hi - lo)
}

func reason(preference domain.Preference, c candidate) string {
	switch preference {
	case domain.PreferenceMinimizeInterest:
		return fmt.Sprintf("%d months keeps total interest at %.2f with a payment of %.2f",
			c.term, c.schedule.TotalInterest, c.schedule.Payment)
	case domain.PreferenceMinimizePayment:
		return fmt.Sprintf("%d months lowers the monthly payment to %.2f",
			c.term, c.schedule.Payment)
	default:
		return fmt.Sprintf("%d months balances a payment of %.2f against total interest of %.2f",
			c.term, c.schedule.Payment, c.schedule.TotalInterest)
	}
}
