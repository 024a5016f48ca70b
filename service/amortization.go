package service

import (
	"fmt"
	"math"

	"lendtrack/domain"
)

// tenureEpsilon absorbs noise just above a whole number of periods.
const tenureEpsilon = 1e-9

// monthlyRate converts an annual nominal percentage to a monthly decimal rate.
func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / (12 * 100)
}

// ComputeSchedule builds the fixed-payment amortization schedule for terms.
//
// With a positive rate the payment is
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// and the balance after period i is the closed form
//
//	P * ((1+r)^n - (1+r)^i) / ((1+r)^n - 1)
//
// evaluated as P * expm1(-(n-i)*L) / expm1(-n*L) with L = log1p(r). That form
// neither overflows nor cancels, so rates near zero and rates in the hundreds
// of percent over long terms stay accurate, and the last balance is exactly
// zero. Each period charges interest on the previous balance. With a zero rate
// the principal is split evenly. Amounts are not rounded.
func ComputeSchedule(terms domain.LoanTerms) (domain.Schedule, error) {
	if err := validateTerms(terms); err != nil {
		return domain.Schedule{}, err
	}

	r := monthlyRate(terms.AnnualRatePercent)
	if r == 0 {
		return straightLineSchedule(terms), nil
	}

	n := terms.TermMonths
	logGrowth := math.Log1p(r)
	// -expm1(-n*L) is 1 - (1+r)^-n, in (0, 1].
	discount := math.Expm1(-float64(n) * logGrowth)

	payment := terms.Principal * (r / -discount)
	if !isFinite(payment) || payment <= 0 {
		return domain.Schedule{}, &domain.ArgumentError{
			Field:  "annual_rate_percent",
			Value:  terms.AnnualRatePercent,
			Reason: "payment is not representable for this rate and term",
		}
	}

	totalPaid := payment * float64(n)
	if !isFinite(totalPaid) {
		return domain.Schedule{}, &domain.ArgumentError{
			Field:  "principal",
			Value:  terms.Principal,
			Reason: "total paid overflows",
		}
	}

	entries := make([]domain.PaymentScheduleEntry, 0, n)
	balance := terms.Principal

	for period := 1; period <= n; period++ {
		interest := balance * r
		remaining := math.Max(0, terms.Principal*(math.Expm1(-float64(n-period)*logGrowth)/discount))

		entries = append(entries, domain.PaymentScheduleEntry{
			Period:             period,
			PaymentAmount:      payment,
			PrincipalComponent: payment - interest,
			InterestComponent:  interest,
			RemainingBalance:   remaining,
		})
		balance = remaining
	}

	return domain.Schedule{
		Terms:         terms,
		Payment:       payment,
		TotalPaid:     totalPaid,
		TotalInterest: totalPaid - terms.Principal,
		Entries:       entries,
	}, nil
}

func straightLineSchedule(terms domain.LoanTerms) domain.Schedule {
	n := terms.TermMonths
	payment := terms.Principal / float64(n)
	entries := make([]domain.PaymentScheduleEntry, 0, n)

	for period := 1; period <= n; period++ {
		entries = append(entries, domain.PaymentScheduleEntry{
			Period:             period,
			PaymentAmount:      payment,
			PrincipalComponent: payment,
			RemainingBalance:   terms.Principal * float64(n-period) / float64(n),
		})
	}

	return domain.Schedule{
		Terms:     terms,
		Payment:   payment,
		TotalPaid: terms.Principal,
		Entries:   entries,
	}
}

// SolveMaxPrincipal returns the largest principal that targetPayment fully
// amortizes over termMonths at the given rate.
func SolveMaxPrincipal(targetPayment, annualRatePercent float64, termMonths int) (float64, error) {
	if err := validatePositive("target_payment", targetPayment); err != nil {
		return 0, err
	}
	if err := validateRate(annualRatePercent); err != nil {
		return 0, err
	}
	if err := validateTermMonths(termMonths); err != nil {
		return 0, err
	}

	var principal float64
	r := monthlyRate(annualRatePercent)
	if r == 0 {
		principal = targetPayment * float64(termMonths)
	} else {
		// A * (1 - (1+r)^-n) / r
		principal = targetPayment * (-math.Expm1(-float64(termMonths)*math.Log1p(r)) / r)
	}

	if !isFinite(principal) || principal <= 0 {
		return 0, &domain.ArgumentError{
			Field:  "target_payment",
			Value:  targetPayment,
			Reason: "principal is not representable for this payment, rate and term",
		}
	}

	return principal, nil
}

// SolveRequiredTenure returns the real-valued number of periods needed to pay
// principal off with targetPayment. Callers round up with CeilTenure.
func SolveRequiredTenure(principal, targetPayment, annualRatePercent float64) (float64, error) {
	if err := validatePositive("principal", principal); err != nil {
		return 0, err
	}
	if err := validatePositive("target_payment", targetPayment); err != nil {
		return 0, err
	}
	if err := validateRate(annualRatePercent); err != nil {
		return 0, err
	}

	r := monthlyRate(annualRatePercent)
	if r == 0 {
		tenure := principal / targetPayment
		if !isFinite(tenure) || tenure <= 0 {
			return 0, &domain.ArgumentError{
				Field:  "target_payment",
				Value:  targetPayment,
				Reason: "repayment period is not representable",
			}
		}
		return tenure, nil
	}

	interest := principal * r
	if targetPayment <= interest {
		return 0, &domain.UnamortizableError{Payment: targetPayment, PeriodInterest: interest}
	}

	// n = -ln(1 - P*r/A) / ln(1+r)
	tenure := -math.Log1p(-interest/targetPayment) / math.Log1p(r)
	if !isFinite(tenure) || tenure <= 0 {
		return 0, &domain.UnamortizableError{Payment: targetPayment, PeriodInterest: interest}
	}

	return tenure, nil
}

// CeilTenure rounds a tenure up to whole months, at least one. Tenures that
// are not finite or do not fit an int32 are rejected.
func CeilTenure(tenure float64) (int, error) {
	if !isFinite(tenure) || tenure < 0 {
		return 0, &domain.ArgumentError{Field: "tenure", Value: tenure, Reason: "must be a finite, non-negative number"}
	}

	months := math.Ceil(tenure - tenureEpsilon)
	if months > math.MaxInt32 {
		return 0, &domain.ArgumentError{
			Field:  "tenure",
			Value:  tenure,
			Reason: fmt.Sprintf("exceeds %d months", math.MaxInt32),
		}
	}
	if months < 1 {
		return 1, nil
	}
	return int(months), nil
}

func validateTerms(terms domain.LoanTerms) error {
	if err := validatePositive("principal", terms.Principal); err != nil {
		return err
	}
	if err := validateRate(terms.AnnualRatePercent); err != nil {
		return err
	}
	return validateTermMonths(terms.TermMonths)
}

func validatePositive(field string, v float64) error {
	if !isFinite(v) {
		return &domain.ArgumentError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &domain.ArgumentError{Field: field, Value: v, Reason: "must be greater than zero"}
	}
	return nil
}

func validateRate(v float64) error {
	if !isFinite(v) {
		return &domain.ArgumentError{Field: "annual_rate_percent", Value: v, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &domain.ArgumentError{Field: "annual_rate_percent", Value: v, Reason: "must not be negative"}
	}
	return nil
}

func validateTermMonths(n int) error {
	if n < 1 {
		return &domain.ArgumentError{Field: "term_months", Value: n, Reason: "must be at least one month"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
