package service

const (
	MaxLoanAmount   = 1_000_000_000.0 // one billion
	MaxInterestRate = 1000.0          // 1000% a year
	MaxTermMonths   = 600             // 50 years
	MinTermMonths   = 1

	// Widest range of terms evaluated by a single recommendation.
	MaxTermRangeMonths = 120
)
