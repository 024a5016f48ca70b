package domain

// LoanTerms are the inputs of one amortization calculation.
type LoanTerms struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermMonths        int     `json:"term_months"`
}

// PaymentScheduleEntry is one period of a schedule.
type PaymentScheduleEntry struct {
	Period             int     `json:"period"`
	PaymentAmount      float64 `json:"payment"`
	PrincipalComponent float64 `json:"principal"`
	InterestComponent  float64 `json:"interest"`
	RemainingBalance   float64 `json:"remaining_balance"`
}

// Schedule is a fixed-payment amortization schedule derived from LoanTerms.
type Schedule struct {
	Terms         LoanTerms              `json:"terms"`
	Payment       float64                `json:"payment"`
	TotalPaid     float64                `json:"total_paid"`
	TotalInterest float64                `json:"total_interest"`
	Entries       []PaymentScheduleEntry `json:"entries"`
}

type TermUnit string

const (
	TermUnitMonths TermUnit = "months"
	TermUnitYears  TermUnit = "years"
)

// LoanInput is the API request for a schedule. Term is expressed in Unit,
// months when empty.
type LoanInput struct {
	Principal         float64  `json:"principal"`
	AnnualRatePercent float64  `json:"annual_rate_percent"`
	Term              int      `json:"term"`
	Unit              TermUnit `json:"term_unit,omitempty"`
}

type MaxPrincipalInput struct {
	TargetPayment     float64  `json:"target_payment"`
	AnnualRatePercent float64  `json:"annual_rate_percent"`
	Term              int      `json:"term"`
	Unit              TermUnit `json:"term_unit,omitempty"`
}

type MaxPrincipalResult struct {
	Principal float64  `json:"principal"`
	Schedule  Schedule `json:"schedule"`
}

type TenureInput struct {
	Principal         float64 `json:"principal"`
	TargetPayment     float64 `json:"target_payment"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
}

// TenureResult carries both the continuous period count and the whole
// number of months actually scheduled.
type TenureResult struct {
	Tenure     float64  `json:"tenure"`
	TermMonths int      `json:"term_months"`
	Schedule   Schedule `json:"schedule"`
}
