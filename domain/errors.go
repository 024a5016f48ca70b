package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidArgument classifies any input outside its documented domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnamortizableLoan classifies a payment that never pays the loan off.
	ErrUnamortizableLoan = errors.New("unamortizable loan")
)

// ArgumentError reports a single rejected input.
//
// The message format is:
//
//	"invalid {Field} {Value}: {Reason}"
type ArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// UnamortizableError reports a payment that does not exceed the interest
// charged on the principal in one period.
type UnamortizableError struct {
	Payment        float64
	PeriodInterest float64
}

func (e *UnamortizableError) Error() string {
	return "payment " + strconv.FormatFloat(e.Payment, 'f', 2, 64) +
		" does not exceed period interest " + strconv.FormatFloat(e.PeriodInterest, 'f', 2, 64)
}

func (e *UnamortizableError) Unwrap() error {
	return ErrUnamortizableLoan
}
