// Package emi computes equated monthly installments for amortizing loans.
package emi

import (
	"fmt"
	"math"
)

// Zero is what Calculate returns for any input it cannot price.
const Zero = "0.00"

// Calculate returns the monthly installment for the given principal, annual
// interest rate in percent, and term in months, formatted to two decimals.
//
// Non-positive inputs and non-finite intermediates all yield "0.00". The
// non-finite guard matters: a zero term or a zero monthly rate drives the
// formula into 0/0.
func Calculate(principal, annualRatePercent float64, termMonths int) string {
	if principal <= 0 || annualRatePercent <= 0 || termMonths <= 0 {
		return Zero
	}

	monthlyRate := annualRatePercent / 12 / 100
	factor := math.Pow(1+monthlyRate, float64(termMonths))
	amount := principal * monthlyRate * factor / (factor - 1)

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Zero
	}

	return fmt.Sprintf("%.2f", amount)
}
