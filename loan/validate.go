/*
validate.go - Loan term validation

PURPOSE:
  All validation happens before generation, never during it. Validate
  collects every violated rule so the caller sees the complete picture
  in one pass.

GRACE WINDOW RULE:
  The grace period must end strictly before the loan term ends. The term
  length in days is derived from the frequency using the nominal period
  lengths (1, 7, 30); see DESIGN.md for why the comparison is day-based.
  A principal-deferring grace additionally requires at least two
  installments: on a one-row loan it would zero the only principal
  payment and the balance could never retire.

SEE ALSO:
  - errors.go: InvalidLoanParametersError wraps the violation list
  - schedule.go: Calls Validate as its first step
*/
package loan

import "github.com/shopspring/decimal"

// nominalPeriodDays is the period length used for term-window arithmetic,
// independent of the day-count convention.
func nominalPeriodDays(freq Frequency) int {
	switch freq {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	default:
		return 30
	}
}

// Validate checks loan terms against every constraint and returns the list
// of violated rules, empty when the terms are valid.
func Validate(terms LoanTerms) []string {
	var violations []string

	if !terms.Principal.IsPositive() {
		violations = append(violations, "principal must be positive")
	}
	if terms.AnnualInterestRate.IsNegative() || terms.AnnualInterestRate.GreaterThan(hundred) {
		violations = append(violations, "annual interest rate must be between 0 and 100")
	}
	if terms.TermInPeriods <= 0 {
		violations = append(violations, "term must be at least one installment")
	}
	if !terms.Frequency.Valid() {
		violations = append(violations, "unknown repayment frequency")
	}
	if !terms.InterestType.Valid() {
		violations = append(violations, "unknown interest type")
	}
	if !terms.AmortizationType.Valid() {
		violations = append(violations, "unknown amortization type")
	}
	if !terms.DaysInYearType.Valid() {
		violations = append(violations, "unknown days-in-year type")
	}
	if !terms.DaysInMonthType.Valid() {
		violations = append(violations, "unknown days-in-month type")
	}
	if !terms.GracePeriodType.Valid() {
		violations = append(violations, "unknown grace period type")
	}
	if terms.DisbursementDate.IsZero() {
		violations = append(violations, "disbursement date is required")
	}
	if terms.FirstPaymentDate != nil && !terms.FirstPaymentDate.After(terms.DisbursementDate) {
		violations = append(violations, "first payment date must be after disbursement date")
	}

	if terms.GracePeriodDays < 0 {
		violations = append(violations, "grace period days must not be negative")
	} else if terms.Frequency.Valid() && terms.TermInPeriods > 0 {
		termDays := terms.TermInPeriods * nominalPeriodDays(terms.Frequency)
		if terms.GracePeriodDays >= termDays {
			violations = append(violations, "grace period must end before the loan term ends")
		}
	}

	// On a one-installment loan any positive grace window covers the only
	// row; if that grace defers principal the balance can never retire.
	if terms.GracePeriodDays > 0 && terms.TermInPeriods == 1 &&
		(terms.GracePeriodType == GracePrincipalOnly || terms.GracePeriodType == GracePrincipalAndInterest) {
		violations = append(violations, "a principal-deferring grace period requires at least two installments")
	}

	return violations
}

// mustValidate wraps Validate for use by the generator.
func mustValidate(terms LoanTerms) error {
	if v := Validate(terms); len(v) > 0 {
		return &InvalidLoanParametersError{Violations: v}
	}
	return nil
}

// clampRate clamps a percentage rate to [0, 100].
func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}
