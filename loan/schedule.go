/*
schedule.go - Installment schedule generation

PURPOSE:
  Produces a complete, internally consistent installment schedule from
  LoanTerms. This is the single interest engine: every variant flows
  through the day-count and frequency parameters resolved in calendar.go,
  with no parallel legacy formulas.

ALGORITHM:
  1. Resolve daysInYear once from the disbursement date, periodicRate once
     from rate/frequency/daysInYear.
  2. Seed the due-date cursor at firstPaymentDate (or one period after
     disbursement) and the outstanding balance at the principal.
  3. For equal installments on a declining balance, precompute the level
     payment with the standard annuity formula.
  4. Walk installments 1..n computing days in period, the grace flag, and
     the principal/interest split; clamp, round half-up to 2 decimals,
     and emit.

INVARIANTS:
  - Schedule length == TermInPeriods
  - Outstanding balance is non-increasing and exactly 0 on the last entry
  - Principal amounts sum to the original principal; rounding residue is
    absorbed by the final installment

INTEREST BASIS:
  Monthly schedules accrue interest over the configured month basis
  (DaysInMonthType), not the calendar gap between due dates: a 30/360
  loan accrues 30 days of interest even in a 31-day month, which keeps
  declining interest monotone under that convention. Daily and weekly
  schedules use the calendar period length. DaysInPeriod on each entry
  always reports the calendar gap. See DESIGN.md.

GRACE BOUNDARY:
  Period i is a grace period while
      i <= ceil(gracePeriodDays / daysBetween(disbursement, currentDue)).
  The divisor grows as the cursor advances, so the threshold shrinks.
  This is a pinned behavioral contract carried over from the product;
  see DESIGN.md before changing it.

SEE ALSO:
  - validate.go: Runs before generation, never during
  - fees.go: Adjusts the generated schedule with fee amounts
*/
package loan

import (
	"math"

	"github.com/shopspring/decimal"
)

// Generate produces the full installment schedule for the given terms.
// Returns *InvalidLoanParametersError (wrapping ErrInvalidLoanParameters)
// without generating anything when the terms are invalid.
func Generate(terms LoanTerms) (*ScheduleResult, error) {
	if err := mustValidate(terms); err != nil {
		return nil, err
	}

	n := terms.TermInPeriods
	diy := DaysInYear(terms.DaysInYearType, terms.DisbursementDate)
	periodicRate := PeriodicRate(terms.AnnualInterestRate, terms.Frequency, diy)
	diyDec := decimal.NewFromInt(int64(diy))
	nDec := decimal.NewFromInt(int64(n))

	dueDate := NextDueDate(terms.DisbursementDate, terms.Frequency)
	if terms.FirstPaymentDate != nil {
		dueDate = *terms.FirstPaymentDate
	}

	levelPayment := decimal.Zero
	if terms.AmortizationType == AmortizationEqualInstallments && terms.InterestType == InterestDecliningBalance {
		levelPayment = annuityPayment(terms.Principal, periodicRate, n)
	}

	// Flat-rate interest: computed once on the original principal, spread
	// evenly. The n/12 term is the product's convention regardless of
	// frequency.
	flatPerPeriod := decimal.Zero
	if terms.InterestType == InterestFlatRate {
		totalFlat := terms.Principal.Mul(terms.AnnualInterestRate).Div(hundred).Mul(nDec).Div(twelve)
		flatPerPeriod = totalFlat.Div(nDec)
	}

	equalPrincipalShare := terms.Principal.Div(nDec)

	entries := make([]ScheduleEntry, 0, n)
	outstanding := terms.Principal
	totalInterest := decimal.Zero
	totalAmount := decimal.Zero
	prevDate := terms.DisbursementDate

	for i := 1; i <= n; i++ {
		days := DaysBetween(prevDate, dueDate)

		// The interest fraction uses the month basis for monthly loans so a
		// 30/360 loan accrues over 30 days even in a 31-day month. Daily and
		// weekly loans use the calendar period length.
		interestDays := days
		if terms.Frequency == FrequencyMonthly {
			interestDays = DaysInMonth(terms.DaysInMonthType, prevDate)
		}

		isGrace := false
		if terms.GracePeriodDays > 0 && terms.GracePeriodType != GraceNone {
			elapsed := DaysBetween(terms.DisbursementDate, dueDate)
			isGrace = i <= ceilDiv(terms.GracePeriodDays, elapsed)
		}

		var principalPart, interestPart decimal.Decimal
		dayFraction := decimal.NewFromInt(int64(interestDays)).Div(diyDec)

		switch terms.AmortizationType {
		case AmortizationEqualPrincipal:
			principalPart = equalPrincipalShare
			switch terms.InterestType {
			case InterestDecliningBalance:
				interestPart = outstanding.Mul(periodicRate).Mul(dayFraction)
			case InterestFlatRate:
				interestPart = flatPerPeriod
			}

		case AmortizationEqualInstallments:
			switch terms.InterestType {
			case InterestDecliningBalance:
				interestPart = outstanding.Mul(periodicRate).Mul(dayFraction)
				principalPart = levelPayment.Sub(interestPart)
			case InterestFlatRate:
				// Total repayable (principal + flat interest) splits evenly;
				// the principal share is what remains after the even
				// interest share.
				interestPart = flatPerPeriod
				principalPart = terms.Principal.Add(flatPerPeriod.Mul(nDec)).Div(nDec).Sub(flatPerPeriod)
			}
		}

		if isGrace {
			switch terms.GracePeriodType {
			case GracePrincipalOnly:
				principalPart = decimal.Zero
			case GraceInterestOnly:
				interestPart = decimal.Zero
			case GracePrincipalAndInterest:
				principalPart = decimal.Zero
				interestPart = decimal.Zero
			}
		}

		// Final installment absorbs the rounding residue and retires the
		// balance, unless grace suspended principal for it.
		graceZeroesPrincipal := isGrace &&
			(terms.GracePeriodType == GracePrincipalOnly || terms.GracePeriodType == GracePrincipalAndInterest)
		if i == n && !graceZeroesPrincipal {
			principalPart = outstanding
		}

		// Clamp: never negative, never more than the balance left.
		if principalPart.IsNegative() {
			principalPart = decimal.Zero
		}
		if principalPart.GreaterThan(outstanding) {
			principalPart = outstanding
		}
		if interestPart.IsNegative() {
			interestPart = decimal.Zero
		}

		principalPart = roundMoney(principalPart)
		interestPart = roundMoney(interestPart)
		total := principalPart.Add(interestPart)

		outstanding = outstanding.Sub(principalPart)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}

		entries = append(entries, ScheduleEntry{
			InstallmentNumber:  i,
			DueDate:            dueDate,
			PrincipalAmount:    principalPart,
			InterestAmount:     interestPart,
			FeeAmount:          decimal.Zero,
			TotalAmount:        total,
			OutstandingBalance: roundMoney(outstanding),
			DaysInPeriod:       days,
			IsGracePeriod:      isGrace,
			PaidAmount:         decimal.Zero,
			OutstandingAmount:  total,
			PaymentStatus:      PaymentUnpaid,
		})

		totalInterest = totalInterest.Add(interestPart)
		totalAmount = totalAmount.Add(total)

		prevDate = dueDate
		dueDate = NextDueDate(dueDate, terms.Frequency)
	}

	return &ScheduleResult{
		Entries:         entries,
		TotalInterest:   totalInterest,
		TotalPrincipal:  terms.Principal,
		TotalFees:       decimal.Zero,
		TotalAmount:     totalAmount,
		PeriodicPayment: levelPayment,
	}, nil
}

// annuityPayment computes the level payment P*r*(1+r)^n / ((1+r)^n - 1).
// The power term is computed in float64 and the result converted back to
// decimal for monetary arithmetic; a zero rate degenerates to an even split.
func annuityPayment(principal, periodicRate decimal.Decimal, n int) decimal.Decimal {
	if periodicRate.IsZero() {
		return roundMoney(principal.Div(decimal.NewFromInt(int64(n))))
	}
	r := periodicRate.InexactFloat64()
	factor := math.Pow(1+r, float64(n))
	payment := principal.InexactFloat64() * r * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(2)
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
