package loan_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// monthlyTerms is the baseline valid loan used across tests: callers tweak
// individual fields.
func monthlyTerms(principal float64, rate float64, term int) loan.LoanTerms {
	return loan.LoanTerms{
		Principal:          money(principal),
		AnnualInterestRate: money(rate),
		TermInPeriods:      term,
		Frequency:          loan.FrequencyMonthly,
		InterestType:       loan.InterestDecliningBalance,
		AmortizationType:   loan.AmortizationEqualInstallments,
		DaysInYearType:     loan.DaysInYear360,
		DaysInMonthType:    loan.DaysInMonth30,
		DisbursementDate:   date(2025, time.January, 1),
		GracePeriodType:    loan.GraceNone,
	}
}

func sumPrincipal(entries []loan.ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.PrincipalAmount)
	}
	return total
}

// =============================================================================
// EQUAL INSTALLMENTS / DECLINING BALANCE
// =============================================================================

func TestGenerate_EqualInstallments_AnnuityPayment(t *testing.T) {
	// GIVEN: 12,000 at 12% over 12 monthly periods, 30/360
	// WHEN: Generating the schedule
	// THEN: The level payment is the annuity on a 1% monthly rate, 1066.19

	result, err := loan.Generate(monthlyTerms(12000, 12, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.PeriodicPayment.Equal(money(1066.19)) {
		t.Errorf("expected periodic payment 1066.19, got %v", result.PeriodicPayment)
	}
	if len(result.Entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(result.Entries))
	}

	// First period: interest on the full balance over 30/360 of the year.
	first := result.Entries[0]
	if !first.InterestAmount.Equal(money(10.00)) {
		t.Errorf("expected first interest 10.00, got %v", first.InterestAmount)
	}
	if !first.PrincipalAmount.Equal(money(1056.19)) {
		t.Errorf("expected first principal 1056.19, got %v", first.PrincipalAmount)
	}

	// Interest decreases, principal increases while the balance lasts.
	for i := 1; i < len(result.Entries); i++ {
		prev, cur := result.Entries[i-1], result.Entries[i]
		if cur.InterestAmount.GreaterThan(prev.InterestAmount) {
			t.Errorf("installment %d: interest increased %v -> %v",
				cur.InstallmentNumber, prev.InterestAmount, cur.InterestAmount)
		}
		if cur.PrincipalAmount.IsPositive() && prev.PrincipalAmount.IsPositive() &&
			prev.OutstandingBalance.IsPositive() &&
			cur.PrincipalAmount.LessThan(prev.PrincipalAmount) {
			t.Errorf("installment %d: principal decreased %v -> %v",
				cur.InstallmentNumber, prev.PrincipalAmount, cur.PrincipalAmount)
		}
	}
}

func TestGenerate_ZeroRate_EvenSplit(t *testing.T) {
	// GIVEN: 1,200 at 0% over 12 monthly periods
	// WHEN: Generating the schedule
	// THEN: 100 principal per period, no interest anywhere

	result, err := loan.Generate(monthlyTerms(1200, 0, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.PeriodicPayment.Equal(money(100)) {
		t.Errorf("expected periodic payment 100, got %v", result.PeriodicPayment)
	}
	if !result.TotalInterest.IsZero() {
		t.Errorf("expected zero total interest, got %v", result.TotalInterest)
	}
	for _, e := range result.Entries {
		if !e.InterestAmount.IsZero() {
			t.Errorf("installment %d: expected zero interest, got %v", e.InstallmentNumber, e.InterestAmount)
		}
		if !e.PrincipalAmount.Equal(money(100)) {
			t.Errorf("installment %d: expected principal 100, got %v", e.InstallmentNumber, e.PrincipalAmount)
		}
	}
}

// =============================================================================
// EQUAL PRINCIPAL
// =============================================================================

func TestGenerate_EqualPrincipal_ConstantShare(t *testing.T) {
	// GIVEN: 1,200 over 12 periods with equal-principal amortization
	// WHEN: Generating the schedule
	// THEN: Every installment carries 100 principal; interest declines

	terms := monthlyTerms(1200, 12, 12)
	terms.AmortizationType = loan.AmortizationEqualPrincipal

	result, err := loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range result.Entries {
		if !e.PrincipalAmount.Equal(money(100)) {
			t.Errorf("installment %d: expected principal 100, got %v", e.InstallmentNumber, e.PrincipalAmount)
		}
	}
	for i := 1; i < len(result.Entries); i++ {
		if result.Entries[i].InterestAmount.GreaterThan(result.Entries[i-1].InterestAmount) {
			t.Errorf("installment %d: interest should not increase on a declining balance",
				result.Entries[i].InstallmentNumber)
		}
	}
	if result.PeriodicPayment.IsPositive() {
		t.Errorf("equal-principal schedules have no level payment, got %v", result.PeriodicPayment)
	}
}

// =============================================================================
// FLAT RATE
// =============================================================================

func TestGenerate_FlatRate_EvenInterestSpread(t *testing.T) {
	// GIVEN: 1,200 at 10% flat over 12 monthly periods
	// WHEN: Generating the schedule
	// THEN: Total flat interest = 1200 * 10% * 12/12 = 120, spread as 10 per
	//       period over a constant 100 principal share

	terms := monthlyTerms(1200, 10, 12)
	terms.InterestType = loan.InterestFlatRate

	result, err := loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.TotalInterest.Equal(money(120)) {
		t.Errorf("expected total interest 120, got %v", result.TotalInterest)
	}
	for _, e := range result.Entries {
		if !e.InterestAmount.Equal(money(10)) {
			t.Errorf("installment %d: expected interest 10, got %v", e.InstallmentNumber, e.InterestAmount)
		}
		if !e.PrincipalAmount.Equal(money(100)) {
			t.Errorf("installment %d: expected principal 100, got %v", e.InstallmentNumber, e.PrincipalAmount)
		}
		if !e.TotalAmount.Equal(money(110)) {
			t.Errorf("installment %d: expected total 110, got %v", e.InstallmentNumber, e.TotalAmount)
		}
	}
}

// =============================================================================
// GRACE PERIODS
// =============================================================================

func TestGenerate_GracePeriod_PrincipalAndInterest(t *testing.T) {
	// GIVEN: 1,000 over 4 periods with a 31-day full grace window
	// WHEN: Generating the schedule
	// THEN: Installment 1 is a zero row; the loan still retires at period 4

	terms := monthlyTerms(1000, 12, 4)
	terms.GracePeriodDays = 31
	terms.GracePeriodType = loan.GracePrincipalAndInterest

	result, err := loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := result.Entries[0]
	if !first.IsGracePeriod {
		t.Error("installment 1 should be flagged as grace")
	}
	if !first.PrincipalAmount.IsZero() || !first.InterestAmount.IsZero() || !first.TotalAmount.IsZero() {
		t.Errorf("installment 1 should be zeroed, got p=%v i=%v t=%v",
			first.PrincipalAmount, first.InterestAmount, first.TotalAmount)
	}
	if result.Entries[1].IsGracePeriod {
		t.Error("installment 2 should not be a grace period")
	}

	last := result.Entries[len(result.Entries)-1]
	if !last.OutstandingBalance.IsZero() {
		t.Errorf("terminal balance should be zero, got %v", last.OutstandingBalance)
	}
	if !sumPrincipal(result.Entries).Equal(money(1000)) {
		t.Errorf("principal should be conserved, got %v", sumPrincipal(result.Entries))
	}
}

func TestGenerate_GracePeriod_InterestOnly(t *testing.T) {
	// GIVEN: An interest-only grace window covering installment 1
	// WHEN: Generating the schedule
	// THEN: Installment 1 has zero interest but still repays principal

	terms := monthlyTerms(1000, 12, 4)
	terms.GracePeriodDays = 31
	terms.GracePeriodType = loan.GraceInterestOnly

	result, err := loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := result.Entries[0]
	if !first.InterestAmount.IsZero() {
		t.Errorf("expected zero interest, got %v", first.InterestAmount)
	}
	if !first.PrincipalAmount.IsPositive() {
		t.Errorf("expected positive principal, got %v", first.PrincipalAmount)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestGenerate_InvalidTerms_NeverGenerates(t *testing.T) {
	// GIVEN: Terms violating several rules at once
	// WHEN: Generating
	// THEN: All violations come back in one error; no schedule is produced

	terms := monthlyTerms(-5, 150, 0)
	result, err := loan.Generate(terms)

	if result != nil {
		t.Fatal("expected no result for invalid terms")
	}
	if !errors.Is(err, loan.ErrInvalidLoanParameters) {
		t.Fatalf("expected ErrInvalidLoanParameters, got %v", err)
	}

	var invalid *loan.InvalidLoanParametersError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidLoanParametersError, got %T", err)
	}
	if len(invalid.Violations) < 3 {
		t.Errorf("expected at least 3 violations, got %v", invalid.Violations)
	}
}

func TestValidate_GraceWindowMustEndBeforeTerm(t *testing.T) {
	terms := monthlyTerms(1000, 12, 4)
	terms.GracePeriodDays = 120 // 4 monthly periods x 30 days
	terms.GracePeriodType = loan.GracePrincipalOnly

	violations := loan.Validate(terms)
	if len(violations) == 0 {
		t.Fatal("expected a grace-window violation")
	}

	terms.GracePeriodDays = 119
	if v := loan.Validate(terms); len(v) != 0 {
		t.Errorf("119 grace days on a 120-day term should be valid, got %v", v)
	}
}

func TestValidate_PrincipalGraceNeedsTwoInstallments(t *testing.T) {
	// GIVEN: A one-installment loan whose grace window defers principal
	// WHEN: Validating
	// THEN: Rejected - any positive window covers the only row, its
	// principal would be zeroed and the balance could never retire

	terms := monthlyTerms(1000, 12, 1)
	terms.GracePeriodDays = 29
	terms.GracePeriodType = loan.GracePrincipalAndInterest

	if v := loan.Validate(terms); len(v) == 0 {
		t.Fatal("expected a violation for principal-deferring grace on a single installment")
	}

	result, err := loan.Generate(terms)
	if result != nil || !errors.Is(err, loan.ErrInvalidLoanParameters) {
		t.Fatalf("expected ErrInvalidLoanParameters from Generate, got %v", err)
	}

	// Interest-only grace leaves principal alone: the single row still
	// retires the balance.
	terms.GracePeriodType = loan.GraceInterestOnly
	if v := loan.Validate(terms); len(v) != 0 {
		t.Errorf("interest-only grace on a single installment should be valid, got %v", v)
	}

	// With a second installment the terminal row absorbs the balance.
	terms.GracePeriodType = loan.GracePrincipalAndInterest
	terms.TermInPeriods = 2
	if v := loan.Validate(terms); len(v) != 0 {
		t.Errorf("two installments should be valid, got %v", v)
	}
	result, err = loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Entries[1].OutstandingBalance.IsZero() {
		t.Errorf("terminal balance should be zero, got %v", result.Entries[1].OutstandingBalance)
	}
}

// =============================================================================
// CROSS-VARIANT PROPERTIES
// =============================================================================

func TestGenerate_PrincipalConservationAndMonotonicPayoff(t *testing.T) {
	// GIVEN: Every combination of frequency, amortization and interest type
	// WHEN: Generating schedules
	// THEN: Principal is conserved within 0.01 per installment, the balance
	//       never increases, and the last entry retires it exactly

	frequencies := []loan.Frequency{loan.FrequencyDaily, loan.FrequencyWeekly, loan.FrequencyMonthly}
	amortizations := []loan.AmortizationType{loan.AmortizationEqualInstallments, loan.AmortizationEqualPrincipal}
	interests := []loan.InterestType{loan.InterestDecliningBalance, loan.InterestFlatRate}

	for _, freq := range frequencies {
		for _, amort := range amortizations {
			for _, interest := range interests {
				terms := monthlyTerms(9973.55, 17.5, 9)
				terms.Frequency = freq
				terms.AmortizationType = amort
				terms.InterestType = interest
				terms.DaysInYearType = loan.DaysInYearActual
				terms.DaysInMonthType = loan.DaysInMonthActual

				result, err := loan.Generate(terms)
				if err != nil {
					t.Fatalf("%s/%s/%s: unexpected error: %v", freq, amort, interest, err)
				}
				if len(result.Entries) != 9 {
					t.Fatalf("%s/%s/%s: expected 9 entries, got %d", freq, amort, interest, len(result.Entries))
				}

				tolerance := money(0.01).Mul(decimal.NewFromInt(9))
				diff := sumPrincipal(result.Entries).Sub(terms.Principal).Abs()
				if diff.GreaterThan(tolerance) {
					t.Errorf("%s/%s/%s: principal drift %v exceeds tolerance", freq, amort, interest, diff)
				}

				balance := terms.Principal
				for _, e := range result.Entries {
					if e.OutstandingBalance.GreaterThan(balance) {
						t.Errorf("%s/%s/%s: balance increased at installment %d", freq, amort, interest, e.InstallmentNumber)
					}
					balance = e.OutstandingBalance
				}
				if !balance.IsZero() {
					t.Errorf("%s/%s/%s: terminal balance %v, want 0", freq, amort, interest, balance)
				}
			}
		}
	}
}

func TestGenerate_DueDatesStrictlyIncrease(t *testing.T) {
	result, err := loan.Generate(monthlyTerms(5000, 8, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(result.Entries); i++ {
		if !result.Entries[i].DueDate.After(result.Entries[i-1].DueDate) {
			t.Errorf("due dates must strictly increase at installment %d", result.Entries[i].InstallmentNumber)
		}
	}
	// First period runs from disbursement.
	if result.Entries[0].DaysInPeriod != 31 {
		t.Errorf("expected 31 days in first period (Jan 1 -> Feb 1), got %d", result.Entries[0].DaysInPeriod)
	}
}

func TestGenerate_ExplicitFirstPaymentDate(t *testing.T) {
	// GIVEN: A first payment date two months after disbursement
	// WHEN: Generating
	// THEN: The schedule starts there and the first period spans the gap

	terms := monthlyTerms(1000, 12, 3)
	first := date(2025, time.March, 1)
	terms.FirstPaymentDate = &first

	result, err := loan.Generate(terms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Entries[0].DueDate.Equal(first) {
		t.Errorf("expected first due date %v, got %v", first, result.Entries[0].DueDate)
	}
	if result.Entries[0].DaysInPeriod != 59 {
		t.Errorf("expected 59 days in first period, got %d", result.Entries[0].DaysInPeriod)
	}
}
