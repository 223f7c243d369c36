package loan_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// =============================================================================
// DAY-COUNT TESTS
// =============================================================================

func TestDaysInYear_FixedBases(t *testing.T) {
	if got := loan.DaysInYear(loan.DaysInYear360, date(2024, time.June, 1)); got != 360 {
		t.Errorf("360 basis: expected 360, got %d", got)
	}
	if got := loan.DaysInYear(loan.DaysInYear365, date(2024, time.June, 1)); got != 365 {
		t.Errorf("365 basis: expected 365, got %d", got)
	}
}

func TestDaysInYear_ActualAppliesGregorianRule(t *testing.T) {
	cases := []struct {
		year int
		want int
	}{
		{2024, 366}, // divisible by 4
		{2025, 365},
		{1900, 365}, // century, not divisible by 400
		{2000, 366}, // divisible by 400
	}
	for _, c := range cases {
		got := loan.DaysInYear(loan.DaysInYearActual, date(c.year, time.March, 15))
		if got != c.want {
			t.Errorf("year %d: expected %d days, got %d", c.year, c.want, got)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := loan.DaysInMonth(loan.DaysInMonth30, date(2025, time.February, 10)); got != 30 {
		t.Errorf("30 basis: expected 30, got %d", got)
	}
	cases := []struct {
		ref  time.Time
		want int
	}{
		{date(2025, time.February, 1), 28},
		{date(2024, time.February, 1), 29},
		{date(2025, time.April, 5), 30},
		{date(2025, time.December, 31), 31},
	}
	for _, c := range cases {
		got := loan.DaysInMonth(loan.DaysInMonthActual, c.ref)
		if got != c.want {
			t.Errorf("%s: expected %d days, got %d", c.ref.Format("2006-01"), c.want, got)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := loan.DaysBetween(date(2025, time.January, 1), date(2025, time.February, 1)); got != 31 {
		t.Errorf("Jan 1 -> Feb 1: expected 31, got %d", got)
	}
	if got := loan.DaysBetween(date(2025, time.January, 1), date(2025, time.January, 1)); got != 0 {
		t.Errorf("same day: expected 0, got %d", got)
	}
	if got := loan.DaysBetween(date(2024, time.February, 1), date(2024, time.March, 1)); got != 29 {
		t.Errorf("leap February: expected 29, got %d", got)
	}
}

// =============================================================================
// PERIODIC RATE TESTS
// =============================================================================

func TestPeriodicRate_WeeklyDerivesFromDaily(t *testing.T) {
	// GIVEN: 12% annual on a 360-day year
	// WHEN: Resolving the weekly rate
	// THEN: It is the daily rate x 7, NOT annual/52 - a pinned convention

	annual := money(12)
	daily := loan.PeriodicRate(annual, loan.FrequencyDaily, 360)
	weekly := loan.PeriodicRate(annual, loan.FrequencyWeekly, 360)

	if !weekly.Equal(daily.Mul(decimal.NewFromInt(7))) {
		t.Errorf("weekly rate should be daily x 7, got %v (daily %v)", weekly, daily)
	}

	perISO := annual.Div(money(100)).Div(decimal.NewFromInt(52))
	if weekly.Equal(perISO) {
		t.Error("weekly rate must not be annual/52")
	}
}

func TestPeriodicRate_MonthlyIndependentOfYearBasis(t *testing.T) {
	// GIVEN: 12% annual
	// WHEN: Resolving the monthly rate under different year bases
	// THEN: Always annual/12 = 1%

	for _, diy := range []int{360, 365, 366} {
		rate := loan.PeriodicRate(money(12), loan.FrequencyMonthly, diy)
		if !rate.Equal(money(0.01)) {
			t.Errorf("diy=%d: expected 0.01, got %v", diy, rate)
		}
	}
}

// =============================================================================
// DUE DATE TESTS
// =============================================================================

func TestNextDueDate(t *testing.T) {
	start := date(2025, time.March, 15)

	if got := loan.NextDueDate(start, loan.FrequencyDaily); !got.Equal(date(2025, time.March, 16)) {
		t.Errorf("daily: got %v", got)
	}
	if got := loan.NextDueDate(start, loan.FrequencyWeekly); !got.Equal(date(2025, time.March, 22)) {
		t.Errorf("weekly: got %v", got)
	}
	if got := loan.NextDueDate(start, loan.FrequencyMonthly); !got.Equal(date(2025, time.April, 15)) {
		t.Errorf("monthly: got %v", got)
	}
}
