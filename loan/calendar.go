/*
calendar.go - Day-count and due-date arithmetic

PURPOSE:
  The leaf component of the engine. Converts a day-count policy plus dates
  into period lengths and periodic rate fractions, and advances due dates
  by the repayment frequency.

CONVENTIONS:
  daysInYear:  360 or 365 verbatim; "actual" resolves 366 in leap years
  daysInMonth: 30 verbatim, or the real month length
  periodicRate asymmetry: the weekly rate derives from the daily rate
  (daily x 7) while the monthly rate is annual/12, independent of the
  year basis. This is a documented convention of the product, not an
  oversight - do not "fix" it.

DATES:
  All dates are day-granularity and treated as UTC. DaysBetween is
  undefined for reversed inputs; callers order their arguments.

SEE ALSO:
  - schedule.go: The only consumer of these functions inside the engine
*/
package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	seven  = decimal.NewFromInt(7)
	twelve = decimal.NewFromInt(12)
)

// DaysInYear resolves the year basis for a reference date.
func DaysInYear(dy DaysInYearType, ref time.Time) int {
	switch dy {
	case DaysInYear360:
		return 360
	case DaysInYear365:
		return 365
	default: // DaysInYearActual
		if isLeapYear(ref.Year()) {
			return 366
		}
		return 365
	}
}

// DaysInMonth resolves the month basis for a reference date.
func DaysInMonth(dm DaysInMonthType, ref time.Time) int {
	if dm == DaysInMonth30 {
		return 30
	}
	// Day 0 of the next month is the last day of ref's month.
	return time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the calendar-day difference between start and end,
// ceiling-rounded. Always >= 0 for chronologically ordered inputs; behavior
// for reversed inputs is undefined.
func DaysBetween(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// PeriodicRate converts an annual percentage rate into the per-period
// fraction for the given frequency and year basis.
func PeriodicRate(annualRatePercent decimal.Decimal, freq Frequency, daysInYear int) decimal.Decimal {
	daily := annualRatePercent.Div(hundred).Div(decimal.NewFromInt(int64(daysInYear)))
	switch freq {
	case FrequencyDaily:
		return daily
	case FrequencyWeekly:
		return daily.Mul(seven)
	default: // FrequencyMonthly
		return annualRatePercent.Div(hundred).Div(twelve)
	}
}

// NextDueDate advances a due date by one repayment period.
func NextDueDate(current time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	default: // FrequencyMonthly
		return current.AddDate(0, 1, 0)
	}
}

// isLeapYear applies the Gregorian rule: divisible by 4, not by 100,
// unless also by 400.
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
