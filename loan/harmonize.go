/*
harmonize.go - Read-side reconciliation

PURPOSE:
  Recomputes a consistent view of a loan from its schedule and payment
  history: outstanding balance, arrears age, consistency against the
  stored balance, and the last/next payment dates. This is a derivation
  only. It never mutates the schedule or the persisted balance;
  divergence is reported as data, not raised as a fault, and the system
  keeps operating with both figures visible.

CONSISTENCY:
  scheduleConsistent is true iff the recomputed outstanding agrees with
  the stored balance to within one cent.

SEE ALSO:
  - payment.go: Writes the tracking fields this reads
*/
package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// consistencyTolerance is the maximum stored-vs-recalculated divergence
// still considered consistent.
var consistencyTolerance = decimal.NewFromFloat(0.01)

// Harmonize recomputes the display/audit view of a loan as of the given
// date. With no schedule, the calculated outstanding falls back to the
// stored balance.
func Harmonize(snapshot LoanSnapshot, asOf time.Time) HarmonizedLoanCalculation {
	calc := HarmonizedLoanCalculation{
		CorrectedInterestRate: clampRate(snapshot.AnnualInterestRate),
		TotalScheduledAmount:  decimal.Zero,
		TotalPaidAmount:       decimal.Zero,
	}

	if len(snapshot.Entries) == 0 {
		calc.CalculatedOutstanding = snapshot.StoredOutstanding
		calc.ScheduleConsistent = true
		return calc
	}

	var (
		earliestArrears *time.Time
		lastPayment     *time.Time
		nextPayment     *time.Time
	)

	for _, e := range snapshot.Entries {
		calc.TotalScheduledAmount = calc.TotalScheduledAmount.Add(e.TotalAmount)
		calc.TotalPaidAmount = calc.TotalPaidAmount.Add(e.PaidAmount)

		if e.OutstandingAmount.IsPositive() {
			if e.DueDate.Before(asOf) && (earliestArrears == nil || e.DueDate.Before(*earliestArrears)) {
				due := e.DueDate
				earliestArrears = &due
			}
			if nextPayment == nil || e.DueDate.Before(*nextPayment) {
				due := e.DueDate
				nextPayment = &due
			}
		}
		if e.PaidAmount.IsPositive() && (lastPayment == nil || e.DueDate.After(*lastPayment)) {
			due := e.DueDate
			lastPayment = &due
		}
	}

	calc.CalculatedOutstanding = calc.TotalScheduledAmount.Sub(calc.TotalPaidAmount)
	calc.ScheduleConsistent = calc.CalculatedOutstanding.
		Sub(snapshot.StoredOutstanding).Abs().
		LessThan(consistencyTolerance)

	if earliestArrears != nil {
		calc.DaysInArrears = DaysBetween(*earliestArrears, asOf)
	}
	calc.LastPaymentDate = lastPayment
	calc.NextPaymentDate = nextPayment

	return calc
}
