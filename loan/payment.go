/*
payment.go - Applying payments to schedule rows

PURPOSE:
  Owns the mutable payment-tracking fields of a schedule (PaidAmount,
  OutstandingAmount, PaymentStatus). Payment application is an explicit
  operation returning a new schedule snapshot, keeping the generator's
  output immutable and auditable: no collaborator scatters field
  mutations across rows.

ORDERING:
  A payment settles installments oldest-due-first, each row up to its
  unpaid OutstandingAmount. Whatever cannot be applied is returned as
  the overpayment remainder.

SEE ALSO:
  - allocate.go: Bucket-level split of the same payment
  - harmonize.go: Reads the tracking fields this writes
*/
package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyPayment applies amount across the schedule oldest-due-first and
// returns the updated snapshot plus the unapplied remainder. The input
// slice is not modified. Entries are assumed to be in installment order,
// which the generator guarantees.
func ApplyPayment(entries []ScheduleEntry, amount decimal.Decimal, paidAt time.Time) ([]ScheduleEntry, decimal.Decimal) {
	updated := make([]ScheduleEntry, len(entries))
	copy(updated, entries)

	remaining := amount
	for i := range updated {
		if !remaining.IsPositive() {
			break
		}
		due := updated[i].OutstandingAmount
		if !due.IsPositive() {
			continue
		}

		pay := remaining
		if due.LessThan(pay) {
			pay = due
		}

		updated[i].PaidAmount = updated[i].PaidAmount.Add(pay)
		updated[i].OutstandingAmount = due.Sub(pay)
		updated[i].PaymentStatus = statusFor(updated[i], paidAt)
		remaining = remaining.Sub(pay)
	}

	return updated, remaining
}

// RefreshStatuses returns a snapshot with every row's PaymentStatus
// recomputed against asOf. Rows past due with money still owed become
// overdue; settled rows stay paid.
func RefreshStatuses(entries []ScheduleEntry, asOf time.Time) []ScheduleEntry {
	updated := make([]ScheduleEntry, len(entries))
	copy(updated, entries)
	for i := range updated {
		updated[i].PaymentStatus = statusFor(updated[i], asOf)
	}
	return updated
}

func statusFor(e ScheduleEntry, asOf time.Time) PaymentStatus {
	if !e.OutstandingAmount.IsPositive() {
		return PaymentPaid
	}
	if e.DueDate.Before(asOf) {
		return PaymentOverdue
	}
	if e.PaidAmount.IsPositive() {
		return PaymentPartial
	}
	return PaymentUnpaid
}

// BalancesFrom rebuilds the allocator's balance snapshot from schedule rows.
// Within a row, paid money settles fees, then interest, then principal, so
// the unpaid remainder is attributed in the reverse order: principal first,
// then interest, then fees.
func BalancesFrom(entries []ScheduleEntry) LoanBalances {
	b := LoanBalances{
		OutstandingPrincipal: decimal.Zero,
		UnpaidInterest:       decimal.Zero,
		UnpaidFees:           decimal.Zero,
		UnpaidPenalties:      decimal.Zero,
	}
	for _, e := range entries {
		unpaid := e.OutstandingAmount
		if !unpaid.IsPositive() {
			continue
		}
		var part decimal.Decimal
		part, unpaid = drain(unpaid, e.PrincipalAmount)
		b.OutstandingPrincipal = b.OutstandingPrincipal.Add(part)
		part, unpaid = drain(unpaid, e.InterestAmount)
		b.UnpaidInterest = b.UnpaidInterest.Add(part)
		part, _ = drain(unpaid, e.FeeAmount)
		b.UnpaidFees = b.UnpaidFees.Add(part)
	}
	return b
}
