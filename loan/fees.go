/*
fees.go - Fee injection over a generated schedule

PURPOSE:
  Pure transformation that layers one-time and recurring fees onto an
  existing schedule. Disbursement-time fees are summed and added to
  installment 1; installment fees are summed and added to every row.
  No proration, no fee-specific due dates: both classes are flat
  additions.

SEE ALSO:
  - schedule.go: Produces the schedule this operates on
*/
package loan

import "github.com/shopspring/decimal"

// InjectFees returns a copy of the schedule with the given fees applied.
// FeeAmount, TotalAmount and OutstandingAmount are adjusted; entries are
// never renumbered or reordered. The input slice is not modified.
func InjectFees(entries []ScheduleEntry, disbursementFees, installmentFees []Fee) []ScheduleEntry {
	if len(entries) == 0 {
		return nil
	}

	disbTotal := sumFees(disbursementFees)
	instTotal := sumFees(installmentFees)

	adjusted := make([]ScheduleEntry, len(entries))
	copy(adjusted, entries)

	for i := range adjusted {
		add := instTotal
		if i == 0 {
			add = add.Add(disbTotal)
		}
		if add.IsZero() {
			continue
		}
		adjusted[i].FeeAmount = adjusted[i].FeeAmount.Add(add)
		adjusted[i].TotalAmount = adjusted[i].TotalAmount.Add(add)
		adjusted[i].OutstandingAmount = adjusted[i].OutstandingAmount.Add(add)
	}

	return adjusted
}

func sumFees(fees []Fee) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fees {
		total = total.Add(f.Amount)
	}
	return roundMoney(total)
}

// TotalFees returns the fee total across a schedule, used when recomputing
// aggregate figures after injection.
func TotalFees(entries []ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.FeeAmount)
	}
	return total
}
