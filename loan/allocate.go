/*
allocate.go - Repayment waterfall

PURPOSE:
  Splits an incoming payment across penalty, fee, interest and principal
  buckets in a fixed priority order. Every bucket is capped at its
  remaining balance and at the payment remainder; no allocation is ever
  negative and the buckets sum to at most the payment amount.

STRATEGIES:
  penalties_fees_interest_principal   full waterfall (default)
  fees_interest_principal             skip penalties
  interest_principal                  interest then principal only
  principal_only                      principal only
  custom                              all-zero; the caller decides

  An unknown strategy falls back to the default waterfall. Unallocated
  remainder (payment exceeding all balances) is not represented in the
  result; the caller treats it as overpayment.

SEE ALSO:
  - payment.go: Applies allocated amounts back onto schedule rows
*/
package loan

import "github.com/shopspring/decimal"

// Allocate splits paymentAmount across the balance buckets according to the
// strategy. Pure function: balances are a snapshot taken by the caller
// immediately before the payment.
func Allocate(paymentAmount decimal.Decimal, balances LoanBalances, strategy AllocationStrategy) RepaymentAllocation {
	if paymentAmount.IsNegative() {
		paymentAmount = decimal.Zero
	}

	var alloc RepaymentAllocation
	remaining := paymentAmount

	switch strategy {
	case StrategyCustom:
		// The engine makes no decision for custom strategies.
		return RepaymentAllocation{
			Principal: decimal.Zero,
			Interest:  decimal.Zero,
			Fees:      decimal.Zero,
			Penalties: decimal.Zero,
		}

	case StrategyPrincipalOnly:
		alloc.Principal, remaining = drain(remaining, balances.OutstandingPrincipal)

	case StrategyInterestPrincipal:
		alloc.Interest, remaining = drain(remaining, balances.UnpaidInterest)
		alloc.Principal, remaining = drain(remaining, balances.OutstandingPrincipal)

	case StrategyFeesInterestPrincipal:
		alloc.Fees, remaining = drain(remaining, balances.UnpaidFees)
		alloc.Interest, remaining = drain(remaining, balances.UnpaidInterest)
		alloc.Principal, remaining = drain(remaining, balances.OutstandingPrincipal)

	default: // StrategyPenaltiesFeesInterestPrincipal and unknown strategies
		alloc.Penalties, remaining = drain(remaining, balances.UnpaidPenalties)
		alloc.Fees, remaining = drain(remaining, balances.UnpaidFees)
		alloc.Interest, remaining = drain(remaining, balances.UnpaidInterest)
		alloc.Principal, remaining = drain(remaining, balances.OutstandingPrincipal)
	}

	_ = remaining // overpayment is the caller's concern
	return alloc
}

// drain pays a bucket up to its balance, returning the paid amount and the
// payment remainder. Negative balances are treated as empty buckets.
func drain(remaining, balance decimal.Decimal) (paid, left decimal.Decimal) {
	if !remaining.IsPositive() || !balance.IsPositive() {
		return decimal.Zero, remaining
	}
	if remaining.LessThan(balance) {
		return remaining, decimal.Zero
	}
	return balance, remaining.Sub(balance)
}
