/*
Package loan provides the amortization and repayment-allocation engine.

PURPOSE:
  This package contains the deterministic core of the lending system:
  given loan terms it produces an installment schedule; given a payment
  and a balance snapshot it allocates the payment across penalty, fee,
  interest and principal buckets; given a schedule plus payment history
  it recomputes a harmonized view of the loan.

KEY CONCEPTS IN THIS FILE (types.go):
  - LoanTerms: Immutable input to schedule generation
  - ScheduleEntry: One row per installment
  - LoanBalances: Outstanding-balance snapshot fed to the allocator
  - RepaymentAllocation: Per-bucket result of applying a payment
  - HarmonizedLoanCalculation: Read-side reconciliation of a loan
  - Closed enumerations for every variant the engine understands

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: The generator's output is never mutated in place;
     payment tracking produces new schedule snapshots
  3. Closed variants: Interest type, amortization type, day-count policy,
     grace type and allocation strategy are enumerated types, so a new
     variant is a compile-time-visible gap, not a silent fallthrough
  4. Purity: No I/O, no clocks; "today" is always an explicit argument

USAGE:
  result, err := loan.Generate(terms)
  entries := loan.InjectFees(result.Entries, disbFees, instFees)
  alloc := loan.Allocate(payment, balances, loan.StrategyDefault)

SEE ALSO:
  - calendar.go: Day-count and due-date arithmetic
  - schedule.go: Schedule generation
  - allocate.go: Repayment waterfall
  - harmonize.go: Reconciliation
*/
package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS - Closed variant sets
// =============================================================================

// Frequency is the installment cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// InterestType selects how interest accrues.
type InterestType string

const (
	// InterestDecliningBalance computes interest on the principal still
	// outstanding at the start of each period.
	InterestDecliningBalance InterestType = "declining_balance"

	// InterestFlatRate computes interest once on the original principal and
	// spreads it evenly across the term.
	InterestFlatRate InterestType = "flat_rate"
)

func (it InterestType) Valid() bool {
	switch it {
	case InterestDecliningBalance, InterestFlatRate:
		return true
	}
	return false
}

// AmortizationType selects how principal is distributed across installments.
type AmortizationType string

const (
	AmortizationEqualInstallments AmortizationType = "equal_installments"
	AmortizationEqualPrincipal    AmortizationType = "equal_principal"
)

func (at AmortizationType) Valid() bool {
	switch at {
	case AmortizationEqualInstallments, AmortizationEqualPrincipal:
		return true
	}
	return false
}

// DaysInYearType is the year basis of the day-count convention.
type DaysInYearType string

const (
	DaysInYear360    DaysInYearType = "360"
	DaysInYear365    DaysInYearType = "365"
	DaysInYearActual DaysInYearType = "actual" // 366 in leap years
)

func (dy DaysInYearType) Valid() bool {
	switch dy {
	case DaysInYear360, DaysInYear365, DaysInYearActual:
		return true
	}
	return false
}

// DaysInMonthType is the month basis of the day-count convention.
type DaysInMonthType string

const (
	DaysInMonth30     DaysInMonthType = "30"
	DaysInMonthActual DaysInMonthType = "actual"
)

func (dm DaysInMonthType) Valid() bool {
	switch dm {
	case DaysInMonth30, DaysInMonthActual:
		return true
	}
	return false
}

// GracePeriodType controls which obligations are suspended during the
// initial grace window.
type GracePeriodType string

const (
	GraceNone                 GracePeriodType = "none"
	GracePrincipalOnly        GracePeriodType = "principal_only"
	GraceInterestOnly         GracePeriodType = "interest_only"
	GracePrincipalAndInterest GracePeriodType = "principal_and_interest"
)

func (g GracePeriodType) Valid() bool {
	switch g {
	case GraceNone, GracePrincipalOnly, GraceInterestOnly, GracePrincipalAndInterest:
		return true
	}
	return false
}

// AllocationStrategy is the repayment waterfall variant. The set is closed:
// this is a priority waterfall, not a pluggable engine.
type AllocationStrategy string

const (
	StrategyPenaltiesFeesInterestPrincipal AllocationStrategy = "penalties_fees_interest_principal"
	StrategyFeesInterestPrincipal          AllocationStrategy = "fees_interest_principal"
	StrategyInterestPrincipal              AllocationStrategy = "interest_principal"
	StrategyPrincipalOnly                  AllocationStrategy = "principal_only"

	// StrategyCustom yields an all-zero allocation: the caller owns the
	// domain-specific logic and this engine makes no decision.
	StrategyCustom AllocationStrategy = "custom"

	// StrategyDefault is the fallback for unknown or unspecified strategies.
	StrategyDefault = StrategyPenaltiesFeesInterestPrincipal
)

func (s AllocationStrategy) Valid() bool {
	switch s {
	case StrategyPenaltiesFeesInterestPrincipal, StrategyFeesInterestPrincipal,
		StrategyInterestPrincipal, StrategyPrincipalOnly, StrategyCustom:
		return true
	}
	return false
}

// PaymentStatus tracks how much of an installment has been settled.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// =============================================================================
// LOAN TERMS - Immutable input to schedule generation
// =============================================================================

// LoanTerms describes a loan to be amortized. Consumed by value; the
// generator never mutates it.
type LoanTerms struct {
	Principal          decimal.Decimal
	AnnualInterestRate decimal.Decimal // percentage, 0-100 inclusive
	TermInPeriods      int
	Frequency          Frequency
	InterestType       InterestType
	AmortizationType   AmortizationType
	DaysInYearType     DaysInYearType
	DaysInMonthType    DaysInMonthType

	DisbursementDate time.Time

	// FirstPaymentDate defaults to one period after DisbursementDate when nil.
	FirstPaymentDate *time.Time

	GracePeriodDays int
	GracePeriodType GracePeriodType
}

// =============================================================================
// SCHEDULE - Generator output
// =============================================================================

// ScheduleEntry is one installment row. The generated fields are immutable
// once produced; PaidAmount, OutstandingAmount and PaymentStatus are the
// mutable payment-tracking fields, updated only through ApplyPayment and
// RefreshStatuses, which return fresh snapshots.
type ScheduleEntry struct {
	InstallmentNumber  int
	DueDate            time.Time
	PrincipalAmount    decimal.Decimal
	InterestAmount     decimal.Decimal
	FeeAmount          decimal.Decimal
	TotalAmount        decimal.Decimal // principal + interest + fee
	OutstandingBalance decimal.Decimal // principal remaining after this installment
	DaysInPeriod       int             // days since previous due date (disbursement for row 1)
	IsGracePeriod      bool

	// Payment tracking
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal // unpaid portion of TotalAmount
	PaymentStatus     PaymentStatus
}

// ScheduleResult is the full generator output: the ordered entries plus
// aggregate totals.
type ScheduleResult struct {
	Entries         []ScheduleEntry
	TotalInterest   decimal.Decimal
	TotalPrincipal  decimal.Decimal
	TotalFees       decimal.Decimal
	TotalAmount     decimal.Decimal
	PeriodicPayment decimal.Decimal // level payment; zero when not applicable
}

// =============================================================================
// FEES
// =============================================================================

// Fee is a named flat charge. Disbursement-time fees land on installment 1,
// installment fees on every row; there is no proration.
type Fee struct {
	Name   string
	Amount decimal.Decimal
}

// =============================================================================
// ALLOCATION - Waterfall input and output
// =============================================================================

// LoanBalances is the outstanding-balance snapshot taken immediately before
// a payment. It is transient: the caller reconstructs it from stored schedule
// rows before every Allocate call.
type LoanBalances struct {
	OutstandingPrincipal decimal.Decimal
	UnpaidInterest       decimal.Decimal
	UnpaidFees           decimal.Decimal
	UnpaidPenalties      decimal.Decimal
}

// RepaymentAllocation is the per-bucket split of a payment. The four fields
// sum to at most the payment amount and each is capped at its corresponding
// balance component.
type RepaymentAllocation struct {
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Fees      decimal.Decimal
	Penalties decimal.Decimal
}

// Total returns the sum of all four buckets.
func (a RepaymentAllocation) Total() decimal.Decimal {
	return a.Principal.Add(a.Interest).Add(a.Fees).Add(a.Penalties)
}

// =============================================================================
// HARMONIZATION - Reconciler input and output
// =============================================================================

// LoanSnapshot is the reconciler input: the stored view of a loan plus its
// full schedule with payment tracking applied.
type LoanSnapshot struct {
	StoredOutstanding  decimal.Decimal
	AnnualInterestRate decimal.Decimal
	Entries            []ScheduleEntry
}

// HarmonizedLoanCalculation is the recomputed, display/audit view of a loan.
// Divergence from stored figures is reported here, never auto-corrected.
type HarmonizedLoanCalculation struct {
	CalculatedOutstanding decimal.Decimal
	CorrectedInterestRate decimal.Decimal // clamped to [0, 100]
	DaysInArrears         int
	ScheduleConsistent    bool
	TotalScheduledAmount  decimal.Decimal
	TotalPaidAmount       decimal.Decimal
	LastPaymentDate       *time.Time
	NextPaymentDate       *time.Time
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// roundMoney rounds to 2 decimal places, half-up. Applied at schedule-entry
// construction so downstream sums are reproducible from persisted rows alone.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var hundred = decimal.NewFromInt(100)
