/*
Package store defines persistence for loans, schedules and payments.

PURPOSE:
  The engine in package loan is pure; this package is the collaborator
  that keeps its inputs and outputs. Loans map 1:1 onto rows, schedule
  entries are keyed by (loanID, installmentNumber), and balance
  snapshots for the allocator are always rebuilt from stored rows, never
  cached.

REPLACEMENT CONTRACT:
  Regenerating a schedule replaces all of its rows. ReplaceSchedule is a
  single logical unit: implementations must guarantee that a failure
  leaves the previous schedule intact rather than partially deleted.

IMPLEMENTATIONS:
  - store.Memory: In-memory, for tests
  - store/sqlite: Production SQLite

SEE ALSO:
  - sqlite/sqlite.go: Transactional implementation of ReplaceSchedule
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// ErrLoanNotFound is returned when a referenced loan doesn't exist.
var ErrLoanNotFound = errors.New("loan not found")

// LoanStatus is the lifecycle state of a stored loan.
type LoanStatus string

const (
	LoanActive LoanStatus = "active"
	LoanClosed LoanStatus = "closed"
)

// Loan is the persisted loan record: the immutable terms plus the stored
// aggregates the reconciler checks the schedule against.
type Loan struct {
	ID    uuid.UUID
	Terms loan.LoanTerms

	// Stored aggregates from the last generation/payment.
	OutstandingBalance decimal.Decimal
	PeriodicPayment    decimal.Decimal
	TotalInterest      decimal.Decimal
	TotalFees          decimal.Decimal
	TotalAmount        decimal.Decimal

	Status    LoanStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is one recorded repayment with its bucket allocation.
type Payment struct {
	ID          uuid.UUID
	LoanID      uuid.UUID
	Amount      decimal.Decimal
	Strategy    loan.AllocationStrategy
	Allocation  loan.RepaymentAllocation
	Overpayment decimal.Decimal
	PaidAt      time.Time
	CreatedAt   time.Time
}

// Storage is the persistence interface the API and tests program against.
type Storage interface {
	CreateLoan(ctx context.Context, l *Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)
	ListLoans(ctx context.Context) ([]*Loan, error)
	UpdateLoan(ctx context.Context, l *Loan) error

	// ReplaceSchedule deletes the loan's existing rows and inserts the new
	// ones as one transaction.
	ReplaceSchedule(ctx context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error

	// Schedule returns the loan's rows ordered by installment number.
	Schedule(ctx context.Context, loanID uuid.UUID) ([]loan.ScheduleEntry, error)

	// SaveSchedule persists updated payment-tracking fields. Rows are
	// matched by installment number; generated fields are not rewritten.
	SaveSchedule(ctx context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error

	// BalancesFor rebuilds a fresh allocation snapshot from the stored
	// schedule rows. Never cached.
	BalancesFor(ctx context.Context, loanID uuid.UUID) (loan.LoanBalances, error)

	RecordPayment(ctx context.Context, p *Payment) error
	Payments(ctx context.Context, loanID uuid.UUID) ([]*Payment, error)

	Close() error
}
