/*
Package sqlite provides a SQLite-backed implementation of store.Storage.

PURPOSE:
  Persists loans, schedule rows and payments. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  loans:            Loan terms plus stored aggregates
  schedule_entries: One row per installment, keyed (loan_id, installment_no)
  payments:         Recorded repayments with their bucket allocations

SCHEDULE REPLACEMENT:
  ReplaceSchedule runs DELETE + N INSERTs inside one transaction. A
  failure rolls back and leaves the previous schedule intact - schedule
  regeneration is never allowed to end half-applied.

AMOUNTS:
  Monetary columns are TEXT holding decimal strings. Parsing through
  shopspring/decimal round-trips exactly; REAL columns would not.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery is cleaner.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control would handle this instead.

USAGE:
  st, err := sqlite.New("./data/loans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Store implements store.Storage using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		principal TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		term_periods INTEGER NOT NULL,
		frequency TEXT NOT NULL,
		interest_type TEXT NOT NULL,
		amortization_type TEXT NOT NULL,
		days_in_year TEXT NOT NULL,
		days_in_month TEXT NOT NULL,
		disbursement_date TEXT NOT NULL,
		first_payment_date TEXT,
		grace_days INTEGER NOT NULL DEFAULT 0,
		grace_type TEXT NOT NULL,
		outstanding_balance TEXT NOT NULL,
		periodic_payment TEXT NOT NULL,
		total_interest TEXT NOT NULL,
		total_fees TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Schedule rows map 1:1 onto engine entries, keyed by loan + installment.
	CREATE TABLE IF NOT EXISTS schedule_entries (
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		installment_no INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		principal_amount TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		fee_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		outstanding_balance TEXT NOT NULL,
		days_in_period INTEGER NOT NULL,
		is_grace_period INTEGER NOT NULL,
		paid_amount TEXT NOT NULL,
		outstanding_amount TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		PRIMARY KEY (loan_id, installment_no)
	);

	CREATE INDEX IF NOT EXISTS idx_schedule_due
		ON schedule_entries(loan_id, due_date);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		strategy TEXT NOT NULL,
		alloc_principal TEXT NOT NULL,
		alloc_interest TEXT NOT NULL,
		alloc_fees TEXT NOT NULL,
		alloc_penalties TEXT NOT NULL,
		overpayment TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_loan
		ON payments(loan_id, paid_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Store) CreateLoan(ctx context.Context, l *store.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstPayment sql.NullString
	if l.Terms.FirstPaymentDate != nil {
		firstPayment = sql.NullString{String: l.Terms.FirstPaymentDate.Format(dateLayout), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (
			id, principal, annual_rate, term_periods, frequency,
			interest_type, amortization_type, days_in_year, days_in_month,
			disbursement_date, first_payment_date, grace_days, grace_type,
			outstanding_balance, periodic_payment, total_interest, total_fees,
			total_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(),
		l.Terms.Principal.String(),
		l.Terms.AnnualInterestRate.String(),
		l.Terms.TermInPeriods,
		string(l.Terms.Frequency),
		string(l.Terms.InterestType),
		string(l.Terms.AmortizationType),
		string(l.Terms.DaysInYearType),
		string(l.Terms.DaysInMonthType),
		l.Terms.DisbursementDate.Format(dateLayout),
		firstPayment,
		l.Terms.GracePeriodDays,
		string(l.Terms.GracePeriodType),
		l.OutstandingBalance.String(),
		l.PeriodicPayment.String(),
		l.TotalInterest.String(),
		l.TotalFees.String(),
		l.TotalAmount.String(),
		string(l.Status),
		l.CreatedAt.Format(timeLayout),
		l.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	return nil
}

func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*store.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, principal, annual_rate, term_periods, frequency,
		       interest_type, amortization_type, days_in_year, days_in_month,
		       disbursement_date, first_payment_date, grace_days, grace_type,
		       outstanding_balance, periodic_payment, total_interest, total_fees,
		       total_amount, status, created_at, updated_at
		FROM loans WHERE id = ?`, id.String())

	l, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrLoanNotFound
	}
	return l, err
}

func (s *Store) ListLoans(ctx context.Context) ([]*store.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, principal, annual_rate, term_periods, frequency,
		       interest_type, amortization_type, days_in_year, days_in_month,
		       disbursement_date, first_payment_date, grace_days, grace_type,
		       outstanding_balance, periodic_payment, total_interest, total_fees,
		       total_amount, status, created_at, updated_at
		FROM loans ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*store.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (s *Store) UpdateLoan(ctx context.Context, l *store.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE loans SET
			outstanding_balance = ?, periodic_payment = ?, total_interest = ?,
			total_fees = ?, total_amount = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		l.OutstandingBalance.String(),
		l.PeriodicPayment.String(),
		l.TotalInterest.String(),
		l.TotalFees.String(),
		l.TotalAmount.String(),
		string(l.Status),
		l.UpdatedAt.Format(timeLayout),
		l.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrLoanNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(sc scanner) (*store.Loan, error) {
	var (
		l                          store.Loan
		id                         string
		principal, rate            string
		freq, it, at, diy, dim, gt string
		disbDate                   string
		firstPayment               sql.NullString
		outstanding, periodic      string
		totalInterest, totalFees   string
		totalAmount, status        string
		createdAt, updatedAt       string
	)

	err := sc.Scan(&id, &principal, &rate, &l.Terms.TermInPeriods, &freq,
		&it, &at, &diy, &dim,
		&disbDate, &firstPayment, &l.Terms.GracePeriodDays, &gt,
		&outstanding, &periodic, &totalInterest, &totalFees,
		&totalAmount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if l.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt loan id %q: %w", id, err)
	}
	if l.Terms.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, err
	}
	if l.Terms.AnnualInterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	l.Terms.Frequency = loan.Frequency(freq)
	l.Terms.InterestType = loan.InterestType(it)
	l.Terms.AmortizationType = loan.AmortizationType(at)
	l.Terms.DaysInYearType = loan.DaysInYearType(diy)
	l.Terms.DaysInMonthType = loan.DaysInMonthType(dim)
	l.Terms.GracePeriodType = loan.GracePeriodType(gt)

	if l.Terms.DisbursementDate, err = time.Parse(dateLayout, disbDate); err != nil {
		return nil, err
	}
	if firstPayment.Valid {
		fp, err := time.Parse(dateLayout, firstPayment.String)
		if err != nil {
			return nil, err
		}
		l.Terms.FirstPaymentDate = &fp
	}

	if l.OutstandingBalance, err = decimal.NewFromString(outstanding); err != nil {
		return nil, err
	}
	if l.PeriodicPayment, err = decimal.NewFromString(periodic); err != nil {
		return nil, err
	}
	if l.TotalInterest, err = decimal.NewFromString(totalInterest); err != nil {
		return nil, err
	}
	if l.TotalFees, err = decimal.NewFromString(totalFees); err != nil {
		return nil, err
	}
	if l.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, err
	}
	l.Status = store.LoanStatus(status)
	if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

// ReplaceSchedule swaps a loan's schedule atomically: delete + insert in one
// transaction so a failure leaves the previous rows intact.
func (s *Store) ReplaceSchedule(ctx context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE loan_id = ?`, loanID.String()); err != nil {
		return fmt.Errorf("failed to delete old schedule: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_entries (
			loan_id, installment_no, due_date, principal_amount,
			interest_amount, fee_amount, total_amount, outstanding_balance,
			days_in_period, is_grace_period, paid_amount, outstanding_amount,
			payment_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			loanID.String(),
			e.InstallmentNumber,
			e.DueDate.Format(dateLayout),
			e.PrincipalAmount.String(),
			e.InterestAmount.String(),
			e.FeeAmount.String(),
			e.TotalAmount.String(),
			e.OutstandingBalance.String(),
			e.DaysInPeriod,
			boolToInt(e.IsGracePeriod),
			e.PaidAmount.String(),
			e.OutstandingAmount.String(),
			string(e.PaymentStatus),
		)
		if err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", e.InstallmentNumber, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Schedule(ctx context.Context, loanID uuid.UUID) ([]loan.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT installment_no, due_date, principal_amount, interest_amount,
		       fee_amount, total_amount, outstanding_balance, days_in_period,
		       is_grace_period, paid_amount, outstanding_amount, payment_status
		FROM schedule_entries
		WHERE loan_id = ?
		ORDER BY installment_no`, loanID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []loan.ScheduleEntry
	for rows.Next() {
		var (
			e                    loan.ScheduleEntry
			dueDate              string
			principal, interest  string
			fee, total           string
			outstanding          string
			isGrace              int
			paid, unpaid, status string
		)
		err := rows.Scan(&e.InstallmentNumber, &dueDate, &principal, &interest,
			&fee, &total, &outstanding, &e.DaysInPeriod,
			&isGrace, &paid, &unpaid, &status)
		if err != nil {
			return nil, err
		}
		if e.DueDate, err = time.Parse(dateLayout, dueDate); err != nil {
			return nil, err
		}
		if e.PrincipalAmount, err = decimal.NewFromString(principal); err != nil {
			return nil, err
		}
		if e.InterestAmount, err = decimal.NewFromString(interest); err != nil {
			return nil, err
		}
		if e.FeeAmount, err = decimal.NewFromString(fee); err != nil {
			return nil, err
		}
		if e.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if e.OutstandingBalance, err = decimal.NewFromString(outstanding); err != nil {
			return nil, err
		}
		if e.PaidAmount, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		if e.OutstandingAmount, err = decimal.NewFromString(unpaid); err != nil {
			return nil, err
		}
		e.IsGracePeriod = isGrace != 0
		e.PaymentStatus = loan.PaymentStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveSchedule persists updated payment-tracking fields only.
func (s *Store) SaveSchedule(ctx context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE schedule_entries
		SET paid_amount = ?, outstanding_amount = ?, payment_status = ?
		WHERE loan_id = ? AND installment_no = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.PaidAmount.String(),
			e.OutstandingAmount.String(),
			string(e.PaymentStatus),
			loanID.String(),
			e.InstallmentNumber,
		); err != nil {
			return fmt.Errorf("failed to update installment %d: %w", e.InstallmentNumber, err)
		}
	}

	return tx.Commit()
}

// BalancesFor rebuilds the allocation snapshot from stored rows.
func (s *Store) BalancesFor(ctx context.Context, loanID uuid.UUID) (loan.LoanBalances, error) {
	entries, err := s.Schedule(ctx, loanID)
	if err != nil {
		return loan.LoanBalances{}, err
	}
	return loan.BalancesFrom(entries), nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) RecordPayment(ctx context.Context, p *store.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, loan_id, amount, strategy, alloc_principal, alloc_interest,
			alloc_fees, alloc_penalties, overpayment, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(),
		p.LoanID.String(),
		p.Amount.String(),
		string(p.Strategy),
		p.Allocation.Principal.String(),
		p.Allocation.Interest.String(),
		p.Allocation.Fees.String(),
		p.Allocation.Penalties.String(),
		p.Overpayment.String(),
		p.PaidAt.Format(dateLayout),
		p.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *Store) Payments(ctx context.Context, loanID uuid.UUID) ([]*store.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, loan_id, amount, strategy, alloc_principal, alloc_interest,
		       alloc_fees, alloc_penalties, overpayment, paid_at, created_at
		FROM payments WHERE loan_id = ? ORDER BY paid_at, created_at`, loanID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*store.Payment
	for rows.Next() {
		var (
			p                      store.Payment
			id, lid                string
			amount, strategy       string
			ap, ai, af, apen, over string
			paidAt, createdAt      string
		)
		err := rows.Scan(&id, &lid, &amount, &strategy, &ap, &ai, &af, &apen, &over, &paidAt, &createdAt)
		if err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if p.LoanID, err = uuid.Parse(lid); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		p.Strategy = loan.AllocationStrategy(strategy)
		if p.Allocation.Principal, err = decimal.NewFromString(ap); err != nil {
			return nil, err
		}
		if p.Allocation.Interest, err = decimal.NewFromString(ai); err != nil {
			return nil, err
		}
		if p.Allocation.Fees, err = decimal.NewFromString(af); err != nil {
			return nil, err
		}
		if p.Allocation.Penalties, err = decimal.NewFromString(apen); err != nil {
			return nil, err
		}
		if p.Overpayment, err = decimal.NewFromString(over); err != nil {
			return nil, err
		}
		if p.PaidAt, err = time.Parse(dateLayout, paidAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
