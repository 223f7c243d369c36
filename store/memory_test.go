package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store"
)

func seedLoan(t *testing.T, m *store.Memory) (*store.Loan, []loan.ScheduleEntry) {
	t.Helper()
	ctx := context.Background()

	terms := loan.LoanTerms{
		Principal:          decimal.NewFromInt(300),
		AnnualInterestRate: decimal.Zero,
		TermInPeriods:      3,
		Frequency:          loan.FrequencyMonthly,
		InterestType:       loan.InterestDecliningBalance,
		AmortizationType:   loan.AmortizationEqualInstallments,
		DaysInYearType:     loan.DaysInYear360,
		DaysInMonthType:    loan.DaysInMonth30,
		DisbursementDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		GracePeriodType:    loan.GraceNone,
	}
	result, err := loan.Generate(terms)
	require.NoError(t, err)

	l := &store.Loan{
		ID:                 uuid.New(),
		Terms:              terms,
		OutstandingBalance: result.TotalAmount,
		TotalAmount:        result.TotalAmount,
		Status:             store.LoanActive,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, m.CreateLoan(ctx, l))
	require.NoError(t, m.ReplaceSchedule(ctx, l.ID, result.Entries))
	return l, result.Entries
}

func TestMemory_LoanLifecycle(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	l, _ := seedLoan(t, m)

	got, err := m.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)

	got.Status = store.LoanClosed
	require.NoError(t, m.UpdateLoan(ctx, got))

	again, err := m.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, store.LoanClosed, again.Status)

	_, err = m.GetLoan(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrLoanNotFound)
	assert.ErrorIs(t, m.ReplaceSchedule(ctx, uuid.New(), nil), store.ErrLoanNotFound)
}

func TestMemory_CopiesOut(t *testing.T) {
	// Mutating a returned schedule must not leak back into the store.
	m := store.NewMemory()
	ctx := context.Background()
	l, _ := seedLoan(t, m)

	entries, err := m.Schedule(ctx, l.ID)
	require.NoError(t, err)
	entries[0].PaidAmount = decimal.NewFromInt(999)

	fresh, err := m.Schedule(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, fresh[0].PaidAmount.IsZero())
}

func TestMemory_BalancesFor(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	l, _ := seedLoan(t, m)

	balances, err := m.BalancesFor(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, balances.OutstandingPrincipal.Equal(decimal.NewFromInt(300)))
	assert.True(t, balances.UnpaidInterest.IsZero())

	// After a partial payment the snapshot reflects the stored rows.
	entries, err := m.Schedule(ctx, l.ID)
	require.NoError(t, err)
	paid, _ := loan.ApplyPayment(entries, decimal.NewFromInt(100), l.Terms.DisbursementDate.AddDate(0, 1, 0))
	require.NoError(t, m.SaveSchedule(ctx, l.ID, paid))

	balances, err = m.BalancesFor(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, balances.OutstandingPrincipal.Equal(decimal.NewFromInt(200)))
}

func TestMemory_SaveScheduleMatchesByInstallment(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	l, entries := seedLoan(t, m)

	// Update only the second installment's tracking fields.
	update := []loan.ScheduleEntry{entries[1]}
	update[0].PaidAmount = decimal.NewFromInt(40)
	update[0].OutstandingAmount = decimal.NewFromInt(60)
	update[0].PaymentStatus = loan.PaymentPartial
	require.NoError(t, m.SaveSchedule(ctx, l.ID, update))

	stored, err := m.Schedule(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.PaymentUnpaid, stored[0].PaymentStatus)
	assert.Equal(t, loan.PaymentPartial, stored[1].PaymentStatus)
	assert.True(t, stored[1].PaidAmount.Equal(decimal.NewFromInt(40)))
	// Generated fields untouched.
	assert.True(t, stored[1].PrincipalAmount.Equal(entries[1].PrincipalAmount))
}
