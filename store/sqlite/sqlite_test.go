package sqlite_test

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
	"github.com/warp/loan-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTerms() loan.LoanTerms {
	return loan.LoanTerms{
		Principal:          decimal.NewFromInt(1200),
		AnnualInterestRate: decimal.NewFromInt(12),
		TermInPeriods:      12,
		Frequency:          loan.FrequencyMonthly,
		InterestType:       loan.InterestDecliningBalance,
		AmortizationType:   loan.AmortizationEqualInstallments,
		DaysInYearType:     loan.DaysInYear360,
		DaysInMonthType:    loan.DaysInMonth30,
		DisbursementDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		GracePeriodType:    loan.GraceNone,
	}
}

func newStoredLoan(t *testing.T, s *sqlite.Store) (*store.Loan, *loan.ScheduleResult) {
	t.Helper()
	ctx := context.Background()

	result, err := loan.Generate(testTerms())
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	l := &store.Loan{
		ID:                 uuid.New(),
		Terms:              testTerms(),
		OutstandingBalance: result.TotalAmount,
		PeriodicPayment:    result.PeriodicPayment,
		TotalInterest:      result.TotalInterest,
		TotalFees:          result.TotalFees,
		TotalAmount:        result.TotalAmount,
		Status:             store.LoanActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, s.CreateLoan(ctx, l))
	require.NoError(t, s.ReplaceSchedule(ctx, l.ID, result.Entries))
	return l, result
}

func TestLoanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	l, _ := newStoredLoan(t, s)

	got, err := s.GetLoan(context.Background(), l.ID)
	require.NoError(t, err)

	assert.Equal(t, l.ID, got.ID)
	assert.True(t, got.Terms.Principal.Equal(l.Terms.Principal), "principal should round-trip exactly")
	assert.Equal(t, loan.FrequencyMonthly, got.Terms.Frequency)
	assert.Equal(t, loan.DaysInYear360, got.Terms.DaysInYearType)
	assert.True(t, got.Terms.DisbursementDate.Equal(l.Terms.DisbursementDate))
	assert.Nil(t, got.Terms.FirstPaymentDate)
	assert.Equal(t, store.LoanActive, got.Status)
	assert.True(t, got.PeriodicPayment.Equal(l.PeriodicPayment))
}

func TestGetLoan_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetLoan(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrLoanNotFound)
}

func TestScheduleRoundTrip(t *testing.T) {
	s := newTestStore(t)
	l, result := newStoredLoan(t, s)

	entries, err := s.Schedule(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(result.Entries))

	for i, e := range entries {
		want := result.Entries[i]
		assert.Equal(t, want.InstallmentNumber, e.InstallmentNumber)
		assert.True(t, e.DueDate.Equal(want.DueDate), "installment %d due date", i+1)
		assert.True(t, e.PrincipalAmount.Equal(want.PrincipalAmount), "installment %d principal", i+1)
		assert.True(t, e.InterestAmount.Equal(want.InterestAmount), "installment %d interest", i+1)
		assert.True(t, e.OutstandingBalance.Equal(want.OutstandingBalance), "installment %d balance", i+1)
		assert.Equal(t, want.DaysInPeriod, e.DaysInPeriod)
		assert.Equal(t, loan.PaymentUnpaid, e.PaymentStatus)
	}
}

func TestReplaceSchedule_SwapsAllRows(t *testing.T) {
	// Regenerating a schedule replaces the full row set: no stale rows from
	// the previous generation survive.
	s := newTestStore(t)
	l, _ := newStoredLoan(t, s)
	ctx := context.Background()

	shorter := testTerms()
	shorter.TermInPeriods = 6
	regenerated, err := loan.Generate(shorter)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceSchedule(ctx, l.ID, regenerated.Entries))

	entries, err := s.Schedule(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestReplaceSchedule_FailureKeepsOldRows(t *testing.T) {
	// A mid-insert failure must roll the whole replacement back: the
	// previous schedule survives untouched rather than ending half-swapped.
	s := newTestStore(t)
	l, result := newStoredLoan(t, s)
	ctx := context.Background()

	bad := make([]loan.ScheduleEntry, 2)
	copy(bad, result.Entries[:2])
	bad[1].InstallmentNumber = bad[0].InstallmentNumber

	require.Error(t, s.ReplaceSchedule(ctx, l.ID, bad))

	entries, err := s.Schedule(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(result.Entries))
	for i, e := range entries {
		assert.Equal(t, result.Entries[i].InstallmentNumber, e.InstallmentNumber)
		assert.True(t, e.PrincipalAmount.Equal(result.Entries[i].PrincipalAmount), "installment %d principal", i+1)
	}
}

func TestSaveSchedule_UpdatesPaymentFieldsOnly(t *testing.T) {
	s := newTestStore(t)
	l, result := newStoredLoan(t, s)
	ctx := context.Background()

	paid, remainder := loan.ApplyPayment(result.Entries, decimal.NewFromInt(1200), time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, remainder.IsZero())
	require.NoError(t, s.SaveSchedule(ctx, l.ID, paid))

	entries, err := s.Schedule(ctx, l.ID)
	require.NoError(t, err)

	assert.Equal(t, loan.PaymentPaid, entries[0].PaymentStatus)
	assert.True(t, entries[0].OutstandingAmount.IsZero())
	assert.Equal(t, loan.PaymentPartial, entries[1].PaymentStatus)
	assert.True(t, entries[1].PaidAmount.IsPositive())

	// Generated fields are untouched by payment updates.
	assert.True(t, entries[0].PrincipalAmount.Equal(result.Entries[0].PrincipalAmount))
}

func TestPaymentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	l, _ := newStoredLoan(t, s)
	ctx := context.Background()

	p := &store.Payment{
		ID:       uuid.New(),
		LoanID:   l.ID,
		Amount:   decimal.NewFromFloat(106.62),
		Strategy: loan.StrategyDefault,
		Allocation: loan.RepaymentAllocation{
			Principal: decimal.NewFromFloat(94.62),
			Interest:  decimal.NewFromInt(12),
			Fees:      decimal.Zero,
			Penalties: decimal.Zero,
		},
		Overpayment: decimal.Zero,
		PaidAt:      time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.RecordPayment(ctx, p))

	payments, err := s.Payments(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(p.Amount))
	assert.True(t, payments[0].Allocation.Principal.Equal(p.Allocation.Principal))
	assert.Equal(t, loan.StrategyDefault, payments[0].Strategy)
	assert.True(t, payments[0].PaidAt.Equal(p.PaidAt))
}

func TestUpdateLoan_StoredAggregates(t *testing.T) {
	s := newTestStore(t)
	l, _ := newStoredLoan(t, s)
	ctx := context.Background()

	l.OutstandingBalance = decimal.NewFromFloat(973.12)
	l.Status = store.LoanClosed
	l.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateLoan(ctx, l))

	got, err := s.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.OutstandingBalance.Equal(decimal.NewFromFloat(973.12)))
	assert.Equal(t, store.LoanClosed, got.Status)

	missing := *l
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.UpdateLoan(ctx, &missing), store.ErrLoanNotFound)
}
