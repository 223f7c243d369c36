package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements Storage with maps. Copies in, copies out: callers never
// share slices with the store.
type Memory struct {
	mu        sync.RWMutex
	loans     map[uuid.UUID]Loan
	schedules map[uuid.UUID][]loan.ScheduleEntry
	payments  map[uuid.UUID][]Payment
}

func NewMemory() *Memory {
	return &Memory{
		loans:     make(map[uuid.UUID]Loan),
		schedules: make(map[uuid.UUID][]loan.ScheduleEntry),
		payments:  make(map[uuid.UUID][]Payment),
	}
}

func (m *Memory) CreateLoan(_ context.Context, l *Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[l.ID] = *l
	return nil
}

func (m *Memory) GetLoan(_ context.Context, id uuid.UUID) (*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	return &l, nil
}

func (m *Memory) ListLoans(_ context.Context) ([]*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Loan, 0, len(m.loans))
	for _, l := range m.loans {
		cp := l
		result = append(result, &cp)
	}
	return result, nil
}

func (m *Memory) UpdateLoan(_ context.Context, l *Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[l.ID]; !ok {
		return ErrLoanNotFound
	}
	m.loans[l.ID] = *l
	return nil
}

func (m *Memory) ReplaceSchedule(_ context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[loanID]; !ok {
		return ErrLoanNotFound
	}
	cp := make([]loan.ScheduleEntry, len(entries))
	copy(cp, entries)
	m.schedules[loanID] = cp
	return nil
}

func (m *Memory) Schedule(_ context.Context, loanID uuid.UUID) ([]loan.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.schedules[loanID]
	cp := make([]loan.ScheduleEntry, len(entries))
	copy(cp, entries)
	return cp, nil
}

func (m *Memory) SaveSchedule(_ context.Context, loanID uuid.UUID, entries []loan.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.schedules[loanID]
	byNumber := make(map[int]int, len(stored))
	for i, e := range stored {
		byNumber[e.InstallmentNumber] = i
	}
	for _, e := range entries {
		i, ok := byNumber[e.InstallmentNumber]
		if !ok {
			continue
		}
		stored[i].PaidAmount = e.PaidAmount
		stored[i].OutstandingAmount = e.OutstandingAmount
		stored[i].PaymentStatus = e.PaymentStatus
	}
	return nil
}

func (m *Memory) BalancesFor(ctx context.Context, loanID uuid.UUID) (loan.LoanBalances, error) {
	entries, err := m.Schedule(ctx, loanID)
	if err != nil {
		return loan.LoanBalances{}, err
	}
	return loan.BalancesFrom(entries), nil
}

func (m *Memory) RecordPayment(_ context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.LoanID] = append(m.payments[p.LoanID], *p)
	return nil
}

func (m *Memory) Payments(_ context.Context, loanID uuid.UUID) ([]*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Payment, 0, len(m.payments[loanID]))
	for _, p := range m.payments[loanID] {
		cp := p
		result = append(result, &cp)
	}
	return result, nil
}

func (m *Memory) Close() error { return nil }
