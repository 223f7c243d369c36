/*
scheduler.go - Automated overdue-status scheduler

PURPOSE:
  Periodically walks active loans, marks installments past their due date
  as overdue and refreshes the stored outstanding balance from the
  schedule rows.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips closed loans
  - Logs loans whose stored balance diverges from the schedule but never
    auto-corrects a divergent loan record

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewStatusScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - loan/payment.go: RefreshStatuses
  - loan/harmonize.go: Harmonize
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store"
)

// StatusScheduler handles automated overdue marking.
type StatusScheduler struct {
	Store         store.Storage
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStatusScheduler creates a new scheduler.
func NewStatusScheduler(st store.Storage, logger *zap.Logger) *StatusScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusScheduler{
		Store:         st,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *StatusScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		ss.Logger.Info("status scheduler disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	ss.Logger.Info("status scheduler started", zap.Duration("interval", ss.CheckInterval))
}

// Stop stops the scheduler.
func (ss *StatusScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.Logger.Info("status scheduler stopped")
	}
}

func (ss *StatusScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.checkAndProcess()

	for {
		select {
		case <-ss.ticker.C:
			ss.checkAndProcess()
		case <-ss.stop:
			return
		}
	}
}

func (ss *StatusScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now().UTC()

	loans, err := ss.Store.ListLoans(ctx)
	if err != nil {
		ss.Logger.Error("status sweep: list loans", zap.Error(err))
		return
	}

	refreshed := 0
	divergent := 0

	for _, l := range loans {
		if l.Status == store.LoanClosed {
			continue
		}

		entries, err := ss.Store.Schedule(ctx, l.ID)
		if err != nil {
			ss.Logger.Error("status sweep: load schedule", zap.String("loan_id", l.ID.String()), zap.Error(err))
			continue
		}
		if len(entries) == 0 {
			continue
		}

		updated := loan.RefreshStatuses(entries, now)
		if !statusesChanged(entries, updated) {
			continue
		}

		if err := ss.Store.SaveSchedule(ctx, l.ID, updated); err != nil {
			ss.Logger.Error("status sweep: save schedule", zap.String("loan_id", l.ID.String()), zap.Error(err))
			continue
		}
		refreshed++

		harmonized := loan.Harmonize(loan.LoanSnapshot{
			StoredOutstanding:  l.OutstandingBalance,
			AnnualInterestRate: l.Terms.AnnualInterestRate,
			Entries:            updated,
		}, now)
		if !harmonized.ScheduleConsistent {
			divergent++
			ss.Logger.Warn("status sweep: stored balance diverges from schedule",
				zap.String("loan_id", l.ID.String()),
				zap.String("stored", l.OutstandingBalance.String()),
				zap.String("calculated", harmonized.CalculatedOutstanding.String()),
				zap.Int("days_in_arrears", harmonized.DaysInArrears))
		}
	}

	if refreshed > 0 || divergent > 0 {
		ss.Logger.Info("status sweep completed",
			zap.Int("refreshed", refreshed),
			zap.Int("divergent", divergent))
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ss *StatusScheduler) RunNow() {
	ss.checkAndProcess()
}

func statusesChanged(before, after []loan.ScheduleEntry) bool {
	for i := range before {
		if before[i].PaymentStatus != after[i].PaymentStatus {
			return true
		}
	}
	return false
}
