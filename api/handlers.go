/*
handlers.go - HTTP API handlers for the loan engine

PURPOSE:
  Exposes the amortization and repayment engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Schedule:
    POST   /api/schedule/preview       Generate a schedule without persisting

  Loans:
    GET    /api/loans                  List all loans
    POST   /api/loans                  Create loan and persist its schedule
    GET    /api/loans/{id}             Get loan details
    GET    /api/loans/{id}/schedule    Get the persisted schedule
    GET    /api/loans/{id}/harmonized  Recomputed audit view

  Payments:
    POST   /api/loans/{id}/payments    Apply a repayment
    GET    /api/loans/{id}/payments    Payment history

  Products:
    GET    /api/products               Built-in product catalog

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (interface, sqlite or in-memory)
  - Factory: JSON to loan terms conversion
  - Logger: Structured request-scope logging

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Loan not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/product"
	"github.com/warp/loan-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.Storage
	Factory *product.TermsFactory
	Logger  *zap.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:   st,
		Factory: product.NewTermsFactory(),
		Logger:  logger,
	}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// PreviewSchedule generates a schedule from posted terms without persisting.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req TermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	terms, fees, err := h.termsFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan terms", err)
		return
	}

	result, err := loan.Generate(terms)
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	entries := loan.InjectFees(result.Entries, fees.Disbursement, fees.Installment)
	writeJSON(w, http.StatusOK, toScheduleResponse(entries, result))
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// CreateLoan generates a schedule from posted terms and persists both the
// loan record and its full schedule.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req TermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	terms, fees, err := h.termsFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan terms", err)
		return
	}

	result, err := loan.Generate(terms)
	if err != nil {
		writeGenerateError(w, err)
		return
	}
	entries := loan.InjectFees(result.Entries, fees.Disbursement, fees.Installment)
	totalFees := loan.TotalFees(entries)
	totalAmount := sumTotals(entries)

	now := time.Now().UTC()
	l := &store.Loan{
		ID:                 uuid.New(),
		Terms:              terms,
		OutstandingBalance: totalAmount,
		PeriodicPayment:    result.PeriodicPayment,
		TotalInterest:      result.TotalInterest,
		TotalFees:          totalFees,
		TotalAmount:        totalAmount,
		Status:             store.LoanActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	ctx := r.Context()
	if err := h.Store.CreateLoan(ctx, l); err != nil {
		h.Logger.Error("create loan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create loan", err)
		return
	}
	if err := h.Store.ReplaceSchedule(ctx, l.ID, entries); err != nil {
		h.Logger.Error("persist schedule failed", zap.String("loan_id", l.ID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to persist schedule", err)
		return
	}

	h.Logger.Info("loan created",
		zap.String("loan_id", l.ID.String()),
		zap.String("principal", terms.Principal.String()),
		zap.Int("term", terms.TermInPeriods))

	writeJSON(w, http.StatusCreated, toLoanDTO(l))
}

// ListLoans returns all loans.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLoan returns a single loan.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l))
}

// GetSchedule returns the persisted schedule of a loan.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.Schedule(r.Context(), l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}

	dtos := make([]ScheduleEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toScheduleEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetHarmonized returns the recomputed audit view of a loan. The as_of query
// parameter (YYYY-MM-DD) defaults to today.
func (h *Handler) GetHarmonized(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if s := r.URL.Query().Get("as_of"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}

	entries, err := h.Store.Schedule(r.Context(), l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}

	harmonized := loan.Harmonize(loan.LoanSnapshot{
		StoredOutstanding:  l.OutstandingBalance,
		AnnualInterestRate: l.Terms.AnnualInterestRate,
		Entries:            entries,
	}, asOf)

	if !harmonized.ScheduleConsistent {
		h.Logger.Warn("stored balance diverges from schedule",
			zap.String("loan_id", l.ID.String()),
			zap.String("stored", l.OutstandingBalance.String()),
			zap.String("calculated", harmonized.CalculatedOutstanding.String()))
	}

	writeJSON(w, http.StatusOK, toHarmonizedDTO(harmonized, l.OutstandingBalance))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment applies a repayment to a loan: allocates it across the
// waterfall buckets, settles installments oldest first, refreshes statuses
// and persists the updated tracking fields together with a payment record.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Payment amount must be a positive decimal string", err)
		return
	}

	strategy := loan.AllocationStrategy(req.Strategy)
	if !strategy.Valid() {
		// Unknown strategies fall back to the full waterfall, and the
		// payment record reflects what was actually applied.
		strategy = loan.StrategyDefault
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		parsed, err := time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_at format (use YYYY-MM-DD)", err)
			return
		}
		paidAt = parsed
	}

	ctx := r.Context()
	entries, err := h.Store.Schedule(ctx, l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}

	// Balances are always rebuilt from stored rows immediately before
	// allocating, never carried between payments.
	balances, err := h.Store.BalancesFor(ctx, l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rebuild balances", err)
		return
	}
	allocation := loan.Allocate(amount, balances, strategy)
	applied := allocation.Total()
	overpayment := amount.Sub(applied)

	updated, remainder := loan.ApplyPayment(entries, applied, paidAt)
	overpayment = overpayment.Add(remainder)
	updated = loan.RefreshStatuses(updated, paidAt)

	outstanding := decimal.Zero
	for _, e := range updated {
		outstanding = outstanding.Add(e.OutstandingAmount)
	}

	if err := h.Store.SaveSchedule(ctx, l.ID, updated); err != nil {
		h.Logger.Error("persist payment tracking failed", zap.String("loan_id", l.ID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to persist schedule", err)
		return
	}

	payment := &store.Payment{
		ID:          uuid.New(),
		LoanID:      l.ID,
		Amount:      amount,
		Strategy:    strategy,
		Allocation:  allocation,
		Overpayment: overpayment,
		PaidAt:      paidAt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.RecordPayment(ctx, payment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}

	l.OutstandingBalance = outstanding
	l.UpdatedAt = time.Now().UTC()
	if outstanding.IsZero() {
		l.Status = store.LoanClosed
	}
	if err := h.Store.UpdateLoan(ctx, l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update loan", err)
		return
	}

	h.Logger.Info("payment recorded",
		zap.String("loan_id", l.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("strategy", string(strategy)),
		zap.String("overpayment", overpayment.String()))

	writeJSON(w, http.StatusCreated, PaymentResponse{
		PaymentID:          payment.ID.String(),
		Amount:             amount.StringFixed(2),
		Strategy:           string(strategy),
		Allocation:         toAllocationDTO(allocation),
		Overpayment:        overpayment.StringFixed(2),
		OutstandingBalance: outstanding.StringFixed(2),
		LoanStatus:         string(l.Status),
	})
}

// ListPayments returns the payment history of a loan, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	payments, err := h.Store.Payments(r.Context(), l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the built-in product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	catalog := product.Catalog(time.Now().UTC())
	dtos := make([]ProductDTO, len(catalog))
	for i, cfg := range catalog {
		dtos[i] = ProductDTO{
			ID:     cfg.ID,
			Name:   cfg.Name,
			Config: h.Factory.ToJSON(cfg.ID, cfg.Name, cfg.Terms, cfg.Fees),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// termsFromRequest maps a TermsRequest onto the product JSON schema so the
// factory's parsing and defaulting applies to ad-hoc requests too.
func (h *Handler) termsFromRequest(req TermsRequest) (loan.LoanTerms, product.Fees, error) {
	pj := product.ProductJSON{
		Principal:          req.Principal,
		AnnualInterestRate: req.AnnualInterestRate,
		TermInPeriods:      req.TermInPeriods,
		Frequency:          req.Frequency,
		InterestType:       req.InterestType,
		AmortizationType:   req.AmortizationType,
		DaysInYear:         req.DaysInYear,
		DaysInMonth:        req.DaysInMonth,
		DisbursementDate:   req.DisbursementDate,
		FirstPaymentDate:   req.FirstPaymentDate,
	}
	if req.Grace != nil {
		pj.Grace = &product.GraceJSON{Type: req.Grace.Type, Days: req.Grace.Days}
	}
	if len(req.DisbursementFees) > 0 || len(req.InstallmentFees) > 0 {
		pj.Fees = &product.FeesJSON{}
		for _, f := range req.DisbursementFees {
			pj.Fees.Disbursement = append(pj.Fees.Disbursement, product.FeeJSON{Name: f.Name, Amount: f.Amount})
		}
		for _, f := range req.InstallmentFees {
			pj.Fees.Installment = append(pj.Fees.Installment, product.FeeJSON{Name: f.Name, Amount: f.Amount})
		}
	}
	return h.Factory.FromJSON(pj)
}

// loadLoan parses the {id} URL parameter and fetches the loan, writing the
// error response itself when anything fails.
func (h *Handler) loadLoan(w http.ResponseWriter, r *http.Request) (*store.Loan, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return nil, false
	}

	l, err := h.Store.GetLoan(r.Context(), id)
	if errors.Is(err, store.ErrLoanNotFound) {
		writeError(w, http.StatusNotFound, "Loan not found", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get loan", err)
		return nil, false
	}
	return l, true
}

func writeGenerateError(w http.ResponseWriter, err error) {
	if loan.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid loan parameters", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to generate schedule", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
