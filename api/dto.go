/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY FORMAT:
  All monetary fields are JSON strings with two decimal places ("1066.19").
  Clients must never receive floats for money.

TYPES:
  Terms:     TermsRequest, GraceRequest, FeeRequest
  Schedule:  ScheduleEntryDTO, ScheduleResponse
  Loan:      LoanDTO
  Payment:   PaymentRequest, PaymentResponse, AllocationDTO, PaymentDTO
  Harmonize: HarmonizedDTO
  Product:   ProductDTO

VALIDATION:
  Validation is done in handlers and the loan package, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - product/product.go: ProductJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/product"
	"github.com/warp/loan-engine/store"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// TermsRequest carries loan terms in API requests. Enum fields left empty
// take the standard monthly defaults.
type TermsRequest struct {
	Principal          string        `json:"principal"`
	AnnualInterestRate string        `json:"annual_interest_rate"`
	TermInPeriods      int           `json:"term_in_periods"`
	Frequency          string        `json:"frequency,omitempty"`
	InterestType       string        `json:"interest_type,omitempty"`
	AmortizationType   string        `json:"amortization_type,omitempty"`
	DaysInYear         string        `json:"days_in_year,omitempty"`
	DaysInMonth        string        `json:"days_in_month,omitempty"`
	DisbursementDate   string        `json:"disbursement_date"`
	FirstPaymentDate   string        `json:"first_payment_date,omitempty"`
	Grace              *GraceRequest `json:"grace,omitempty"`
	DisbursementFees   []FeeRequest  `json:"disbursement_fees,omitempty"`
	InstallmentFees    []FeeRequest  `json:"installment_fees,omitempty"`
}

// GraceRequest configures the grace period of a loan.
type GraceRequest struct {
	Type string `json:"type"`
	Days int    `json:"days,omitempty"`
}

// FeeRequest is a single named fee in a request.
type FeeRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// PaymentRequest records a repayment against a loan. Strategy defaults to
// the full waterfall; paid_at defaults to today.
type PaymentRequest struct {
	Amount   string `json:"amount"`
	Strategy string `json:"strategy,omitempty"`
	PaidAt   string `json:"paid_at,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ScheduleEntryDTO represents one installment row in API responses.
type ScheduleEntryDTO struct {
	InstallmentNumber  int    `json:"installment_number"`
	DueDate            string `json:"due_date"`
	PrincipalAmount    string `json:"principal_amount"`
	InterestAmount     string `json:"interest_amount"`
	FeeAmount          string `json:"fee_amount"`
	TotalAmount        string `json:"total_amount"`
	OutstandingBalance string `json:"outstanding_balance"`
	DaysInPeriod       int    `json:"days_in_period"`
	IsGracePeriod      bool   `json:"is_grace_period,omitempty"`
	PaidAmount         string `json:"paid_amount"`
	OutstandingAmount  string `json:"outstanding_amount"`
	PaymentStatus      string `json:"payment_status"`
}

// ScheduleResponse wraps a generated schedule with its aggregate totals.
type ScheduleResponse struct {
	Entries         []ScheduleEntryDTO `json:"entries"`
	TotalPrincipal  string             `json:"total_principal"`
	TotalInterest   string             `json:"total_interest"`
	TotalFees       string             `json:"total_fees"`
	TotalAmount     string             `json:"total_amount"`
	PeriodicPayment string             `json:"periodic_payment"`
}

// LoanDTO represents a stored loan in API responses.
type LoanDTO struct {
	ID                 string `json:"id"`
	Principal          string `json:"principal"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	TermInPeriods      int    `json:"term_in_periods"`
	Frequency          string `json:"frequency"`
	InterestType       string `json:"interest_type"`
	AmortizationType   string `json:"amortization_type"`
	DisbursementDate   string `json:"disbursement_date"`
	OutstandingBalance string `json:"outstanding_balance"`
	PeriodicPayment    string `json:"periodic_payment"`
	TotalInterest      string `json:"total_interest"`
	TotalFees          string `json:"total_fees"`
	TotalAmount        string `json:"total_amount"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// AllocationDTO is the per-bucket split of a payment.
type AllocationDTO struct {
	Penalties string `json:"penalties"`
	Fees      string `json:"fees"`
	Interest  string `json:"interest"`
	Principal string `json:"principal"`
}

// PaymentResponse is returned after a repayment is applied.
type PaymentResponse struct {
	PaymentID          string        `json:"payment_id"`
	Amount             string        `json:"amount"`
	Strategy           string        `json:"strategy"`
	Allocation         AllocationDTO `json:"allocation"`
	Overpayment        string        `json:"overpayment"`
	OutstandingBalance string        `json:"outstanding_balance"`
	LoanStatus         string        `json:"loan_status"`
}

// PaymentDTO represents a recorded payment in history responses.
type PaymentDTO struct {
	ID          string        `json:"id"`
	Amount      string        `json:"amount"`
	Strategy    string        `json:"strategy"`
	Allocation  AllocationDTO `json:"allocation"`
	Overpayment string        `json:"overpayment"`
	PaidAt      string        `json:"paid_at"`
}

// HarmonizedDTO is the recomputed, display/audit view of a loan.
type HarmonizedDTO struct {
	CalculatedOutstanding string  `json:"calculated_outstanding"`
	StoredOutstanding     string  `json:"stored_outstanding"`
	CorrectedInterestRate string  `json:"corrected_interest_rate"`
	DaysInArrears         int     `json:"days_in_arrears"`
	ScheduleConsistent    bool    `json:"schedule_consistent"`
	TotalScheduledAmount  string  `json:"total_scheduled_amount"`
	TotalPaidAmount       string  `json:"total_paid_amount"`
	LastPaymentDate       *string `json:"last_payment_date,omitempty"`
	NextPaymentDate       *string `json:"next_payment_date,omitempty"`
}

// ProductDTO represents a catalog product in API responses.
type ProductDTO struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Config product.ProductJSON `json:"config"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toScheduleEntryDTO(e loan.ScheduleEntry) ScheduleEntryDTO {
	return ScheduleEntryDTO{
		InstallmentNumber:  e.InstallmentNumber,
		DueDate:            e.DueDate.Format("2006-01-02"),
		PrincipalAmount:    e.PrincipalAmount.StringFixed(2),
		InterestAmount:     e.InterestAmount.StringFixed(2),
		FeeAmount:          e.FeeAmount.StringFixed(2),
		TotalAmount:        e.TotalAmount.StringFixed(2),
		OutstandingBalance: e.OutstandingBalance.StringFixed(2),
		DaysInPeriod:       e.DaysInPeriod,
		IsGracePeriod:      e.IsGracePeriod,
		PaidAmount:         e.PaidAmount.StringFixed(2),
		OutstandingAmount:  e.OutstandingAmount.StringFixed(2),
		PaymentStatus:      string(e.PaymentStatus),
	}
}

func toScheduleResponse(entries []loan.ScheduleEntry, result *loan.ScheduleResult) ScheduleResponse {
	dtos := make([]ScheduleEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toScheduleEntryDTO(e)
	}
	return ScheduleResponse{
		Entries:         dtos,
		TotalPrincipal:  result.TotalPrincipal.StringFixed(2),
		TotalInterest:   result.TotalInterest.StringFixed(2),
		TotalFees:       loan.TotalFees(entries).StringFixed(2),
		TotalAmount:     sumTotals(entries).StringFixed(2),
		PeriodicPayment: result.PeriodicPayment.StringFixed(2),
	}
}

func toLoanDTO(l *store.Loan) LoanDTO {
	return LoanDTO{
		ID:                 l.ID.String(),
		Principal:          l.Terms.Principal.StringFixed(2),
		AnnualInterestRate: l.Terms.AnnualInterestRate.String(),
		TermInPeriods:      l.Terms.TermInPeriods,
		Frequency:          string(l.Terms.Frequency),
		InterestType:       string(l.Terms.InterestType),
		AmortizationType:   string(l.Terms.AmortizationType),
		DisbursementDate:   l.Terms.DisbursementDate.Format("2006-01-02"),
		OutstandingBalance: l.OutstandingBalance.StringFixed(2),
		PeriodicPayment:    l.PeriodicPayment.StringFixed(2),
		TotalInterest:      l.TotalInterest.StringFixed(2),
		TotalFees:          l.TotalFees.StringFixed(2),
		TotalAmount:        l.TotalAmount.StringFixed(2),
		Status:             string(l.Status),
		CreatedAt:          l.CreatedAt.Format(time.RFC3339),
	}
}

func toAllocationDTO(a loan.RepaymentAllocation) AllocationDTO {
	return AllocationDTO{
		Penalties: a.Penalties.StringFixed(2),
		Fees:      a.Fees.StringFixed(2),
		Interest:  a.Interest.StringFixed(2),
		Principal: a.Principal.StringFixed(2),
	}
}

func toPaymentDTO(p *store.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID.String(),
		Amount:      p.Amount.StringFixed(2),
		Strategy:    string(p.Strategy),
		Allocation:  toAllocationDTO(p.Allocation),
		Overpayment: p.Overpayment.StringFixed(2),
		PaidAt:      p.PaidAt.Format("2006-01-02"),
	}
}

func toHarmonizedDTO(h loan.HarmonizedLoanCalculation, stored decimal.Decimal) HarmonizedDTO {
	dto := HarmonizedDTO{
		CalculatedOutstanding: h.CalculatedOutstanding.StringFixed(2),
		StoredOutstanding:     stored.StringFixed(2),
		CorrectedInterestRate: h.CorrectedInterestRate.String(),
		DaysInArrears:         h.DaysInArrears,
		ScheduleConsistent:    h.ScheduleConsistent,
		TotalScheduledAmount:  h.TotalScheduledAmount.StringFixed(2),
		TotalPaidAmount:       h.TotalPaidAmount.StringFixed(2),
	}
	if h.LastPaymentDate != nil {
		dto.LastPaymentDate = strPtr(h.LastPaymentDate.Format("2006-01-02"))
	}
	if h.NextPaymentDate != nil {
		dto.NextPaymentDate = strPtr(h.NextPaymentDate.Format("2006-01-02"))
	}
	return dto
}

func sumTotals(entries []loan.ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.TotalAmount)
	}
	return total
}

func strPtr(s string) *string {
	return &s
}
