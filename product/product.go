/*
Package product provides JSON to Go loan-product conversion.

PURPOSE:
  Converts JSON product definitions into loan.LoanTerms and fee lists.
  This enables product configuration without code changes - credit
  officers can define products in JSON, and the factory creates the
  proper Go structs.

JSON SCHEMA:
  {
    "id": "standard-monthly",
    "name": "Standard Monthly Loan",
    "principal": "12000",
    "annual_interest_rate": "12",
    "term_in_periods": 12,
    "frequency": "monthly",
    "interest_type": "declining_balance",
    "amortization_type": "equal_installments",
    "days_in_year": "360",
    "days_in_month": "30",
    "disbursement_date": "2025-01-01",
    "grace": {"type": "principal_only", "days": 31},
    "fees": {
      "disbursement": [{"name": "origination", "amount": "50"}],
      "installment": [{"name": "service", "amount": "10"}]
    }
  }

KEY FEATURES:
  - Validates JSON structure and enum values
  - Sets sensible defaults (monthly, declining balance, 360/30)
  - Decimal fields are JSON strings so amounts round-trip exactly

USAGE:
  factory := product.NewTermsFactory()
  terms, fees, err := factory.ParseProduct(jsonStr)
  result, err := loan.Generate(terms)
  entries := loan.InjectFees(result.Entries, fees.Disbursement, fees.Installment)

SEE ALSO:
  - loan/types.go: LoanTerms and enum definitions
  - product/presets.go: Go-based product configurations
*/
package product

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProductJSON is the JSON representation of a loan product.
type ProductJSON struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Principal          string     `json:"principal"`
	AnnualInterestRate string     `json:"annual_interest_rate"`
	TermInPeriods      int        `json:"term_in_periods"`
	Frequency          string     `json:"frequency,omitempty"`
	InterestType       string     `json:"interest_type,omitempty"`
	AmortizationType   string     `json:"amortization_type,omitempty"`
	DaysInYear         string     `json:"days_in_year,omitempty"`
	DaysInMonth        string     `json:"days_in_month,omitempty"`
	DisbursementDate   string     `json:"disbursement_date"`
	FirstPaymentDate   string     `json:"first_payment_date,omitempty"`
	Grace              *GraceJSON `json:"grace,omitempty"`
	Fees               *FeesJSON  `json:"fees,omitempty"`
}

// GraceJSON represents grace period configuration.
type GraceJSON struct {
	Type string `json:"type"` // none, principal_only, interest_only, principal_and_interest
	Days int    `json:"days,omitempty"`
}

// FeesJSON represents the fee lists attached to a product.
type FeesJSON struct {
	Disbursement []FeeJSON `json:"disbursement,omitempty"`
	Installment  []FeeJSON `json:"installment,omitempty"`
}

// FeeJSON represents a single named fee.
type FeeJSON struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Fees holds the parsed fee lists of a product.
type Fees struct {
	Disbursement []loan.Fee
	Installment  []loan.Fee
}

// =============================================================================
// TERMS FACTORY
// =============================================================================

// TermsFactory converts JSON products to loan terms.
type TermsFactory struct{}

// NewTermsFactory creates a new terms factory.
func NewTermsFactory() *TermsFactory {
	return &TermsFactory{}
}

// ParseProduct parses a JSON string into loan terms and fee lists.
func (f *TermsFactory) ParseProduct(jsonStr string) (loan.LoanTerms, Fees, error) {
	var pj ProductJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return loan.LoanTerms{}, Fees{}, fmt.Errorf("failed to parse product JSON: %w", err)
	}

	return f.FromJSON(pj)
}

// FromJSON converts ProductJSON to loan terms and fee lists.
func (f *TermsFactory) FromJSON(pj ProductJSON) (loan.LoanTerms, Fees, error) {
	terms := loan.LoanTerms{
		TermInPeriods:    pj.TermInPeriods,
		Frequency:        parseFrequency(pj.Frequency),
		InterestType:     parseInterestType(pj.InterestType),
		AmortizationType: parseAmortizationType(pj.AmortizationType),
		DaysInYearType:   parseDaysInYear(pj.DaysInYear),
		DaysInMonthType:  parseDaysInMonth(pj.DaysInMonth),
		GracePeriodType:  loan.GraceNone,
	}

	var err error
	if terms.Principal, err = parseAmount("principal", pj.Principal); err != nil {
		return loan.LoanTerms{}, Fees{}, err
	}
	if terms.AnnualInterestRate, err = parseAmount("annual_interest_rate", pj.AnnualInterestRate); err != nil {
		return loan.LoanTerms{}, Fees{}, err
	}
	if terms.DisbursementDate, err = parseDate("disbursement_date", pj.DisbursementDate); err != nil {
		return loan.LoanTerms{}, Fees{}, err
	}
	if pj.FirstPaymentDate != "" {
		first, err := parseDate("first_payment_date", pj.FirstPaymentDate)
		if err != nil {
			return loan.LoanTerms{}, Fees{}, err
		}
		terms.FirstPaymentDate = &first
	}

	if pj.Grace != nil {
		terms.GracePeriodType = loan.GracePeriodType(pj.Grace.Type)
		terms.GracePeriodDays = pj.Grace.Days
	}

	fees, err := parseFees(pj.Fees)
	if err != nil {
		return loan.LoanTerms{}, Fees{}, err
	}

	return terms, fees, nil
}

// ToJSON converts loan terms and fees back to ProductJSON.
func (f *TermsFactory) ToJSON(id, name string, terms loan.LoanTerms, fees Fees) ProductJSON {
	pj := ProductJSON{
		ID:                 id,
		Name:               name,
		Principal:          terms.Principal.StringFixed(2),
		AnnualInterestRate: terms.AnnualInterestRate.String(),
		TermInPeriods:      terms.TermInPeriods,
		Frequency:          string(terms.Frequency),
		InterestType:       string(terms.InterestType),
		AmortizationType:   string(terms.AmortizationType),
		DaysInYear:         string(terms.DaysInYearType),
		DaysInMonth:        string(terms.DaysInMonthType),
		DisbursementDate:   terms.DisbursementDate.Format("2006-01-02"),
	}
	if terms.FirstPaymentDate != nil {
		pj.FirstPaymentDate = terms.FirstPaymentDate.Format("2006-01-02")
	}
	if terms.GracePeriodType != loan.GraceNone {
		pj.Grace = &GraceJSON{Type: string(terms.GracePeriodType), Days: terms.GracePeriodDays}
	}
	if len(fees.Disbursement) > 0 || len(fees.Installment) > 0 {
		pj.Fees = &FeesJSON{}
		for _, fee := range fees.Disbursement {
			pj.Fees.Disbursement = append(pj.Fees.Disbursement, FeeJSON{Name: fee.Name, Amount: fee.Amount.StringFixed(2)})
		}
		for _, fee := range fees.Installment {
			pj.Fees.Installment = append(pj.Fees.Installment, FeeJSON{Name: fee.Name, Amount: fee.Amount.StringFixed(2)})
		}
	}
	return pj
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseFrequency(s string) loan.Frequency {
	if s == "" {
		return loan.FrequencyMonthly
	}
	return loan.Frequency(s)
}

func parseInterestType(s string) loan.InterestType {
	if s == "" {
		return loan.InterestDecliningBalance
	}
	return loan.InterestType(s)
}

func parseAmortizationType(s string) loan.AmortizationType {
	if s == "" {
		return loan.AmortizationEqualInstallments
	}
	return loan.AmortizationType(s)
}

func parseDaysInYear(s string) loan.DaysInYearType {
	if s == "" {
		return loan.DaysInYear360
	}
	return loan.DaysInYearType(s)
}

func parseDaysInMonth(s string) loan.DaysInMonthType {
	if s == "" {
		return loan.DaysInMonth30
	}
	return loan.DaysInMonthType(s)
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("product field %q is required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product field %q: %w", field, err)
	}
	return d, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("product field %q: %w", field, err)
	}
	return t, nil
}

func parseFees(fj *FeesJSON) (Fees, error) {
	var fees Fees
	if fj == nil {
		return fees, nil
	}
	for _, f := range fj.Disbursement {
		amount, err := parseAmount("fees.disbursement.amount", f.Amount)
		if err != nil {
			return Fees{}, err
		}
		fees.Disbursement = append(fees.Disbursement, loan.Fee{Name: f.Name, Amount: amount})
	}
	for _, f := range fj.Installment {
		amount, err := parseAmount("fees.installment.amount", f.Amount)
		if err != nil {
			return Fees{}, err
		}
		fees.Installment = append(fees.Installment, loan.Fee{Name: f.Name, Amount: amount})
	}
	return fees, nil
}
