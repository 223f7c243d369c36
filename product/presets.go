/*
presets.go - Pre-built loan product configurations

PURPOSE:
  Provides ready-to-use product configurations for common lending
  patterns. These are convenience functions that set up terms + fees
  according to typical microfinance products.

AVAILABLE PRODUCTS:
  StandardMonthlyProduct: Annuity loan, declining balance, 360/30
  FlatRateMicroloan:      Short flat-rate loan with origination fee
  WeeklyGroupProduct:     Weekly equal-principal loan, actual/actual

CUSTOMIZATION:
  These are starting points. Real deployments often need:
  - Portfolio-specific day count conventions
  - Grace periods aligned to disbursement cycles
  - Tiered fee structures

EXAMPLE:
  config := product.StandardMonthlyProduct("std-2025", dec(12000), dec(12), 12, disbursed)
  result, err := loan.Generate(config.Terms)
*/
package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// ProductConfig bundles terms and fees of a named product.
type ProductConfig struct {
	ID    string
	Name  string
	Terms loan.LoanTerms
	Fees  Fees
}

// StandardMonthlyProduct is a level-payment declining-balance loan on the
// 360/30 convention, the most common configuration in the portfolio.
func StandardMonthlyProduct(id string, principal, annualRate decimal.Decimal, termMonths int, disbursed time.Time) ProductConfig {
	return ProductConfig{
		ID:   id,
		Name: "Standard Monthly Loan",
		Terms: loan.LoanTerms{
			Principal:          principal,
			AnnualInterestRate: annualRate,
			TermInPeriods:      termMonths,
			Frequency:          loan.FrequencyMonthly,
			InterestType:       loan.InterestDecliningBalance,
			AmortizationType:   loan.AmortizationEqualInstallments,
			DaysInYearType:     loan.DaysInYear360,
			DaysInMonthType:    loan.DaysInMonth30,
			DisbursementDate:   disbursed,
			GracePeriodType:    loan.GraceNone,
		},
	}
}

// FlatRateMicroloan is a short-term flat-rate loan. Interest is computed on
// the original principal for the full term and spread evenly, with a fixed
// origination fee collected on the first installment.
func FlatRateMicroloan(id string, principal, annualRate, originationFee decimal.Decimal, termMonths int, disbursed time.Time) ProductConfig {
	return ProductConfig{
		ID:   id,
		Name: "Flat Rate Microloan",
		Terms: loan.LoanTerms{
			Principal:          principal,
			AnnualInterestRate: annualRate,
			TermInPeriods:      termMonths,
			Frequency:          loan.FrequencyMonthly,
			InterestType:       loan.InterestFlatRate,
			AmortizationType:   loan.AmortizationEqualInstallments,
			DaysInYearType:     loan.DaysInYear360,
			DaysInMonthType:    loan.DaysInMonth30,
			DisbursementDate:   disbursed,
			GracePeriodType:    loan.GraceNone,
		},
		Fees: Fees{
			Disbursement: []loan.Fee{{Name: "origination", Amount: originationFee}},
		},
	}
}

// WeeklyGroupProduct is a weekly equal-principal group loan on actual
// calendar days, with a small service fee on every installment.
func WeeklyGroupProduct(id string, principal, annualRate, serviceFee decimal.Decimal, termWeeks int, disbursed time.Time) ProductConfig {
	return ProductConfig{
		ID:   id,
		Name: "Weekly Group Loan",
		Terms: loan.LoanTerms{
			Principal:          principal,
			AnnualInterestRate: annualRate,
			TermInPeriods:      termWeeks,
			Frequency:          loan.FrequencyWeekly,
			InterestType:       loan.InterestDecliningBalance,
			AmortizationType:   loan.AmortizationEqualPrincipal,
			DaysInYearType:     loan.DaysInYearActual,
			DaysInMonthType:    loan.DaysInMonthActual,
			DisbursementDate:   disbursed,
			GracePeriodType:    loan.GraceNone,
		},
		Fees: Fees{
			Installment: []loan.Fee{{Name: "service", Amount: serviceFee}},
		},
	}
}

// Catalog returns the built-in product configurations with representative
// terms, used by the API to expose what the engine supports.
func Catalog(asOf time.Time) []ProductConfig {
	return []ProductConfig{
		StandardMonthlyProduct("standard-monthly", decimal.NewFromInt(12000), decimal.NewFromInt(12), 12, asOf),
		FlatRateMicroloan("flat-microloan", decimal.NewFromInt(1200), decimal.NewFromInt(10), decimal.NewFromInt(50), 12, asOf),
		WeeklyGroupProduct("weekly-group", decimal.NewFromInt(2600), decimal.NewFromFloat(17.5), decimal.NewFromInt(2), 26, asOf),
	}
}
