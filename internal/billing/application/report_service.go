package application

import (
	"fmt"
	"strings"

	billing "greenhouse-cloud/internal/billing/domain"
)

// ChartPoint is one chart-ready tuple of a monthly savings report.
type ChartPoint struct {
	MonthLabel        string  `json:"month_label"`
	CostSavings       float64 `json:"cost_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
	KWhSavings        float64 `json:"kwh_savings"`
}

// MonthlySavingsReport aggregates a sequence of savings calculations.
type MonthlySavingsReport struct {
	CalculationCount     int          `json:"calculation_count"`
	GuaranteeMetCount    int          `json:"guarantee_met_count"`
	TotalBenefit         float64      `json:"total_benefit"`
	TotalProviderShare   float64      `json:"total_provider_share"`
	TotalCustomerShare   float64      `json:"total_customer_share"`
	AvgSavingsPercentage float64      `json:"avg_savings_percentage"`
	Chart                []ChartPoint `json:"chart"`
}

// ReportService renders aggregate reports and customer statements. It holds
// only the billing terms; all inputs are immutable calculation records.
type ReportService struct {
	terms BillingTerms
}

// NewReportService constructs the service.
func NewReportService(terms BillingTerms) (*ReportService, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return &ReportService{terms: terms}, nil
}

// MonthlyReport aggregates benefit, shares and mean savings percentage
// across calculations. An empty input yields zeroed aggregates, never NaN.
func (s *ReportService) MonthlyReport(calcs []billing.SavingsCalculation) MonthlySavingsReport {
	report := MonthlySavingsReport{CalculationCount: len(calcs)}
	if len(calcs) == 0 {
		return report
	}

	var percentageSum float64
	for _, calc := range calcs {
		report.TotalBenefit += calc.TotalBenefit
		report.TotalProviderShare += calc.ProviderShare
		report.TotalCustomerShare += calc.CustomerShare
		percentageSum += calc.SavingsPercentage
		if calc.PerformanceGuaranteeMet {
			report.GuaranteeMetCount++
		}
		report.Chart = append(report.Chart, ChartPoint{
			MonthLabel:        calc.CalculationDate.Format("Jan 2006"),
			CostSavings:       calc.CostSavings,
			SavingsPercentage: calc.SavingsPercentage * 100,
			KWhSavings:        calc.KWhSavings,
		})
	}
	report.AvgSavingsPercentage = percentageSum / float64(len(calcs))
	return report
}

// CustomerStatement renders a fixed-layout plain-text statement for one
// calculation and its invoice, if any. Pure string interpolation of already
// computed fields.
func (s *ReportService) CustomerStatement(calc *billing.SavingsCalculation, invoice *billing.BillingRecord) string {
	if calc == nil {
		return ""
	}
	cur := s.terms.Currency

	var b strings.Builder
	fmt.Fprintf(&b, "==============================================\n")
	fmt.Fprintf(&b, "        ENERGY SAVINGS STATEMENT\n")
	fmt.Fprintf(&b, "==============================================\n")
	fmt.Fprintf(&b, "Calculation:          %s\n", calc.ID)
	fmt.Fprintf(&b, "Date:                 %s\n", calc.CalculationDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Customer:             %s\n", calc.CustomerID)
	fmt.Fprintf(&b, "Facility:             %s\n", calc.FacilityID)
	fmt.Fprintf(&b, "----------------------------------------------\n")
	fmt.Fprintf(&b, "Baseline Usage:       %.1f kWh\n", calc.BaselineUsage)
	fmt.Fprintf(&b, "Weather-Adjusted:     %.1f kWh\n", calc.WeatherAdjustedBaseline)
	fmt.Fprintf(&b, "Actual Usage:         %.1f kWh\n", calc.ActualUsage)
	fmt.Fprintf(&b, "kWh Savings:          %.1f kWh\n", calc.KWhSavings)
	fmt.Fprintf(&b, "Cost Savings:         %s %.2f\n", cur, calc.CostSavings)
	fmt.Fprintf(&b, "Savings Percentage:   %.1f%%\n", calc.SavingsPercentage*100)
	fmt.Fprintf(&b, "Demand Response:      %s %.2f\n", cur, calc.DemandResponseRevenue)
	fmt.Fprintf(&b, "Total Benefit:        %s %.2f\n", cur, calc.TotalBenefit)
	fmt.Fprintf(&b, "----------------------------------------------\n")
	if calc.PerformanceGuaranteeMet {
		fmt.Fprintf(&b, "Performance Guarantee: MET\n")
		fmt.Fprintf(&b, "Provider Share:       %s %.2f\n", cur, calc.ProviderShare)
		fmt.Fprintf(&b, "Customer Share:       %s %.2f\n", cur, calc.CustomerShare)
	} else {
		fmt.Fprintf(&b, "Performance Guarantee: NOT MET\n")
		fmt.Fprintf(&b, "Service is free this period.\n")
		fmt.Fprintf(&b, "Customer Share:       %s %.2f\n", cur, calc.CustomerShare)
	}
	if invoice != nil {
		fmt.Fprintf(&b, "----------------------------------------------\n")
		fmt.Fprintf(&b, "Invoice:              %s\n", invoice.InvoiceNumber)
		fmt.Fprintf(&b, "Amount Due:           %s %.2f\n", cur, invoice.Amount)
		fmt.Fprintf(&b, "Due Date:             %s\n", invoice.DueDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "Status:               %s\n", invoice.Status)
	}
	fmt.Fprintf(&b, "----------------------------------------------\n")
	if calc.ThirdPartyVerified && calc.VerificationDate != nil {
		fmt.Fprintf(&b, "Verification:         verified %s\n", calc.VerificationDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "Verification:         pending\n")
	}
	fmt.Fprintf(&b, "==============================================\n")
	return b.String()
}
