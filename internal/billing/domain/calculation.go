package billing

import (
	"math"
	"time"
)

// SavingsCalculation is the outcome of comparing one bill against a
// weather-adjusted baseline. Immutable once created; verification may attach
// a flag and date without altering financial figures.
type SavingsCalculation struct {
	ID                      string     `json:"id"`
	CalculationDate         time.Time  `json:"calculation_date"`
	BillID                  string     `json:"bill_id"`
	BaselineID              string     `json:"baseline_id"`
	CustomerID              string     `json:"customer_id"`
	FacilityID              string     `json:"facility_id"`
	BaselineUsage           float64    `json:"baseline_usage"`
	ActualUsage             float64    `json:"actual_usage"`
	WeatherAdjustedBaseline float64    `json:"weather_adjusted_baseline"`
	KWhSavings              float64    `json:"kwh_savings"`
	CostSavings             float64    `json:"cost_savings"`
	SavingsPercentage       float64    `json:"savings_percentage"`
	DemandResponseRevenue   float64    `json:"demand_response_revenue"`
	TotalBenefit            float64    `json:"total_benefit"`
	ProviderShare           float64    `json:"provider_share"`
	CustomerShare           float64    `json:"customer_share"`
	PerformanceGuaranteeMet bool       `json:"performance_guarantee_met"`
	ThirdPartyVerified      bool       `json:"third_party_verified"`
	VerificationDate        *time.Time `json:"verification_date,omitempty"`
}

// SavingsFigures is the pure numeric result of the savings formulas,
// independent of identity and timestamps.
type SavingsFigures struct {
	BaselineUsage           float64
	ActualUsage             float64
	WeatherAdjustedBaseline float64
	KWhSavings              float64
	CostSavings             float64
	SavingsPercentage       float64
	TotalBenefit            float64
	ProviderShare           float64
	CustomerShare           float64
	PerformanceGuaranteeMet bool
}

// ComputeSavings runs the savings formulas for one bill against one baseline
// month. The baseline month's kWh is the value being weather-corrected to the
// bill's conditions. Zero baseline usage yields zero savings rather than NaN.
func ComputeSavings(bill UtilityBill, baselineMonth MonthlyUsage, weatherFactor, demandResponseRevenue, guaranteeThreshold, providerShareRate float64) SavingsFigures {
	adjusted := NormalizeUsage(baselineMonth.KWhUsage, bill.CoolingDegreeDays(), baselineMonth.CoolingDegreeDays, weatherFactor)

	figures := SavingsFigures{
		BaselineUsage:           baselineMonth.KWhUsage,
		ActualUsage:             bill.KWhUsage,
		WeatherAdjustedBaseline: adjusted,
	}

	figures.KWhSavings = math.Max(0, adjusted-bill.KWhUsage)

	var adjustedCostBaseline float64
	if baselineMonth.KWhUsage != 0 {
		adjustedCostBaseline = adjusted / baselineMonth.KWhUsage * baselineMonth.TotalCost
	}
	figures.CostSavings = math.Max(0, adjustedCostBaseline-bill.TotalCost)
	if adjustedCostBaseline != 0 {
		figures.SavingsPercentage = figures.CostSavings / adjustedCostBaseline
	}

	figures.TotalBenefit = figures.CostSavings + demandResponseRevenue
	figures.PerformanceGuaranteeMet = figures.SavingsPercentage >= guaranteeThreshold

	if figures.PerformanceGuaranteeMet {
		figures.ProviderShare = figures.TotalBenefit * providerShareRate
		figures.CustomerShare = figures.TotalBenefit * (1 - providerShareRate)
	} else {
		figures.ProviderShare = 0
		figures.CustomerShare = figures.TotalBenefit
	}
	return figures
}
