package billing

import "math"

const (
	// DefaultDegreeDayBase is the balance-point temperature in Fahrenheit.
	DefaultDegreeDayBase = 65.0
	// DefaultWeatherSensitivity is used when no baseline-derived factor exists.
	DefaultWeatherSensitivity = 0.02
)

// DegreeDays converts an average temperature into degree days against a base
// temperature. The result is never negative.
func DegreeDays(avgTemp, baseTemp float64) float64 {
	return math.Max(0, math.Abs(avgTemp-baseTemp))
}

// NormalizeUsage applies a multiplicative weather adjustment to usage.
// The adjustment scales the usage passed in: callers adjust the baseline
// month's kWh toward the current bill's conditions by passing the baseline
// kWh as usage, the current bill's CDD as actualCDD and the baseline month's
// CDD as baselineCDD.
func NormalizeUsage(usage, actualCDD, baselineCDD, sensitivity float64) float64 {
	adjustment := (actualCDD - baselineCDD) * sensitivity
	return usage * (1 - adjustment)
}

// WeatherSensitivity derives a dimensionless weather-sensitivity coefficient
// from a usage history: the least-squares slope of kWh regressed on CDD,
// normalized by mean usage, absolute value. A degenerate history (constant
// CDD or zero mean usage) yields 0 rather than NaN.
func WeatherSensitivity(history []MonthlyUsage) float64 {
	if len(history) == 0 {
		return 0
	}

	var sumCDD, sumKWh float64
	for _, month := range history {
		sumCDD += month.CoolingDegreeDays
		sumKWh += month.KWhUsage
	}
	n := float64(len(history))
	meanCDD := sumCDD / n
	meanKWh := sumKWh / n

	var covariance, variance float64
	for _, month := range history {
		dc := month.CoolingDegreeDays - meanCDD
		covariance += dc * (month.KWhUsage - meanKWh)
		variance += dc * dc
	}
	if variance == 0 || meanKWh == 0 {
		return 0
	}

	factor := math.Abs(covariance / variance / meanKWh)
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 0
	}
	return factor
}
