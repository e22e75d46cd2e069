package billing

import (
	"sort"
	"time"
)

// BaselineMonthCount is the required number of historical months backing a baseline.
const BaselineMonthCount = 12

// MonthlyUsage is one normalized month derived from a utility bill.
// Immutable once created.
type MonthlyUsage struct {
	Month             string  `json:"month"`
	Year              int     `json:"year"`
	KWhUsage          float64 `json:"kwh_usage"`
	TotalCost         float64 `json:"total_cost"`
	CoolingDegreeDays float64 `json:"cooling_degree_days"`
	HeatingDegreeDays float64 `json:"heating_degree_days"`
}

// BaselineData is a customer+facility expected-usage profile backed by
// exactly 12 historical months. Recomputation creates a new instance; an
// established baseline never mutates.
type BaselineData struct {
	ID              string         `json:"id"`
	CustomerID      string         `json:"customer_id"`
	FacilityID      string         `json:"facility_id"`
	EstablishedDate time.Time      `json:"established_date"`
	HistoricalUsage []MonthlyUsage `json:"historical_usage"`
	AvgMonthlyKWh   float64        `json:"avg_monthly_kwh"`
	AvgMonthlyCost  float64        `json:"avg_monthly_cost"`
	WeatherFactor   float64        `json:"weather_factor"`
}

// NewBaseline builds a baseline from exactly 12 monthly records, computing
// the averages and the weather factor from the same months.
func NewBaseline(id, customerID, facilityID string, establishedDate time.Time, months []MonthlyUsage) (*BaselineData, error) {
	if customerID == "" || facilityID == "" {
		return nil, ErrInvalidBill
	}
	if len(months) != BaselineMonthCount {
		return nil, ErrBaselineMonths
	}

	var sumKWh, sumCost float64
	for _, month := range months {
		sumKWh += month.KWhUsage
		sumCost += month.TotalCost
	}

	history := make([]MonthlyUsage, len(months))
	copy(history, months)

	return &BaselineData{
		ID:              id,
		CustomerID:      customerID,
		FacilityID:      facilityID,
		EstablishedDate: establishedDate,
		HistoricalUsage: history,
		AvgMonthlyKWh:   sumKWh / BaselineMonthCount,
		AvgMonthlyCost:  sumCost / BaselineMonthCount,
		WeatherFactor:   WeatherSensitivity(history),
	}, nil
}

// MonthFor returns the baseline month matching the same calendar month one
// year prior to the given bill year.
func (b *BaselineData) MonthFor(month string, billYear int) (MonthlyUsage, bool) {
	for _, usage := range b.HistoricalUsage {
		if usage.Month == month && usage.Year == billYear-1 {
			return usage, true
		}
	}
	return MonthlyUsage{}, false
}

// MonthlyUsageFromBill maps a bill to its normalized monthly record.
// Degree days default to zero when the bill carries no weather data.
func MonthlyUsageFromBill(bill UtilityBill) MonthlyUsage {
	return MonthlyUsage{
		Month:             bill.BillDate.Month().String(),
		Year:              bill.BillDate.Year(),
		KWhUsage:          bill.KWhUsage,
		TotalCost:         bill.TotalCost,
		CoolingDegreeDays: bill.CoolingDegreeDays(),
		HeatingDegreeDays: bill.HeatingDegreeDays(),
	}
}

// MostRecentBills sorts bills ascending by bill date and returns the last n.
// The input slice is not modified.
func MostRecentBills(bills []UtilityBill, n int) []UtilityBill {
	sorted := make([]UtilityBill, len(bills))
	copy(sorted, bills)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BillDate.Before(sorted[j].BillDate)
	})
	if len(sorted) <= n {
		return sorted
	}
	return sorted[len(sorted)-n:]
}
