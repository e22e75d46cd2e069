package billing

import (
	"fmt"
	"time"
)

// WeatherData carries the weather observations attached to a bill.
// Degree-day values are never negative.
type WeatherData struct {
	AvgTemperature    float64 `json:"avg_temperature"`
	PeakTemperature   float64 `json:"peak_temperature"`
	MinTemperature    float64 `json:"min_temperature"`
	CoolingDegreeDays float64 `json:"cooling_degree_days"`
	HeatingDegreeDays float64 `json:"heating_degree_days"`
}

// BillingPeriod is the start/end span a bill covers.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UtilityBill is one real-world utility invoice. Bills are immutable once
// issued; they are created by an external ingestion process and consumed by
// baseline establishment and savings calculation.
type UtilityBill struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customer_id"`
	FacilityID      string        `json:"facility_id"`
	BillDate        time.Time     `json:"bill_date"`
	Period          BillingPeriod `json:"period"`
	KWhUsage        float64       `json:"kwh_usage"`
	DemandKW        float64       `json:"demand_kw"`
	TotalCost       float64       `json:"total_cost"`
	RateSchedule    string        `json:"rate_schedule"`
	UtilityProvider string        `json:"utility_provider"`
	Weather         *WeatherData  `json:"weather,omitempty"`
}

// Validate enforces the ingestion contract. Invalid bills must be rejected
// before they reach baseline establishment or savings calculation.
func (b UtilityBill) Validate() error {
	if b.CustomerID == "" {
		return fmt.Errorf("%w: empty customer id", ErrInvalidBill)
	}
	if b.FacilityID == "" {
		return fmt.Errorf("%w: empty facility id", ErrInvalidBill)
	}
	if b.BillDate.IsZero() {
		return fmt.Errorf("%w: zero bill date", ErrInvalidBill)
	}
	if b.Period.Start.IsZero() || b.Period.End.IsZero() {
		return fmt.Errorf("%w: zero billing period", ErrInvalidBill)
	}
	if b.Period.End.Before(b.Period.Start) {
		return fmt.Errorf("%w: billing period end before start", ErrInvalidBill)
	}
	if b.KWhUsage <= 0 {
		return fmt.Errorf("%w: kwh usage must be positive", ErrInvalidBill)
	}
	if b.DemandKW <= 0 {
		return fmt.Errorf("%w: demand kw must be positive", ErrInvalidBill)
	}
	if b.TotalCost <= 0 {
		return fmt.Errorf("%w: total cost must be positive", ErrInvalidBill)
	}
	if b.RateSchedule == "" {
		return fmt.Errorf("%w: empty rate schedule", ErrInvalidBill)
	}
	if b.UtilityProvider == "" {
		return fmt.Errorf("%w: empty utility provider", ErrInvalidBill)
	}
	if b.Weather != nil {
		if b.Weather.CoolingDegreeDays < 0 || b.Weather.HeatingDegreeDays < 0 {
			return fmt.Errorf("%w: negative degree days", ErrInvalidBill)
		}
	}
	return nil
}

// WithDerivedDegreeDays fills in missing degree days from the average
// temperature against the balance-point temperature. Bills reported with
// explicit degree days or without weather data are returned unchanged.
func (b UtilityBill) WithDerivedDegreeDays(baseTemp float64) UtilityBill {
	if b.Weather == nil {
		return b
	}
	if b.Weather.CoolingDegreeDays != 0 || b.Weather.HeatingDegreeDays != 0 || b.Weather.AvgTemperature == 0 {
		return b
	}
	derived := *b.Weather
	if derived.AvgTemperature >= baseTemp {
		derived.CoolingDegreeDays = DegreeDays(derived.AvgTemperature, baseTemp)
	} else {
		derived.HeatingDegreeDays = DegreeDays(derived.AvgTemperature, baseTemp)
	}
	b.Weather = &derived
	return b
}

// CoolingDegreeDays returns the bill's CDD, zero when weather data is absent.
func (b UtilityBill) CoolingDegreeDays() float64 {
	if b.Weather == nil {
		return 0
	}
	return b.Weather.CoolingDegreeDays
}

// HeatingDegreeDays returns the bill's HDD, zero when weather data is absent.
func (b UtilityBill) HeatingDegreeDays() float64 {
	if b.Weather == nil {
		return 0
	}
	return b.Weather.HeatingDegreeDays
}
