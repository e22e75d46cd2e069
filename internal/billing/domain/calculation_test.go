package billing

import (
	"math"
	"testing"
	"time"
)

func testBill(kwh, cost, cdd float64) UtilityBill {
	return UtilityBill{
		ID:         "bill-1",
		CustomerID: "cust-1",
		FacilityID: "fac-1",
		BillDate:   time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC),
		Period: BillingPeriod{
			Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		},
		KWhUsage:        kwh,
		DemandKW:        100,
		TotalCost:       cost,
		RateSchedule:    "GS-2",
		UtilityProvider: "Pacific Power & Light",
		Weather:         &WeatherData{AvgTemperature: 80, CoolingDegreeDays: cdd},
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeSavingsSplitsBenefitWhenGuaranteeMet(t *testing.T) {
	// Same CDD as the baseline month, so no weather adjustment: 1000 kWh at
	// $150 against an 800 kWh, $120 bill saves 200 kWh and $30 (20%).
	bill := testBill(800, 120, 200)
	month := MonthlyUsage{Month: "August", Year: 2024, KWhUsage: 1000, TotalCost: 150, CoolingDegreeDays: 200}

	figures := ComputeSavings(bill, month, 0.02, 0, 0.15, 0.30)

	approx(t, "WeatherAdjustedBaseline", figures.WeatherAdjustedBaseline, 1000)
	approx(t, "KWhSavings", figures.KWhSavings, 200)
	approx(t, "CostSavings", figures.CostSavings, 30)
	approx(t, "SavingsPercentage", figures.SavingsPercentage, 0.20)
	if !figures.PerformanceGuaranteeMet {
		t.Fatal("20% savings must meet the 15% guarantee")
	}
	approx(t, "TotalBenefit", figures.TotalBenefit, 30)
	approx(t, "ProviderShare", figures.ProviderShare, 9)
	approx(t, "CustomerShare", figures.CustomerShare, 21)
}

func TestComputeSavingsGuaranteeBoundaryInclusive(t *testing.T) {
	// Exactly 15% cost savings counts as met.
	bill := testBill(1000, 85, 200)
	month := MonthlyUsage{Month: "August", Year: 2024, KWhUsage: 1000, TotalCost: 100, CoolingDegreeDays: 200}

	figures := ComputeSavings(bill, month, 0.02, 0, 0.15, 0.30)

	approx(t, "SavingsPercentage", figures.SavingsPercentage, 0.15)
	if !figures.PerformanceGuaranteeMet {
		t.Fatal("exactly 15% must meet the guarantee")
	}
	approx(t, "ProviderShare", figures.ProviderShare, 4.5)
	approx(t, "CustomerShare", figures.CustomerShare, 10.5)
}

func TestComputeSavingsClampsNegativeToZero(t *testing.T) {
	// Usage grew: no negative savings, guarantee missed, the whole benefit
	// (here only demand response revenue) stays with the customer.
	bill := testBill(1200, 180, 200)
	month := MonthlyUsage{Month: "August", Year: 2024, KWhUsage: 1000, TotalCost: 150, CoolingDegreeDays: 200}

	figures := ComputeSavings(bill, month, 0.02, 50, 0.15, 0.30)

	approx(t, "KWhSavings", figures.KWhSavings, 0)
	approx(t, "CostSavings", figures.CostSavings, 0)
	approx(t, "SavingsPercentage", figures.SavingsPercentage, 0)
	if figures.PerformanceGuaranteeMet {
		t.Fatal("grown usage must not meet the guarantee")
	}
	approx(t, "TotalBenefit", figures.TotalBenefit, 50)
	approx(t, "ProviderShare", figures.ProviderShare, 0)
	approx(t, "CustomerShare", figures.CustomerShare, 50)
}

func TestComputeSavingsWeatherAdjustment(t *testing.T) {
	// Hotter current month: the baseline shrinks by (300-200)*0.0005 = 5%.
	bill := testBill(800, 120, 300)
	month := MonthlyUsage{Month: "August", Year: 2024, KWhUsage: 1000, TotalCost: 150, CoolingDegreeDays: 200}

	figures := ComputeSavings(bill, month, 0.0005, 0, 0.15, 0.30)

	approx(t, "WeatherAdjustedBaseline", figures.WeatherAdjustedBaseline, 950)
	approx(t, "KWhSavings", figures.KWhSavings, 150)
	// Cost baseline scales by the same 95% ratio.
	approx(t, "CostSavings", figures.CostSavings, 0.95*150-120)
}

func TestComputeSavingsZeroBaselineUsage(t *testing.T) {
	bill := testBill(800, 120, 200)
	month := MonthlyUsage{Month: "August", Year: 2024, KWhUsage: 0, TotalCost: 0, CoolingDegreeDays: 200}

	figures := ComputeSavings(bill, month, 0.02, 0, 0.15, 0.30)

	approx(t, "CostSavings", figures.CostSavings, 0)
	approx(t, "SavingsPercentage", figures.SavingsPercentage, 0)
	if math.IsNaN(figures.SavingsPercentage) {
		t.Fatal("zero baseline must not produce NaN")
	}
}
