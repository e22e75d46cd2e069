package billing

import (
	"errors"
	"testing"
	"time"
)

func monthRecord(month time.Month, year int, kwh, cost float64) MonthlyUsage {
	return MonthlyUsage{
		Month:    month.String(),
		Year:     year,
		KWhUsage: kwh, TotalCost: cost,
	}
}

func twelveMonths(year int, kwh, cost float64) []MonthlyUsage {
	months := make([]MonthlyUsage, 0, BaselineMonthCount)
	for m := time.January; m <= time.December; m++ {
		months = append(months, monthRecord(m, year, kwh, cost))
	}
	return months
}

func TestNewBaselineRequiresTwelveMonths(t *testing.T) {
	established := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := NewBaseline("bl-1", "cust-1", "fac-1", established, twelveMonths(2024, 1000, 150)[:11])
	if !errors.Is(err, ErrBaselineMonths) {
		t.Fatalf("11 months: got %v, want ErrBaselineMonths", err)
	}

	baseline, err := NewBaseline("bl-1", "cust-1", "fac-1", established, twelveMonths(2024, 1000, 150))
	if err != nil {
		t.Fatalf("12 months: unexpected error %v", err)
	}
	if baseline.AvgMonthlyKWh != 1000 {
		t.Fatalf("AvgMonthlyKWh = %v, want 1000", baseline.AvgMonthlyKWh)
	}
	if baseline.AvgMonthlyCost != 150 {
		t.Fatalf("AvgMonthlyCost = %v, want 150", baseline.AvgMonthlyCost)
	}
}

func TestNewBaselineCopiesHistory(t *testing.T) {
	months := twelveMonths(2024, 1000, 150)
	baseline, err := NewBaseline("bl-1", "cust-1", "fac-1", time.Now().UTC(), months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	months[0].KWhUsage = 0
	if baseline.HistoricalUsage[0].KWhUsage != 1000 {
		t.Fatal("baseline history aliases the caller's slice")
	}
}

func TestMonthForMatchesPriorYear(t *testing.T) {
	baseline, err := NewBaseline("bl-1", "cust-1", "fac-1", time.Now().UTC(), twelveMonths(2024, 1000, 150))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	month, ok := baseline.MonthFor("August", 2025)
	if !ok {
		t.Fatal("expected August 2024 baseline month for an August 2025 bill")
	}
	if month.Month != "August" || month.Year != 2024 {
		t.Fatalf("matched %s %d, want August 2024", month.Month, month.Year)
	}

	if _, ok := baseline.MonthFor("August", 2024); ok {
		t.Fatal("bill from the baseline year itself must not match")
	}
}

func TestMostRecentBillsKeepsNewestWithoutMutating(t *testing.T) {
	bills := []UtilityBill{
		{ID: "b-3", BillDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "b-1", BillDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "b-4", BillDate: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "b-2", BillDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
	}

	recent := MostRecentBills(bills, 2)
	if len(recent) != 2 {
		t.Fatalf("got %d bills, want 2", len(recent))
	}
	if recent[0].ID != "b-3" || recent[1].ID != "b-4" {
		t.Fatalf("got [%s %s], want [b-3 b-4]", recent[0].ID, recent[1].ID)
	}
	if bills[0].ID != "b-3" {
		t.Fatal("input slice was reordered")
	}
}

func TestUtilityBillValidate(t *testing.T) {
	valid := UtilityBill{
		ID:         "bill-1",
		CustomerID: "cust-1",
		FacilityID: "fac-1",
		BillDate:   time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC),
		Period: BillingPeriod{
			Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		},
		KWhUsage:        800,
		DemandKW:        120,
		TotalCost:       120,
		RateSchedule:    "GS-2",
		UtilityProvider: "Pacific Power & Light",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid bill rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*UtilityBill)
	}{
		{"empty customer", func(b *UtilityBill) { b.CustomerID = "" }},
		{"zero usage", func(b *UtilityBill) { b.KWhUsage = 0 }},
		{"negative cost", func(b *UtilityBill) { b.TotalCost = -1 }},
		{"period end before start", func(b *UtilityBill) { b.Period.End = b.Period.Start.AddDate(0, 0, -1) }},
		{"negative degree days", func(b *UtilityBill) { b.Weather = &WeatherData{CoolingDegreeDays: -1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bill := valid
			tc.mutate(&bill)
			if err := bill.Validate(); !errors.Is(err, ErrInvalidBill) {
				t.Fatalf("got %v, want ErrInvalidBill", err)
			}
		})
	}
}
