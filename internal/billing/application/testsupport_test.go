package application

import (
	"fmt"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

type seqIDs struct {
	prefix string
	next   *int
}

func newSeqIDs(prefix string) seqIDs {
	n := 0
	return seqIDs{prefix: prefix, next: &n}
}

func (g seqIDs) NewID() string {
	*g.next++
	return fmt.Sprintf("%s-%d", g.prefix, *g.next)
}

func testTerms() BillingTerms {
	return BillingTerms{
		GuaranteeThreshold:    0.15,
		ProviderShareRate:     0.30,
		PaymentTermDays:       15,
		DegreeDayBase:         65,
		DefaultSensitivity:    0.02,
		VerificationTolerance: 0.02,
		Currency:              "USD",
	}
}

// historyBill builds a valid bill for the given month with constant CDD, so
// the weather adjustment cancels out and figures stay exact.
func historyBill(customerID, facilityID string, year int, month time.Month, kwh, cost float64) billing.UtilityBill {
	periodStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return billing.UtilityBill{
		ID:         fmt.Sprintf("bill-%s-%d-%02d", customerID, year, month),
		CustomerID: customerID,
		FacilityID: facilityID,
		BillDate:   periodStart.AddDate(0, 1, 4),
		Period: billing.BillingPeriod{
			Start: periodStart,
			End:   periodStart.AddDate(0, 1, -1),
		},
		KWhUsage:        kwh,
		DemandKW:        kwh / 400,
		TotalCost:       cost,
		RateSchedule:    "GS-2",
		UtilityProvider: "Pacific Power & Light",
		Weather:         &billing.WeatherData{AvgTemperature: 72, CoolingDegreeDays: 200, HeatingDegreeDays: 40},
	}
}

// yearOfBills covers the 12 months whose bill dates fall inside the given
// year: the December period bills in January of the next year, so the run
// starts with the prior December.
func yearOfBills(customerID, facilityID string, year int, kwh, cost float64) []billing.UtilityBill {
	bills := make([]billing.UtilityBill, 0, billing.BaselineMonthCount)
	start := time.Date(year-1, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < billing.BaselineMonthCount; i++ {
		period := start.AddDate(0, i, 0)
		bills = append(bills, historyBill(customerID, facilityID, period.Year(), period.Month(), kwh, cost))
	}
	return bills
}
