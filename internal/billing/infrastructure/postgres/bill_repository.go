package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "greenhouse-cloud/internal/billing/domain"
)

// BillRepository persists utility bills.
type BillRepository struct {
	db *sql.DB
}

// NewBillRepository constructs a repository.
func NewBillRepository(db *sql.DB) *BillRepository {
	return &BillRepository{db: db}
}

// Save inserts or replaces a bill.
func (r *BillRepository) Save(ctx context.Context, bill billing.UtilityBill) error {
	if r == nil || r.db == nil {
		return errors.New("bill repo: nil db")
	}
	if err := bill.Validate(); err != nil {
		return err
	}

	var avgTemp, peakTemp, minTemp, cdd, hdd sql.NullFloat64
	if bill.Weather != nil {
		avgTemp = sql.NullFloat64{Float64: bill.Weather.AvgTemperature, Valid: true}
		peakTemp = sql.NullFloat64{Float64: bill.Weather.PeakTemperature, Valid: true}
		minTemp = sql.NullFloat64{Float64: bill.Weather.MinTemperature, Valid: true}
		cdd = sql.NullFloat64{Float64: bill.Weather.CoolingDegreeDays, Valid: true}
		hdd = sql.NullFloat64{Float64: bill.Weather.HeatingDegreeDays, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO utility_bills (
	id, customer_id, facility_id, bill_date, period_start, period_end,
	kwh_usage, demand_kw, total_cost, rate_schedule, utility_provider,
	avg_temperature, peak_temperature, min_temperature, cooling_degree_days, heating_degree_days
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
ON CONFLICT (id) DO NOTHING`,
		bill.ID, bill.CustomerID, bill.FacilityID, bill.BillDate, bill.Period.Start, bill.Period.End,
		bill.KWhUsage, bill.DemandKW, bill.TotalCost, bill.RateSchedule, bill.UtilityProvider,
		avgTemp, peakTemp, minTemp, cdd, hdd,
	)
	return err
}

// GetByID fetches a bill.
func (r *BillRepository) GetByID(ctx context.Context, id string) (*billing.UtilityBill, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bill repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer_id, facility_id, bill_date, period_start, period_end,
	kwh_usage, demand_kw, total_cost, rate_schedule, utility_provider,
	avg_temperature, peak_temperature, min_temperature, cooling_degree_days, heating_degree_days
FROM utility_bills
WHERE id = $1
LIMIT 1`, id)
	return scanBill(row)
}

// ListByCustomerFacility lists bills ascending by bill date.
func (r *BillRepository) ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]billing.UtilityBill, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bill repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, customer_id, facility_id, bill_date, period_start, period_end,
	kwh_usage, demand_kw, total_cost, rate_schedule, utility_provider,
	avg_temperature, peak_temperature, min_temperature, cooling_degree_days, heating_degree_days
FROM utility_bills
WHERE customer_id = $1 AND facility_id = $2
ORDER BY bill_date ASC`, customerID, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []billing.UtilityBill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		if bill != nil {
			result = append(result, *bill)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*billing.UtilityBill, error) {
	var bill billing.UtilityBill
	var avgTemp, peakTemp, minTemp, cdd, hdd sql.NullFloat64
	err := row.Scan(
		&bill.ID,
		&bill.CustomerID,
		&bill.FacilityID,
		&bill.BillDate,
		&bill.Period.Start,
		&bill.Period.End,
		&bill.KWhUsage,
		&bill.DemandKW,
		&bill.TotalCost,
		&bill.RateSchedule,
		&bill.UtilityProvider,
		&avgTemp,
		&peakTemp,
		&minTemp,
		&cdd,
		&hdd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	bill.BillDate = bill.BillDate.UTC()
	bill.Period.Start = bill.Period.Start.UTC()
	bill.Period.End = bill.Period.End.UTC()
	if avgTemp.Valid {
		bill.Weather = &billing.WeatherData{
			AvgTemperature:    avgTemp.Float64,
			PeakTemperature:   peakTemp.Float64,
			MinTemperature:    minTemp.Float64,
			CoolingDegreeDays: cdd.Float64,
			HeatingDegreeDays: hdd.Float64,
		}
	}
	return &bill, nil
}
