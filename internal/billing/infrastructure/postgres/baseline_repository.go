package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "greenhouse-cloud/internal/billing/domain"
)

// BaselineRepository persists baselines and their monthly records.
type BaselineRepository struct {
	db *sql.DB
}

// NewBaselineRepository constructs a repository.
func NewBaselineRepository(db *sql.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// Save inserts a baseline and its 12 monthly records in one transaction.
func (r *BaselineRepository) Save(ctx context.Context, baseline *billing.BaselineData) error {
	if r == nil || r.db == nil {
		return errors.New("baseline repo: nil db")
	}
	if baseline == nil {
		return errors.New("baseline repo: nil baseline")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO baselines (
	id, customer_id, facility_id, established_date,
	avg_monthly_kwh, avg_monthly_cost, weather_factor
) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		baseline.ID, baseline.CustomerID, baseline.FacilityID, baseline.EstablishedDate,
		baseline.AvgMonthlyKWh, baseline.AvgMonthlyCost, baseline.WeatherFactor,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for position, month := range baseline.HistoricalUsage {
		_, err := tx.ExecContext(ctx, `
INSERT INTO baseline_months (
	baseline_id, position, month, year, kwh_usage, total_cost,
	cooling_degree_days, heating_degree_days
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			baseline.ID, position, month.Month, month.Year, month.KWhUsage, month.TotalCost,
			month.CoolingDegreeDays, month.HeatingDegreeDays)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches a baseline with its months.
func (r *BaselineRepository) GetByID(ctx context.Context, id string) (*billing.BaselineData, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("baseline repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer_id, facility_id, established_date,
	avg_monthly_kwh, avg_monthly_cost, weather_factor
FROM baselines
WHERE id = $1
LIMIT 1`, id)
	return r.scanWithMonths(ctx, row)
}

// FindLatest returns the most recently established baseline for a customer+facility.
func (r *BaselineRepository) FindLatest(ctx context.Context, customerID, facilityID string) (*billing.BaselineData, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("baseline repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer_id, facility_id, established_date,
	avg_monthly_kwh, avg_monthly_cost, weather_factor
FROM baselines
WHERE customer_id = $1 AND facility_id = $2
ORDER BY established_date DESC
LIMIT 1`, customerID, facilityID)
	return r.scanWithMonths(ctx, row)
}

func (r *BaselineRepository) scanWithMonths(ctx context.Context, row rowScanner) (*billing.BaselineData, error) {
	var baseline billing.BaselineData
	err := row.Scan(
		&baseline.ID,
		&baseline.CustomerID,
		&baseline.FacilityID,
		&baseline.EstablishedDate,
		&baseline.AvgMonthlyKWh,
		&baseline.AvgMonthlyCost,
		&baseline.WeatherFactor,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	baseline.EstablishedDate = baseline.EstablishedDate.UTC()

	months, err := r.listMonths(ctx, baseline.ID)
	if err != nil {
		return nil, err
	}
	baseline.HistoricalUsage = months
	return &baseline, nil
}

func (r *BaselineRepository) listMonths(ctx context.Context, baselineID string) ([]billing.MonthlyUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT month, year, kwh_usage, total_cost, cooling_degree_days, heating_degree_days
FROM baseline_months
WHERE baseline_id = $1
ORDER BY position ASC`, baselineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []billing.MonthlyUsage
	for rows.Next() {
		var month billing.MonthlyUsage
		if err := rows.Scan(
			&month.Month,
			&month.Year,
			&month.KWhUsage,
			&month.TotalCost,
			&month.CoolingDegreeDays,
			&month.HeatingDegreeDays,
		); err != nil {
			return nil, err
		}
		result = append(result, month)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
