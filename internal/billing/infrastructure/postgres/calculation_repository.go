package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
)

// CalculationRepository persists savings calculations.
type CalculationRepository struct {
	db *sql.DB
}

// NewCalculationRepository constructs a repository.
func NewCalculationRepository(db *sql.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

// Save inserts a calculation.
func (r *CalculationRepository) Save(ctx context.Context, calc *billing.SavingsCalculation) error {
	if r == nil || r.db == nil {
		return errors.New("calculation repo: nil db")
	}
	if calc == nil {
		return errors.New("calculation repo: nil calculation")
	}
	var verificationDate sql.NullTime
	if calc.VerificationDate != nil {
		verificationDate = sql.NullTime{Time: *calc.VerificationDate, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO savings_calculations (
	id, calculation_date, bill_id, baseline_id, customer_id, facility_id,
	baseline_usage, actual_usage, weather_adjusted_baseline,
	kwh_savings, cost_savings, savings_percentage,
	demand_response_revenue, total_benefit, provider_share, customer_share,
	performance_guarantee_met, third_party_verified, verification_date
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)`,
		calc.ID, calc.CalculationDate, calc.BillID, calc.BaselineID, calc.CustomerID, calc.FacilityID,
		calc.BaselineUsage, calc.ActualUsage, calc.WeatherAdjustedBaseline,
		calc.KWhSavings, calc.CostSavings, calc.SavingsPercentage,
		calc.DemandResponseRevenue, calc.TotalBenefit, calc.ProviderShare, calc.CustomerShare,
		calc.PerformanceGuaranteeMet, calc.ThirdPartyVerified, verificationDate,
	)
	return err
}

// GetByID fetches a calculation.
func (r *CalculationRepository) GetByID(ctx context.Context, id string) (*billing.SavingsCalculation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("calculation repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, selectCalculation+`
WHERE id = $1
LIMIT 1`, id)
	return scanCalculation(row)
}

// ListByCustomerFacility lists calculations ascending by calculation date.
func (r *CalculationRepository) ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]billing.SavingsCalculation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("calculation repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, selectCalculation+`
WHERE customer_id = $1 AND facility_id = $2
ORDER BY calculation_date ASC`, customerID, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []billing.SavingsCalculation
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		if calc != nil {
			result = append(result, *calc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkVerified records third-party verification without touching financial figures.
func (r *CalculationRepository) MarkVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("calculation repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE savings_calculations
SET third_party_verified = TRUE, verification_date = $1
WHERE id = $2`, verifiedAt, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrCalculationNotFound
	}
	return nil
}

const selectCalculation = `
SELECT id, calculation_date, bill_id, baseline_id, customer_id, facility_id,
	baseline_usage, actual_usage, weather_adjusted_baseline,
	kwh_savings, cost_savings, savings_percentage,
	demand_response_revenue, total_benefit, provider_share, customer_share,
	performance_guarantee_met, third_party_verified, verification_date
FROM savings_calculations`

func scanCalculation(row rowScanner) (*billing.SavingsCalculation, error) {
	var calc billing.SavingsCalculation
	var verificationDate sql.NullTime
	err := row.Scan(
		&calc.ID,
		&calc.CalculationDate,
		&calc.BillID,
		&calc.BaselineID,
		&calc.CustomerID,
		&calc.FacilityID,
		&calc.BaselineUsage,
		&calc.ActualUsage,
		&calc.WeatherAdjustedBaseline,
		&calc.KWhSavings,
		&calc.CostSavings,
		&calc.SavingsPercentage,
		&calc.DemandResponseRevenue,
		&calc.TotalBenefit,
		&calc.ProviderShare,
		&calc.CustomerShare,
		&calc.PerformanceGuaranteeMet,
		&calc.ThirdPartyVerified,
		&verificationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	calc.CalculationDate = calc.CalculationDate.UTC()
	if verificationDate.Valid {
		t := verificationDate.Time.UTC()
		calc.VerificationDate = &t
	}
	return &calc, nil
}
