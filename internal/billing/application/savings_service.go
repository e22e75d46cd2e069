package application

import (
	"context"
	"errors"
	"math"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/observability/metrics"
)

// SavingsService computes and verifies savings calculations.
type SavingsService struct {
	calcs billing.CalculationRepository
	terms BillingTerms
	clock Clock
	ids   IDGenerator
}

// NewSavingsService constructs the service.
func NewSavingsService(calcs billing.CalculationRepository, terms BillingTerms, clock Clock, ids IDGenerator) (*SavingsService, error) {
	if calcs == nil {
		return nil, errors.New("savings service: nil calculation repository")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &SavingsService{calcs: calcs, terms: terms, clock: clock, ids: ids}, nil
}

// Calculate compares a current bill against the weather-adjusted baseline
// month one year prior and splits the benefit under the performance
// guarantee. Fails with billing.ErrNoBaselineForPeriod when the baseline has
// no matching month.
func (s *SavingsService) Calculate(ctx context.Context, bill billing.UtilityBill, baseline *billing.BaselineData, demandResponseRevenue float64) (*billing.SavingsCalculation, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSavingsCalculate(result, time.Since(start))
	}()

	calc, err := s.compute(bill, baseline, demandResponseRevenue)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	if err := s.calcs.Save(ctx, calc); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return calc, nil
}

func (s *SavingsService) compute(bill billing.UtilityBill, baseline *billing.BaselineData, demandResponseRevenue float64) (*billing.SavingsCalculation, error) {
	if baseline == nil {
		return nil, billing.ErrBaselineNotFound
	}
	if err := bill.Validate(); err != nil {
		return nil, err
	}
	if demandResponseRevenue < 0 {
		return nil, billing.ErrNegativeValue
	}

	month, ok := baseline.MonthFor(bill.BillDate.Month().String(), bill.BillDate.Year())
	if !ok {
		return nil, billing.ErrNoBaselineForPeriod
	}

	// A degenerate history yields no regression slope; fall back to the
	// contractual default sensitivity so weather adjustment still applies.
	factor := baseline.WeatherFactor
	if factor == 0 {
		factor = s.terms.DefaultSensitivity
	}

	figures := billing.ComputeSavings(bill, month, factor, demandResponseRevenue, s.terms.GuaranteeThreshold, s.terms.ProviderShareRate)

	return &billing.SavingsCalculation{
		ID:                      s.ids.NewID(),
		CalculationDate:         s.clock.Now(),
		BillID:                  bill.ID,
		BaselineID:              baseline.ID,
		CustomerID:              bill.CustomerID,
		FacilityID:              bill.FacilityID,
		BaselineUsage:           figures.BaselineUsage,
		ActualUsage:             figures.ActualUsage,
		WeatherAdjustedBaseline: figures.WeatherAdjustedBaseline,
		KWhSavings:              figures.KWhSavings,
		CostSavings:             figures.CostSavings,
		SavingsPercentage:       figures.SavingsPercentage,
		DemandResponseRevenue:   demandResponseRevenue,
		TotalBenefit:            figures.TotalBenefit,
		ProviderShare:           figures.ProviderShare,
		CustomerShare:           figures.CustomerShare,
		PerformanceGuaranteeMet: figures.PerformanceGuaranteeMet,
		ThirdPartyVerified:      false,
	}, nil
}

// Verify recomputes the savings from the same inputs and reports whether the
// stored cost savings lie within the verification tolerance of the recomputed
// value. The stored calculation is not mutated; callers persist the verified
// flag via MarkVerified when they trust the result. The context keeps the
// integration point open for an external verification service.
func (s *SavingsService) Verify(ctx context.Context, calc *billing.SavingsCalculation, bill billing.UtilityBill, baseline *billing.BaselineData) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if calc == nil {
		return false, billing.ErrCalculationNotFound
	}

	recomputed, err := s.compute(bill, baseline, calc.DemandResponseRevenue)
	if err != nil {
		return false, err
	}

	diff := math.Abs(calc.CostSavings - recomputed.CostSavings)
	return diff <= s.terms.VerificationTolerance*recomputed.CostSavings, nil
}

// MarkVerified records a successful third-party verification.
func (s *SavingsService) MarkVerified(ctx context.Context, calcID string) error {
	return s.calcs.MarkVerified(ctx, calcID, s.clock.Now())
}

// Get loads a stored calculation.
func (s *SavingsService) Get(ctx context.Context, id string) (*billing.SavingsCalculation, error) {
	calc, err := s.calcs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, billing.ErrCalculationNotFound
	}
	return calc, nil
}

// ListByCustomerFacility lists stored calculations for reporting.
func (s *SavingsService) ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]billing.SavingsCalculation, error) {
	return s.calcs.ListByCustomerFacility(ctx, customerID, facilityID)
}
