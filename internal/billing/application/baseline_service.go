package application

import (
	"context"
	"errors"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/observability/metrics"
)

// BaselineService establishes customer usage baselines from billing history.
type BaselineService struct {
	baselines billing.BaselineRepository
	clock     Clock
	ids       IDGenerator
}

// NewBaselineService constructs the service.
func NewBaselineService(baselines billing.BaselineRepository, clock Clock, ids IDGenerator) (*BaselineService, error) {
	if baselines == nil {
		return nil, errors.New("baseline service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &BaselineService{baselines: baselines, clock: clock, ids: ids}, nil
}

// Establish derives a baseline from at least 12 historical bills for one
// customer+facility, keeping the 12 most recent by bill date regardless of
// input order. Fails with billing.ErrInsufficientHistory below 12 bills.
func (s *BaselineService) Establish(ctx context.Context, customerID, facilityID string, bills []billing.UtilityBill) (*billing.BaselineData, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBaselineEstablish(result, time.Since(start))
	}()

	if len(bills) < billing.BaselineMonthCount {
		result = metrics.ResultError
		return nil, billing.ErrInsufficientHistory
	}
	for _, bill := range bills {
		if err := bill.Validate(); err != nil {
			result = metrics.ResultError
			return nil, err
		}
	}

	recent := billing.MostRecentBills(bills, billing.BaselineMonthCount)
	months := make([]billing.MonthlyUsage, 0, len(recent))
	for _, bill := range recent {
		months = append(months, billing.MonthlyUsageFromBill(bill))
	}

	baseline, err := billing.NewBaseline(s.ids.NewID(), customerID, facilityID, s.clock.Now(), months)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	if err := s.baselines.Save(ctx, baseline); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return baseline, nil
}

// Get loads a baseline by id. Calculations reference their baseline by id, so
// verification must resolve the exact instance even after a recomputation has
// established a newer one.
func (s *BaselineService) Get(ctx context.Context, id string) (*billing.BaselineData, error) {
	baseline, err := s.baselines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, billing.ErrBaselineNotFound
	}
	return baseline, nil
}

// Latest returns the most recently established baseline for a customer+facility.
func (s *BaselineService) Latest(ctx context.Context, customerID, facilityID string) (*billing.BaselineData, error) {
	baseline, err := s.baselines.FindLatest(ctx, customerID, facilityID)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, billing.ErrBaselineNotFound
	}
	return baseline, nil
}
