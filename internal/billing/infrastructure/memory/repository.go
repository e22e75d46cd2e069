package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
)

// BillRepository is an in-memory bill store.
type BillRepository struct {
	mu   sync.RWMutex
	data map[string]billing.UtilityBill
}

// NewBillRepository constructs a repository.
func NewBillRepository() *BillRepository {
	return &BillRepository{data: make(map[string]billing.UtilityBill)}
}

// Save persists a bill (overwrites existing).
func (r *BillRepository) Save(ctx context.Context, bill billing.UtilityBill) error {
	_ = ctx
	if err := bill.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[bill.ID] = bill
	r.mu.Unlock()
	return nil
}

// GetByID loads a bill.
func (r *BillRepository) GetByID(ctx context.Context, id string) (*billing.UtilityBill, error) {
	_ = ctx
	r.mu.RLock()
	bill, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &bill, nil
}

// ListByCustomerFacility lists bills ascending by bill date.
func (r *BillRepository) ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]billing.UtilityBill, error) {
	_ = ctx
	r.mu.RLock()
	var result []billing.UtilityBill
	for _, bill := range r.data {
		if bill.CustomerID == customerID && bill.FacilityID == facilityID {
			result = append(result, bill)
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].BillDate.Before(result[j].BillDate)
	})
	return result, nil
}

// BaselineRepository is an in-memory baseline store.
type BaselineRepository struct {
	mu   sync.RWMutex
	data map[string]*billing.BaselineData
}

// NewBaselineRepository constructs a repository.
func NewBaselineRepository() *BaselineRepository {
	return &BaselineRepository{data: make(map[string]*billing.BaselineData)}
}

// Save persists a baseline.
func (r *BaselineRepository) Save(ctx context.Context, baseline *billing.BaselineData) error {
	_ = ctx
	if baseline == nil {
		return billing.ErrBaselineNotFound
	}
	copy := *baseline
	r.mu.Lock()
	r.data[baseline.ID] = &copy
	r.mu.Unlock()
	return nil
}

// GetByID loads a baseline.
func (r *BaselineRepository) GetByID(ctx context.Context, id string) (*billing.BaselineData, error) {
	_ = ctx
	r.mu.RLock()
	baseline := r.data[id]
	r.mu.RUnlock()
	if baseline == nil {
		return nil, nil
	}
	copy := *baseline
	return &copy, nil
}

// FindLatest returns the most recently established baseline for a customer+facility.
func (r *BaselineRepository) FindLatest(ctx context.Context, customerID, facilityID string) (*billing.BaselineData, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *billing.BaselineData
	for _, baseline := range r.data {
		if baseline.CustomerID != customerID || baseline.FacilityID != facilityID {
			continue
		}
		if latest == nil || baseline.EstablishedDate.After(latest.EstablishedDate) {
			latest = baseline
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

// CalculationRepository is an in-memory savings calculation store.
type CalculationRepository struct {
	mu   sync.RWMutex
	data map[string]*billing.SavingsCalculation
}

// NewCalculationRepository constructs a repository.
func NewCalculationRepository() *CalculationRepository {
	return &CalculationRepository{data: make(map[string]*billing.SavingsCalculation)}
}

// Save persists a calculation.
func (r *CalculationRepository) Save(ctx context.Context, calc *billing.SavingsCalculation) error {
	_ = ctx
	if calc == nil {
		return billing.ErrCalculationNotFound
	}
	copy := *calc
	r.mu.Lock()
	r.data[calc.ID] = &copy
	r.mu.Unlock()
	return nil
}

// GetByID loads a calculation.
func (r *CalculationRepository) GetByID(ctx context.Context, id string) (*billing.SavingsCalculation, error) {
	_ = ctx
	r.mu.RLock()
	calc := r.data[id]
	r.mu.RUnlock()
	if calc == nil {
		return nil, nil
	}
	copy := *calc
	return &copy, nil
}

// ListByCustomerFacility lists calculations ascending by calculation date.
func (r *CalculationRepository) ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]billing.SavingsCalculation, error) {
	_ = ctx
	r.mu.RLock()
	var result []billing.SavingsCalculation
	for _, calc := range r.data {
		if calc.CustomerID == customerID && calc.FacilityID == facilityID {
			result = append(result, *calc)
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].CalculationDate.Before(result[j].CalculationDate)
	})
	return result, nil
}

// MarkVerified records third-party verification without touching financials.
func (r *CalculationRepository) MarkVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	calc := r.data[id]
	if calc == nil {
		return billing.ErrCalculationNotFound
	}
	calc.ThirdPartyVerified = true
	at := verifiedAt
	calc.VerificationDate = &at
	return nil
}

// InvoiceRepository is an in-memory billing record store.
type InvoiceRepository struct {
	mu   sync.RWMutex
	data map[string]*billing.BillingRecord
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{data: make(map[string]*billing.BillingRecord)}
}

// Save persists a billing record.
func (r *InvoiceRepository) Save(ctx context.Context, record *billing.BillingRecord) error {
	_ = ctx
	if record == nil {
		return billing.ErrInvoiceNotFound
	}
	if !billing.ValidInvoiceStatus(record.Status) {
		return billing.ErrInvalidInvoiceStatus
	}
	copy := *record
	r.mu.Lock()
	r.data[record.InvoiceNumber] = &copy
	r.mu.Unlock()
	return nil
}

// GetByNumber loads a billing record.
func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (*billing.BillingRecord, error) {
	_ = ctx
	r.mu.RLock()
	record := r.data[invoiceNumber]
	r.mu.RUnlock()
	if record == nil {
		return nil, nil
	}
	copy := *record
	return &copy, nil
}

// ListByCustomer lists a customer's billing records ascending by billing date.
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]billing.BillingRecord, error) {
	_ = ctx
	r.mu.RLock()
	var result []billing.BillingRecord
	for _, record := range r.data {
		if record.CustomerID == customerID {
			result = append(result, *record)
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].BillingDate.Before(result[j].BillingDate)
	})
	return result, nil
}
