package billing

import (
	"context"
	"time"
)

// BillRepository stores utility bills supplied by the ingestion process.
type BillRepository interface {
	Save(ctx context.Context, bill UtilityBill) error
	GetByID(ctx context.Context, id string) (*UtilityBill, error)
	ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]UtilityBill, error)
}

// BaselineRepository stores established baselines.
type BaselineRepository interface {
	Save(ctx context.Context, baseline *BaselineData) error
	GetByID(ctx context.Context, id string) (*BaselineData, error)
	FindLatest(ctx context.Context, customerID, facilityID string) (*BaselineData, error)
}

// CalculationRepository stores savings calculations.
type CalculationRepository interface {
	Save(ctx context.Context, calc *SavingsCalculation) error
	GetByID(ctx context.Context, id string) (*SavingsCalculation, error)
	ListByCustomerFacility(ctx context.Context, customerID, facilityID string) ([]SavingsCalculation, error)
	MarkVerified(ctx context.Context, id string, verifiedAt time.Time) error
}

// InvoiceRepository stores billing records.
type InvoiceRepository interface {
	Save(ctx context.Context, record *BillingRecord) error
	GetByNumber(ctx context.Context, invoiceNumber string) (*BillingRecord, error)
	ListByCustomer(ctx context.Context, customerID string) ([]BillingRecord, error)
}
