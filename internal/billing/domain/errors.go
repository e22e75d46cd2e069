package billing

import "errors"

var (
	// ErrInsufficientHistory is returned when fewer than 12 historical bills are supplied.
	ErrInsufficientHistory = errors.New("billing: at least 12 months of billing history required")
	// ErrNoBaselineForPeriod is returned when the baseline has no matching prior-year month.
	ErrNoBaselineForPeriod = errors.New("billing: no baseline month for billing period")
	// ErrInvalidBill is returned when a bill fails schema validation.
	ErrInvalidBill = errors.New("billing: invalid bill")
	// ErrBaselineMonths is returned when a baseline is built without exactly 12 months.
	ErrBaselineMonths = errors.New("billing: baseline requires exactly 12 monthly records")
	// ErrNegativeValue is returned when a negative financial value is provided.
	ErrNegativeValue = errors.New("billing: negative value")
	// ErrBillNotFound is returned when a bill is not found.
	ErrBillNotFound = errors.New("billing: bill not found")
	// ErrBaselineNotFound is returned when a baseline is not found.
	ErrBaselineNotFound = errors.New("billing: baseline not found")
	// ErrCalculationNotFound is returned when a savings calculation is not found.
	ErrCalculationNotFound = errors.New("billing: calculation not found")
	// ErrInvoiceNotFound is returned when a billing record is not found.
	ErrInvoiceNotFound = errors.New("billing: invoice not found")
	// ErrInvalidInvoiceStatus is returned when a billing record carries a status outside the finite state set.
	ErrInvalidInvoiceStatus = errors.New("billing: invalid invoice status")
)
