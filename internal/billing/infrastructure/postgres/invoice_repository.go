package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "greenhouse-cloud/internal/billing/domain"
)

// InvoiceRepository persists billing records.
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Save inserts a billing record.
func (r *InvoiceRepository) Save(ctx context.Context, record *billing.BillingRecord) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	if record == nil {
		return errors.New("invoice repo: nil record")
	}
	if !billing.ValidInvoiceStatus(record.Status) {
		return billing.ErrInvalidInvoiceStatus
	}
	var paidDate sql.NullTime
	if record.PaidDate != nil {
		paidDate = sql.NullTime{Time: *record.PaidDate, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO billing_records (
	invoice_number, calculation_id, customer_id, billing_date, due_date,
	amount, status, payment_method, paid_date, notes
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`,
		record.InvoiceNumber, record.CalculationID, record.CustomerID, record.BillingDate, record.DueDate,
		record.Amount, record.Status, record.PaymentMethod, paidDate, record.Notes,
	)
	return err
}

// GetByNumber fetches a billing record.
func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (*billing.BillingRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT invoice_number, calculation_id, customer_id, billing_date, due_date,
	amount, status, payment_method, paid_date, notes
FROM billing_records
WHERE invoice_number = $1
LIMIT 1`, invoiceNumber)
	return scanInvoice(row)
}

// ListByCustomer lists a customer's billing records ascending by billing date.
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]billing.BillingRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT invoice_number, calculation_id, customer_id, billing_date, due_date,
	amount, status, payment_method, paid_date, notes
FROM billing_records
WHERE customer_id = $1
ORDER BY billing_date ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []billing.BillingRecord
	for rows.Next() {
		record, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		if record != nil {
			result = append(result, *record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanInvoice(row rowScanner) (*billing.BillingRecord, error) {
	var record billing.BillingRecord
	var paymentMethod sql.NullString
	var paidDate sql.NullTime
	var notes sql.NullString
	err := row.Scan(
		&record.InvoiceNumber,
		&record.CalculationID,
		&record.CustomerID,
		&record.BillingDate,
		&record.DueDate,
		&record.Amount,
		&record.Status,
		&paymentMethod,
		&paidDate,
		&notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	record.BillingDate = record.BillingDate.UTC()
	record.DueDate = record.DueDate.UTC()
	if paymentMethod.Valid {
		record.PaymentMethod = paymentMethod.String
	}
	if paidDate.Valid {
		t := paidDate.Time.UTC()
		record.PaidDate = &t
	}
	if notes.Valid {
		record.Notes = notes.String
	}
	return &record, nil
}
