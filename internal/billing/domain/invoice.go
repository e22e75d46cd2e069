package billing

import "time"

const (
	InvoiceStatusPending  = "pending"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusOverdue  = "overdue"
	InvoiceStatusDisputed = "disputed"
)

// BillingRecord is one provider invoice derived from a savings calculation
// with a positive provider share. The engine only produces records in the
// pending state; later transitions belong to the payments system.
type BillingRecord struct {
	InvoiceNumber string     `json:"invoice_number"`
	CalculationID string     `json:"calculation_id"`
	CustomerID    string     `json:"customer_id"`
	BillingDate   time.Time  `json:"billing_date"`
	DueDate       time.Time  `json:"due_date"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ValidInvoiceStatus reports whether a status belongs to the finite state set.
func ValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusDisputed:
		return true
	default:
		return false
	}
}
