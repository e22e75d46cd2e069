package auth

import (
	"context"
	"database/sql"
	"errors"
)

// CustomerTenantChecker validates customer account ownership.
type CustomerTenantChecker interface {
	EnsureCustomerTenant(ctx context.Context, tenantID, customerID string) error
}

// AccountChecker checks customer ownership against the accounts table.
type AccountChecker struct {
	db *sql.DB
}

// NewAccountChecker constructs an AccountChecker.
func NewAccountChecker(db *sql.DB) *AccountChecker {
	if db == nil {
		return nil
	}
	return &AccountChecker{db: db}
}

// EnsureCustomerTenant verifies the customer account belongs to the tenant.
func (c *AccountChecker) EnsureCustomerTenant(ctx context.Context, tenantID, customerID string) error {
	if c == nil || c.db == nil {
		return nil
	}
	if tenantID == "" || customerID == "" {
		return nil
	}
	var owner string
	err := c.db.QueryRowContext(ctx, `
SELECT tenant_id FROM customer_accounts WHERE customer_id = $1 LIMIT 1`, customerID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if owner != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
