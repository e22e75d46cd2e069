package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/observability/metrics"
)

// BillingRunResult is the outcome of one automatic billing run. Invoice is
// nil when the provider share is zero; Messages holds the customer-facing
// notifications in emission order.
type BillingRunResult struct {
	Calculation *billing.SavingsCalculation `json:"calculation"`
	Invoice     *billing.BillingRecord      `json:"invoice,omitempty"`
	Messages    []string                    `json:"messages"`
}

// BillingService turns savings calculations into invoices.
type BillingService struct {
	invoices billing.InvoiceRepository
	savings  *SavingsService
	terms    BillingTerms
	clock    Clock
	ids      IDGenerator
}

// NewBillingService constructs the service.
func NewBillingService(invoices billing.InvoiceRepository, savings *SavingsService, terms BillingTerms, clock Clock, ids IDGenerator) (*BillingService, error) {
	if invoices == nil {
		return nil, errors.New("billing service: nil invoice repository")
	}
	if savings == nil {
		return nil, errors.New("billing service: nil savings service")
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
	return &BillingService{invoices: invoices, savings: savings, terms: terms, clock: clock, ids: ids}, nil
}

// GenerateInvoice produces a pending billing record for the provider share
// of a savings calculation, due after the contractual payment term.
func (s *BillingService) GenerateInvoice(ctx context.Context, calc *billing.SavingsCalculation) (*billing.BillingRecord, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceGenerate(result, time.Since(start))
	}()

	if calc == nil {
		result = metrics.ResultError
		return nil, billing.ErrCalculationNotFound
	}

	billingDate := s.clock.Now()
	record := &billing.BillingRecord{
		InvoiceNumber: "INV-" + s.ids.NewID(),
		CalculationID: calc.ID,
		CustomerID:    calc.CustomerID,
		BillingDate:   billingDate,
		DueDate:       billingDate.AddDate(0, 0, s.terms.PaymentTermDays),
		Amount:        calc.ProviderShare,
		Status:        billing.InvoiceStatusPending,
		Notes: fmt.Sprintf("Energy savings billing. Total benefit %s %.2f, customer share %s %.2f.",
			s.terms.Currency, calc.TotalBenefit, s.terms.Currency, calc.CustomerShare),
	}

	if err := s.invoices.Save(ctx, record); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return record, nil
}

// ProcessAutomaticBilling runs the savings calculation for a bill and
// conditionally invoices the provider share. A missed performance guarantee
// is a normal outcome that withholds billing and informs the customer; it
// never stops the pipeline. A calculation error is returned alongside the
// best-effort message list.
func (s *BillingService) ProcessAutomaticBilling(ctx context.Context, bill billing.UtilityBill, baseline *billing.BaselineData, demandResponseRevenue float64) (BillingRunResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBillingRun(result, time.Since(start))
	}()

	var run BillingRunResult

	calc, err := s.savings.Calculate(ctx, bill, baseline, demandResponseRevenue)
	if err != nil {
		result = metrics.ResultError
		run.Messages = append(run.Messages, fmt.Sprintf("savings calculation failed: %v", err))
		return run, err
	}
	run.Calculation = calc

	if !calc.PerformanceGuaranteeMet {
		run.Messages = append(run.Messages, fmt.Sprintf(
			"performance guarantee not met for %s %d: service is free this period",
			bill.BillDate.Month().String(), bill.BillDate.Year()))
	}

	if calc.ProviderShare > 0 {
		invoice, err := s.GenerateInvoice(ctx, calc)
		if err != nil {
			result = metrics.ResultError
			run.Messages = append(run.Messages, fmt.Sprintf("invoice generation failed: %v", err))
			return run, err
		}
		run.Invoice = invoice
		run.Messages = append(run.Messages, fmt.Sprintf(
			"invoice %s generated for %s %.2f", invoice.InvoiceNumber, s.terms.Currency, invoice.Amount))
	}

	run.Messages = append(run.Messages, fmt.Sprintf(
		"third-party verification pending for calculation %s", calc.ID))

	return run, nil
}

// Invoice loads a billing record by invoice number.
func (s *BillingService) Invoice(ctx context.Context, invoiceNumber string) (*billing.BillingRecord, error) {
	record, err := s.invoices.GetByNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, billing.ErrInvoiceNotFound
	}
	return record, nil
}

// ListInvoices lists a customer's billing records.
func (s *BillingService) ListInvoices(ctx context.Context, customerID string) ([]billing.BillingRecord, error) {
	return s.invoices.ListByCustomer(ctx, customerID)
}
