package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/billing/infrastructure/memory"
)

func newBillingFixture(t *testing.T, now time.Time) (*BillingService, *memory.InvoiceRepository) {
	t.Helper()
	ids := newSeqIDs("id")
	savings, err := NewSavingsService(memory.NewCalculationRepository(), testTerms(), fakeClock{now: now}, ids)
	if err != nil {
		t.Fatalf("savings service: %v", err)
	}
	invoices := memory.NewInvoiceRepository()
	service, err := NewBillingService(invoices, savings, testTerms(), fakeClock{now: now}, ids)
	if err != nil {
		t.Fatalf("billing service: %v", err)
	}
	return service, invoices
}

func TestProcessAutomaticBillingInvoicesProviderShare(t *testing.T) {
	now := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	service, invoices := newBillingFixture(t, now)

	baseline := establishedBaseline(t)
	bill := historyBill("cust-1", "fac-1", 2025, time.July, 800, 120)

	run, err := service.ProcessAutomaticBilling(context.Background(), bill, baseline, 0)
	if err != nil {
		t.Fatalf("billing run: %v", err)
	}

	if run.Calculation == nil || !run.Calculation.PerformanceGuaranteeMet {
		t.Fatal("expected a guarantee-met calculation")
	}
	if run.Invoice == nil {
		t.Fatal("expected an invoice for a positive provider share")
	}
	if math.Abs(run.Invoice.Amount-9) > 1e-9 {
		t.Fatalf("invoice amount = %v, want 9", run.Invoice.Amount)
	}
	if !strings.HasPrefix(run.Invoice.InvoiceNumber, "INV-") {
		t.Fatalf("invoice number = %s, want INV- prefix", run.Invoice.InvoiceNumber)
	}
	if run.Invoice.Status != billing.InvoiceStatusPending {
		t.Fatalf("invoice status = %s, want pending", run.Invoice.Status)
	}
	wantDue := now.AddDate(0, 0, 15)
	if !run.Invoice.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %v, want %v", run.Invoice.DueDate, wantDue)
	}

	if len(run.Messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", run.Messages)
	}
	if !strings.Contains(run.Messages[0], "invoice "+run.Invoice.InvoiceNumber) {
		t.Fatalf("first message = %q, want invoice notification", run.Messages[0])
	}
	if !strings.Contains(run.Messages[1], "verification pending") {
		t.Fatalf("last message = %q, want verification notice", run.Messages[1])
	}

	stored, err := invoices.GetByNumber(context.Background(), run.Invoice.InvoiceNumber)
	if err != nil || stored == nil {
		t.Fatalf("stored invoice missing: %v", err)
	}
}

func TestProcessAutomaticBillingGuaranteeNotMet(t *testing.T) {
	now := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	service, invoices := newBillingFixture(t, now)

	baseline := establishedBaseline(t)
	// Only ~3% savings: guarantee missed, no invoice, service free.
	bill := historyBill("cust-1", "fac-1", 2025, time.July, 970, 145)

	run, err := service.ProcessAutomaticBilling(context.Background(), bill, baseline, 0)
	if err != nil {
		t.Fatalf("billing run: %v", err)
	}

	if run.Calculation.PerformanceGuaranteeMet {
		t.Fatal("guarantee must be missed")
	}
	if run.Invoice != nil {
		t.Fatal("no invoice may be generated when the guarantee is missed")
	}
	if run.Calculation.ProviderShare != 0 {
		t.Fatalf("provider share = %v, want 0", run.Calculation.ProviderShare)
	}
	if run.Calculation.CustomerShare != run.Calculation.TotalBenefit {
		t.Fatal("customer must keep the whole benefit")
	}

	if len(run.Messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", run.Messages)
	}
	if !strings.Contains(run.Messages[0], "service is free this period") {
		t.Fatalf("first message = %q, want free-service notice", run.Messages[0])
	}
	if !strings.Contains(run.Messages[1], "verification pending") {
		t.Fatalf("last message = %q, want verification notice", run.Messages[1])
	}

	records, err := invoices.ListByCustomer(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("stored invoices = %d, want 0", len(records))
	}
}

func TestProcessAutomaticBillingDemandResponseOnly(t *testing.T) {
	now := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	service, _ := newBillingFixture(t, now)

	baseline := establishedBaseline(t)
	// Usage grew, so the only benefit is demand response revenue, and the
	// missed guarantee leaves all of it with the customer.
	bill := historyBill("cust-1", "fac-1", 2025, time.July, 1200, 180)

	run, err := service.ProcessAutomaticBilling(context.Background(), bill, baseline, 75)
	if err != nil {
		t.Fatalf("billing run: %v", err)
	}
	if run.Invoice != nil {
		t.Fatal("no invoice without a provider share")
	}
	if run.Calculation.TotalBenefit != 75 || run.Calculation.CustomerShare != 75 {
		t.Fatalf("benefit split = (%v, %v), want all 75 to the customer",
			run.Calculation.TotalBenefit, run.Calculation.CustomerShare)
	}
}

func TestProcessAutomaticBillingCalculationError(t *testing.T) {
	service, _ := newBillingFixture(t, time.Now().UTC())

	baseline := establishedBaseline(t)
	bill := historyBill("cust-1", "fac-1", 2027, time.July, 800, 120)

	run, err := service.ProcessAutomaticBilling(context.Background(), bill, baseline, 0)
	if !errors.Is(err, billing.ErrNoBaselineForPeriod) {
		t.Fatalf("got %v, want ErrNoBaselineForPeriod", err)
	}
	if run.Calculation != nil || run.Invoice != nil {
		t.Fatal("failed run must not carry a calculation or invoice")
	}
	if len(run.Messages) != 1 || !strings.Contains(run.Messages[0], "savings calculation failed") {
		t.Fatalf("messages = %v, want a single failure notice", run.Messages)
	}
}

func TestGenerateInvoiceNotes(t *testing.T) {
	now := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	service, _ := newBillingFixture(t, now)

	calc := &billing.SavingsCalculation{
		ID:            "calc-7",
		CustomerID:    "cust-1",
		TotalBenefit:  30,
		ProviderShare: 9,
		CustomerShare: 21,
	}
	invoice, err := service.GenerateInvoice(context.Background(), calc)
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}
	if invoice.CalculationID != "calc-7" {
		t.Fatalf("calculation id = %s, want calc-7", invoice.CalculationID)
	}
	if !strings.Contains(invoice.Notes, "USD 30.00") || !strings.Contains(invoice.Notes, "USD 21.00") {
		t.Fatalf("notes = %q, want benefit and customer share amounts", invoice.Notes)
	}
}
