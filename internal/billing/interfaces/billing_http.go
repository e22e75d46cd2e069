package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"greenhouse-cloud/internal/audit"
	"greenhouse-cloud/internal/auth"
	"greenhouse-cloud/internal/billing/application"
	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/observability/metrics"
)

// Handler serves the billing engine API under /api/v1.
type Handler struct {
	baselines   *application.BaselineService
	savings     *application.SavingsService
	billing     *application.BillingService
	reports     *application.ReportService
	bills       billing.BillRepository
	checker     auth.CustomerTenantChecker
	auditLogger audit.Logger
	terms       application.BillingTerms
}

// NewHandler constructs a handler.
func NewHandler(
	baselines *application.BaselineService,
	savings *application.SavingsService,
	billingService *application.BillingService,
	reports *application.ReportService,
	bills billing.BillRepository,
	checker auth.CustomerTenantChecker,
	auditLogger audit.Logger,
	terms application.BillingTerms,
) (*Handler, error) {
	if baselines == nil || savings == nil || billingService == nil || reports == nil {
		return nil, errors.New("billing handler: nil service")
	}
	if bills == nil {
		return nil, errors.New("billing handler: nil bill repository")
	}
	return &Handler{
		baselines:   baselines,
		savings:     savings,
		billing:     billingService,
		reports:     reports,
		bills:       bills,
		checker:     checker,
		auditLogger: auditLogger,
		terms:       terms,
	}, nil
}

// ServeHTTP routes billing API requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/bills" && r.Method == http.MethodPost:
		h.handleSaveBill(w, r)
	case path == "/api/v1/bills" && r.Method == http.MethodGet:
		h.handleListBills(w, r)
	case path == "/api/v1/baselines/establish" && r.Method == http.MethodPost:
		h.handleEstablishBaseline(w, r)
	case path == "/api/v1/baselines" && r.Method == http.MethodGet:
		h.handleLatestBaseline(w, r)
	case path == "/api/v1/savings/calculate" && r.Method == http.MethodPost:
		h.handleCalculate(w, r)
	case strings.HasPrefix(path, "/api/v1/savings/"):
		h.handleSavingsByID(w, r, strings.TrimPrefix(path, "/api/v1/savings/"))
	case path == "/api/v1/billing/run" && r.Method == http.MethodPost:
		h.handleBillingRun(w, r)
	case path == "/api/v1/invoices" && r.Method == http.MethodGet:
		h.handleListInvoices(w, r)
	case path == "/api/v1/reports/monthly" && r.Method == http.MethodGet:
		h.handleMonthlyReport(w, r, false)
	case path == "/api/v1/reports/monthly/export.xlsx" && r.Method == http.MethodGet:
		h.handleMonthlyReport(w, r, true)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSaveBill(w http.ResponseWriter, r *http.Request) {
	var bill billing.UtilityBill
	if err := json.NewDecoder(r.Body).Decode(&bill); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, bill.CustomerID); err != nil {
		respondTenantError(w, err)
		return
	}
	bill = bill.WithDerivedDegreeDays(h.terms.DegreeDayBase)
	if err := bill.Validate(); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.bills.Save(r.Context(), bill); err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(bill)
	h.logAudit(r, bill.CustomerID, bill.ID, "bill.save", map[string]any{
		"facility_id": bill.FacilityID,
		"bill_date":   bill.BillDate.Format("2006-01-02"),
	})
}

func (h *Handler) handleListBills(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	facilityID := r.URL.Query().Get("facility_id")
	if customerID == "" || facilityID == "" {
		http.Error(w, "customer_id and facility_id are required", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, customerID); err != nil {
		respondTenantError(w, err)
		return
	}
	bills, err := h.bills.ListByCustomerFacility(r.Context(), customerID, facilityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, bills)
}

func (h *Handler) handleEstablishBaseline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string                `json:"customer_id"`
		FacilityID string                `json:"facility_id"`
		Bills      []billing.UtilityBill `json:"bills"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, req.CustomerID); err != nil {
		respondTenantError(w, err)
		return
	}

	bills := req.Bills
	if len(bills) == 0 {
		stored, err := h.bills.ListByCustomerFacility(r.Context(), req.CustomerID, req.FacilityID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		bills = stored
	}

	baseline, err := h.baselines.Establish(r.Context(), req.CustomerID, req.FacilityID, bills)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, baseline)
	h.logAudit(r, req.CustomerID, baseline.ID, "baseline.establish", map[string]any{
		"facility_id": req.FacilityID,
		"bill_count":  len(bills),
	})
}

func (h *Handler) handleLatestBaseline(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	facilityID := r.URL.Query().Get("facility_id")
	if customerID == "" || facilityID == "" {
		http.Error(w, "customer_id and facility_id are required", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, customerID); err != nil {
		respondTenantError(w, err)
		return
	}
	baseline, err := h.baselines.Latest(r.Context(), customerID, facilityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, baseline)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BillID                string  `json:"bill_id"`
		BaselineID            string  `json:"baseline_id"`
		DemandResponseRevenue float64 `json:"demand_response_revenue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	bill, baseline, err := h.loadBillAndBaseline(r, req.BillID, req.BaselineID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	calc, err := h.savings.Calculate(r.Context(), *bill, baseline, req.DemandResponseRevenue)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, calc)
	h.logAudit(r, calc.CustomerID, calc.ID, "savings.calculate", map[string]any{
		"bill_id":     calc.BillID,
		"baseline_id": calc.BaselineID,
	})
}

func (h *Handler) handleSavingsByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		calc, err := h.savings.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if err := h.ensureCustomerTenant(r, calc.CustomerID); err != nil {
			respondTenantError(w, err)
			return
		}
		writeJSON(w, calc)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "verify":
			if r.Method == http.MethodPost {
				h.handleVerify(w, r, id)
				return
			}
		case "statement":
			if r.Method == http.MethodGet {
				h.handleStatement(w, r, id, "text")
				return
			}
		case "statement.pdf":
			if r.Method == http.MethodGet {
				h.handleStatement(w, r, id, "pdf")
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request, id string) {
	calc, err := h.savings.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.ensureCustomerTenant(r, calc.CustomerID); err != nil {
		respondTenantError(w, err)
		return
	}

	bill, err := h.bills.GetByID(r.Context(), calc.BillID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if bill == nil {
		respondServiceError(w, billing.ErrBillNotFound)
		return
	}
	// Recompute against the baseline the calculation was made from, not the
	// latest one. A recomputed baseline must not invalidate earlier results.
	baseline, err := h.baselines.Get(r.Context(), calc.BaselineID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	verified, err := h.savings.Verify(r.Context(), calc, *bill, baseline)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if verified {
		if err := h.savings.MarkVerified(r.Context(), calc.ID); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	writeJSON(w, map[string]any{
		"calculation_id": calc.ID,
		"verified":       verified,
	})
	h.logAudit(r, calc.CustomerID, calc.ID, "savings.verify", map[string]any{
		"verified": verified,
	})
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request, id, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport(format, result, time.Since(start))
	}()

	calc, err := h.savings.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if err := h.ensureCustomerTenant(r, calc.CustomerID); err != nil {
		result = metrics.ResultError
		respondTenantError(w, err)
		return
	}

	var invoice *billing.BillingRecord
	records, err := h.billing.ListInvoices(r.Context(), calc.CustomerID)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	for i := range records {
		if records[i].CalculationID == calc.ID {
			invoice = &records[i]
			break
		}
	}

	if format == "pdf" {
		data, err := BuildStatementPDF(calc, invoice, h.terms.Currency)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, "export pdf error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	} else {
		text := h.reports.CustomerStatement(calc, invoice)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}
	h.logAudit(r, calc.CustomerID, calc.ID, "statement.export", map[string]any{"format": format})
}

func (h *Handler) handleBillingRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BillID                string  `json:"bill_id"`
		BaselineID            string  `json:"baseline_id"`
		DemandResponseRevenue float64 `json:"demand_response_revenue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	bill, baseline, err := h.loadBillAndBaseline(r, req.BillID, req.BaselineID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	run, err := h.billing.ProcessAutomaticBilling(r.Context(), *bill, baseline, req.DemandResponseRevenue)
	if err != nil {
		// The caller still receives the best-effort notification list.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":    err.Error(),
			"messages": run.Messages,
		})
		return
	}
	writeJSON(w, run)
	meta := map[string]any{"bill_id": bill.ID}
	if run.Invoice != nil {
		meta["invoice_number"] = run.Invoice.InvoiceNumber
	}
	h.logAudit(r, bill.CustomerID, run.Calculation.ID, "billing.run", meta)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, customerID); err != nil {
		respondTenantError(w, err)
		return
	}
	records, err := h.billing.ListInvoices(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, records)
}

func (h *Handler) handleMonthlyReport(w http.ResponseWriter, r *http.Request, asXLSX bool) {
	customerID := r.URL.Query().Get("customer_id")
	facilityID := r.URL.Query().Get("facility_id")
	if customerID == "" || facilityID == "" {
		http.Error(w, "customer_id and facility_id are required", http.StatusBadRequest)
		return
	}
	if err := h.ensureCustomerTenant(r, customerID); err != nil {
		respondTenantError(w, err)
		return
	}

	calcs, err := h.savings.ListByCustomerFacility(r.Context(), customerID, facilityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	report := h.reports.MonthlyReport(calcs)

	if !asXLSX {
		writeJSON(w, report)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport("xlsx", result, time.Since(start))
	}()
	data, err := BuildReportXLSX(report, customerID, facilityID, h.terms.Currency)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, customerID, facilityID, "report.export", map[string]any{"format": "xlsx"})
}

func (h *Handler) loadBillAndBaseline(r *http.Request, billID, baselineID string) (*billing.UtilityBill, *billing.BaselineData, error) {
	if billID == "" {
		return nil, nil, billing.ErrBillNotFound
	}
	bill, err := h.bills.GetByID(r.Context(), billID)
	if err != nil {
		return nil, nil, err
	}
	if bill == nil {
		return nil, nil, billing.ErrBillNotFound
	}
	if err := h.ensureCustomerTenant(r, bill.CustomerID); err != nil {
		return nil, nil, err
	}

	if baselineID != "" {
		baseline, err := h.baselines.Get(r.Context(), baselineID)
		if err != nil {
			return nil, nil, err
		}
		if baseline.CustomerID != bill.CustomerID || baseline.FacilityID != bill.FacilityID {
			return nil, nil, billing.ErrBaselineNotFound
		}
		return bill, baseline, nil
	}
	baseline, err := h.baselines.Latest(r.Context(), bill.CustomerID, bill.FacilityID)
	if err != nil {
		return nil, nil, err
	}
	return bill, baseline, nil
}

func (h *Handler) ensureCustomerTenant(r *http.Request, customerID string) error {
	tenantID := auth.TenantIDFromContext(r.Context())
	if h.checker == nil || tenantID == "" || customerID == "" {
		return nil
	}
	return h.checker.EnsureCustomerTenant(r.Context(), tenantID, customerID)
}

func (h *Handler) logAudit(r *http.Request, customerID, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "billing",
		ResourceID:   resourceID,
		CustomerID:   customerID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondTenantError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTenantMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "tenant check failed", http.StatusInternalServerError)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, auth.ErrTenantMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, billing.ErrBillNotFound),
		errors.Is(err, billing.ErrBaselineNotFound),
		errors.Is(err, billing.ErrCalculationNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrInsufficientHistory),
		errors.Is(err, billing.ErrNoBaselineForPeriod):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
