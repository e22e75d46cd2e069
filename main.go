package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"greenhouse-cloud/internal/audit"
	"greenhouse-cloud/internal/auth"
	"greenhouse-cloud/internal/billing/application"
	billingpostgres "greenhouse-cloud/internal/billing/infrastructure/postgres"
	billinginterfaces "greenhouse-cloud/internal/billing/interfaces"
	"greenhouse-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	accountChecker := auth.NewAccountChecker(db)
	auditRepo := audit.NewRepository(db)

	terms, err := application.LoadBillingTerms()
	if err != nil {
		logger.Fatalf("billing terms error: %v", err)
	}

	billRepo := billingpostgres.NewBillRepository(db)
	baselineRepo := billingpostgres.NewBaselineRepository(db)
	calcRepo := billingpostgres.NewCalculationRepository(db)
	invoiceRepo := billingpostgres.NewInvoiceRepository(db)

	clock := application.SystemClock{}
	ids := application.UUIDGenerator{}

	baselineService, err := application.NewBaselineService(baselineRepo, clock, ids)
	if err != nil {
		logger.Fatalf("baseline service error: %v", err)
	}
	savingsService, err := application.NewSavingsService(calcRepo, terms, clock, ids)
	if err != nil {
		logger.Fatalf("savings service error: %v", err)
	}
	billingService, err := application.NewBillingService(invoiceRepo, savingsService, terms, clock, ids)
	if err != nil {
		logger.Fatalf("billing service error: %v", err)
	}
	reportService, err := application.NewReportService(terms)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}

	billingHandler, err := billinginterfaces.NewHandler(
		baselineService, savingsService, billingService, reportService,
		billRepo, accountChecker, auditRepo, terms,
	)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/bills", billingHandler)
	mux.Handle("/api/v1/baselines", billingHandler)
	mux.Handle("/api/v1/baselines/", billingHandler)
	mux.Handle("/api/v1/savings/", billingHandler)
	mux.Handle("/api/v1/billing/", billingHandler)
	mux.Handle("/api/v1/invoices", billingHandler)
	mux.Handle("/api/v1/reports/", billingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	TenantID    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:    getenvDefault("TENANT_ID", "tenant-demo"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
