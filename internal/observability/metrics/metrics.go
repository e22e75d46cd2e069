package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "greenhouse_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	baselineEstablishTotal   *prometheus.CounterVec
	baselineEstablishLatency *prometheus.HistogramVec

	savingsCalculateTotal   *prometheus.CounterVec
	savingsCalculateLatency *prometheus.HistogramVec

	invoiceGenerateTotal   *prometheus.CounterVec
	invoiceGenerateLatency *prometheus.HistogramVec

	billingRunTotal   *prometheus.CounterVec
	billingRunLatency *prometheus.HistogramVec

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		baselineEstablishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "baseline_establish_total",
				Help: "Total baseline establishment operations by result",
			},
			[]string{"result"},
		)
		baselineEstablishLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "baseline_establish_latency_seconds",
				Help:    "Baseline establishment latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		savingsCalculateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "savings_calculate_total",
				Help: "Total savings calculations by result",
			},
			[]string{"result"},
		)
		savingsCalculateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "savings_calculate_latency_seconds",
				Help:    "Savings calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		invoiceGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_generate_total",
				Help: "Total invoice generation operations by result",
			},
			[]string{"result"},
		)
		invoiceGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_generate_latency_seconds",
				Help:    "Invoice generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		billingRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_run_total",
				Help: "Total automatic billing runs by result",
			},
			[]string{"result"},
		)
		billingRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "billing_run_latency_seconds",
				Help:    "Automatic billing run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			baselineEstablishTotal,
			baselineEstablishLatency,
			savingsCalculateTotal,
			savingsCalculateLatency,
			invoiceGenerateTotal,
			invoiceGenerateLatency,
			billingRunTotal,
			billingRunLatency,
			statementExportTotal,
			statementExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveBaselineEstablish records baseline establishment duration and result.
func ObserveBaselineEstablish(result string, duration time.Duration) {
	observe(baselineEstablishTotal, baselineEstablishLatency, result, duration)
}

// ObserveSavingsCalculate records savings calculation duration and result.
func ObserveSavingsCalculate(result string, duration time.Duration) {
	observe(savingsCalculateTotal, savingsCalculateLatency, result, duration)
}

// ObserveInvoiceGenerate records invoice generation duration and result.
func ObserveInvoiceGenerate(result string, duration time.Duration) {
	observe(invoiceGenerateTotal, invoiceGenerateLatency, result, duration)
}

// ObserveBillingRun records automatic billing run duration and result.
func ObserveBillingRun(result string, duration time.Duration) {
	observe(billingRunTotal, billingRunLatency, result, duration)
}

// ObserveStatementExport records statement export duration by format and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

func observe(total *prometheus.CounterVec, latency *prometheus.HistogramVec, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if total != nil {
		total.WithLabelValues(result).Inc()
	}
	if latency != nil {
		latency.WithLabelValues(result).Observe(duration.Seconds())
	}
}
