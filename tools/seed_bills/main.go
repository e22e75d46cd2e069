package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn        string
	tenantID   string
	customerID string
	facilityID string
	startDate  string
	months     int
	baseKWh    float64
	ratePerKWh float64
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.months <= 0 {
		log.Fatal("months must be > 0")
	}

	start, err := parseStartDate(cfg.startDate, cfg.months)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := seedAccount(ctx, db, cfg.tenantID, cfg.customerID); err != nil {
		log.Fatalf("seed account: %v", err)
	}

	log.Printf("seeding utility_bills: customer=%s facility=%s months=%d from %s",
		cfg.customerID, cfg.facilityID, cfg.months, start.Format("2006-01"))
	if err := seedBills(ctx, db, cfg, start); err != nil {
		log.Fatalf("seed bills: %v", err)
	}

	log.Printf("bill seed completed")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.tenantID, "tenant-id", envOrDefault("TENANT_ID", "tenant-demo"), "tenant owning the customer account")
	flag.StringVar(&cfg.customerID, "customer-id", envOrDefault("CUSTOMER_ID", "customer-demo-001"), "customer id")
	flag.StringVar(&cfg.facilityID, "facility-id", envOrDefault("FACILITY_ID", "facility-demo-001"), "facility id")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", ""), "first bill month (YYYY-MM-DD)")
	flag.IntVar(&cfg.months, "months", envOrInt("MONTHS", 13), "number of monthly bills to seed")
	flag.Float64Var(&cfg.baseKWh, "base-kwh", envOrFloat("BASE_KWH", 42000), "non-weather base monthly usage")
	flag.Float64Var(&cfg.ratePerKWh, "rate-per-kwh", envOrFloat("RATE_PER_KWH", 0.14), "blended rate used for total cost")
	flag.Parse()
	return cfg
}

func parseStartDate(value string, months int) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := time.Now().UTC()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, -months, 0), nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

func seedAccount(ctx context.Context, db *sql.DB, tenantID, customerID string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO customer_accounts (customer_id, tenant_id)
VALUES ($1, $2)
ON CONFLICT (customer_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id`,
		customerID, tenantID)
	return err
}

func seedBills(ctx context.Context, db *sql.DB, cfg config, start time.Time) error {
	const insertSQL = `
INSERT INTO utility_bills (
	id, customer_id, facility_id, bill_date, period_start, period_end,
	kwh_usage, demand_kw, total_cost, rate_schedule, utility_provider,
	avg_temperature, peak_temperature, min_temperature, cooling_degree_days, heating_degree_days
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
ON CONFLICT (id) DO NOTHING`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for i := 0; i < cfg.months; i++ {
		monthStart := start.AddDate(0, i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0).Add(-24 * time.Hour)
		billDate := monthStart.AddDate(0, 1, 4)

		// Seasonal temperature curve peaking in July.
		phase := 2 * math.Pi * (float64(monthStart.Month()) - 7) / 12
		avgTemp := 62 + 18*math.Cos(phase)
		peakTemp := avgTemp + 14
		minTemp := avgTemp - 12
		days := float64(monthEnd.Day())
		cdd := math.Max(0, avgTemp-65) * days
		hdd := math.Max(0, 65-avgTemp) * days

		usage := cfg.baseKWh + 40*cdd + 12*hdd
		demand := usage / (days * 14)
		cost := usage * cfg.ratePerKWh

		id := fmt.Sprintf("bill-%s-%s-%s", cfg.customerID, cfg.facilityID, monthStart.Format("200601"))
		if _, err := stmt.ExecContext(ctx,
			id, cfg.customerID, cfg.facilityID, billDate, monthStart, monthEnd,
			usage, demand, cost, "GS-2", "Pacific Power & Light",
			avgTemp, peakTemp, minTemp, cdd, hdd,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
		log.Printf("seeded bill %s: %.0f kWh, %.2f", id, usage, cost)
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envOrFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
