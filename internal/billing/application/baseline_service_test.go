package application

import (
	"context"
	"errors"
	"testing"
	"time"

	billing "greenhouse-cloud/internal/billing/domain"
	"greenhouse-cloud/internal/billing/infrastructure/memory"
)

func TestEstablishRequiresTwelveBills(t *testing.T) {
	service, err := NewBaselineService(memory.NewBaselineRepository(), fakeClock{now: time.Now().UTC()}, newSeqIDs("bl"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	bills := yearOfBills("cust-1", "fac-1", 2024, 1000, 150)[:11]
	_, err = service.Establish(context.Background(), "cust-1", "fac-1", bills)
	if !errors.Is(err, billing.ErrInsufficientHistory) {
		t.Fatalf("got %v, want ErrInsufficientHistory", err)
	}
}

func TestEstablishKeepsMostRecentTwelve(t *testing.T) {
	repo := memory.NewBaselineRepository()
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	service, err := NewBaselineService(repo, fakeClock{now: now}, newSeqIDs("bl"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	// 14 bills in scrambled order: the two oldest must be dropped.
	bills := yearOfBills("cust-1", "fac-1", 2024, 1000, 150)
	older := []billing.UtilityBill{
		historyBill("cust-1", "fac-1", 2023, time.October, 5000, 900),
		historyBill("cust-1", "fac-1", 2023, time.September, 5000, 900),
	}
	scrambled := make([]billing.UtilityBill, 0, len(bills)+len(older))
	scrambled = append(scrambled, older[0])
	for i := len(bills) - 1; i >= 0; i-- {
		scrambled = append(scrambled, bills[i])
	}
	scrambled = append(scrambled, older[1])

	baseline, err := service.Establish(context.Background(), "cust-1", "fac-1", scrambled)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if baseline.ID != "bl-1" {
		t.Fatalf("baseline id = %s, want bl-1", baseline.ID)
	}
	if !baseline.EstablishedDate.Equal(now) {
		t.Fatalf("established date = %v, want %v", baseline.EstablishedDate, now)
	}
	if len(baseline.HistoricalUsage) != billing.BaselineMonthCount {
		t.Fatalf("history length = %d, want 12", len(baseline.HistoricalUsage))
	}
	// Oldest retained month is January 2024; the 5000 kWh outliers are gone.
	if baseline.HistoricalUsage[0].Month != "January" || baseline.HistoricalUsage[0].Year != 2024 {
		t.Fatalf("first month = %s %d, want January 2024", baseline.HistoricalUsage[0].Month, baseline.HistoricalUsage[0].Year)
	}
	if baseline.AvgMonthlyKWh != 1000 {
		t.Fatalf("AvgMonthlyKWh = %v, want 1000", baseline.AvgMonthlyKWh)
	}

	stored, err := repo.GetByID(context.Background(), "bl-1")
	if err != nil || stored == nil {
		t.Fatalf("stored baseline missing: %v", err)
	}
}

func TestEstablishRejectsInvalidBill(t *testing.T) {
	service, err := NewBaselineService(memory.NewBaselineRepository(), fakeClock{now: time.Now().UTC()}, newSeqIDs("bl"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	bills := yearOfBills("cust-1", "fac-1", 2024, 1000, 150)
	bills[4].KWhUsage = 0
	_, err = service.Establish(context.Background(), "cust-1", "fac-1", bills)
	if !errors.Is(err, billing.ErrInvalidBill) {
		t.Fatalf("got %v, want ErrInvalidBill", err)
	}
}

func TestGetReturnsBaselineByID(t *testing.T) {
	repo := memory.NewBaselineRepository()
	service, err := NewBaselineService(repo, fakeClock{now: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}, newSeqIDs("bl"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	old := &billing.BaselineData{ID: "bl-old", CustomerID: "cust-1", FacilityID: "fac-1", EstablishedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &billing.BaselineData{ID: "bl-new", CustomerID: "cust-1", FacilityID: "fac-1", EstablishedDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := repo.Save(context.Background(), old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(context.Background(), newer); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Get resolves the exact instance even when a newer baseline exists.
	got, err := service.Get(context.Background(), "bl-old")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "bl-old" {
		t.Fatalf("id = %s, want bl-old", got.ID)
	}

	_, err = service.Get(context.Background(), "missing")
	if !errors.Is(err, billing.ErrBaselineNotFound) {
		t.Fatalf("got %v, want ErrBaselineNotFound", err)
	}
}

func TestLatestReturnsNewestBaseline(t *testing.T) {
	repo := memory.NewBaselineRepository()
	service, err := NewBaselineService(repo, fakeClock{now: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}, newSeqIDs("bl"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	old := &billing.BaselineData{ID: "bl-old", CustomerID: "cust-1", FacilityID: "fac-1", EstablishedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &billing.BaselineData{ID: "bl-new", CustomerID: "cust-1", FacilityID: "fac-1", EstablishedDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := repo.Save(context.Background(), old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(context.Background(), newer); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := service.Latest(context.Background(), "cust-1", "fac-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "bl-new" {
		t.Fatalf("latest id = %s, want bl-new", got.ID)
	}

	_, err = service.Latest(context.Background(), "cust-2", "fac-1")
	if !errors.Is(err, billing.ErrBaselineNotFound) {
		t.Fatalf("got %v, want ErrBaselineNotFound", err)
	}
}
