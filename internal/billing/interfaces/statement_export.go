package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"greenhouse-cloud/internal/billing/application"
	billing "greenhouse-cloud/internal/billing/domain"
)

// BuildStatementPDF renders a customer savings statement as PDF.
func BuildStatementPDF(calc *billing.SavingsCalculation, invoice *billing.BillingRecord, currency string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Savings Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Calculation: %s", calc.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", calc.CalculationDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Customer: %s", calc.CustomerID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Facility: %s", calc.FacilityID))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Measure", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, "Value", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	rows := []struct {
		label string
		value string
	}{
		{"Baseline Usage (kWh)", fmt.Sprintf("%.1f", calc.BaselineUsage)},
		{"Weather-Adjusted Baseline (kWh)", fmt.Sprintf("%.1f", calc.WeatherAdjustedBaseline)},
		{"Actual Usage (kWh)", fmt.Sprintf("%.1f", calc.ActualUsage)},
		{"kWh Savings", fmt.Sprintf("%.1f", calc.KWhSavings)},
		{fmt.Sprintf("Cost Savings (%s)", currency), fmt.Sprintf("%.2f", calc.CostSavings)},
		{"Savings Percentage", fmt.Sprintf("%.1f%%", calc.SavingsPercentage*100)},
		{fmt.Sprintf("Demand Response (%s)", currency), fmt.Sprintf("%.2f", calc.DemandResponseRevenue)},
		{fmt.Sprintf("Total Benefit (%s)", currency), fmt.Sprintf("%.2f", calc.TotalBenefit)},
		{fmt.Sprintf("Provider Share (%s)", currency), fmt.Sprintf("%.2f", calc.ProviderShare)},
		{fmt.Sprintf("Customer Share (%s)", currency), fmt.Sprintf("%.2f", calc.CustomerShare)},
	}
	for _, row := range rows {
		pdf.CellFormat(90, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row.value, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	if calc.PerformanceGuaranteeMet {
		pdf.Cell(0, 6, "Performance guarantee: met")
	} else {
		pdf.Cell(0, 6, "Performance guarantee: not met - service is free this period")
	}
	pdf.Ln(5)
	if invoice != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Invoice %s: %s %.2f due %s (%s)",
			invoice.InvoiceNumber, currency, invoice.Amount, invoice.DueDate.Format("2006-01-02"), invoice.Status))
		pdf.Ln(5)
	}
	if calc.ThirdPartyVerified && calc.VerificationDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Third-party verified: %s", calc.VerificationDate.Format("2006-01-02")))
	} else {
		pdf.Cell(0, 6, "Third-party verification: pending")
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a monthly savings report as XLSX.
func BuildReportXLSX(report application.MonthlySavingsReport, customerID, facilityID, currency string) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	chartSheet := "monthly"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(chartSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Monthly Savings Report")
	_ = f.SetCellValue(summarySheet, "A3", "Customer")
	_ = f.SetCellValue(summarySheet, "B3", customerID)
	_ = f.SetCellValue(summarySheet, "A4", "Facility")
	_ = f.SetCellValue(summarySheet, "B4", facilityID)
	_ = f.SetCellValue(summarySheet, "A5", "Calculations")
	_ = f.SetCellValue(summarySheet, "B5", report.CalculationCount)
	_ = f.SetCellValue(summarySheet, "A6", "Guarantee Met")
	_ = f.SetCellValue(summarySheet, "B6", report.GuaranteeMetCount)
	_ = f.SetCellValue(summarySheet, "A7", fmt.Sprintf("Total Benefit (%s)", currency))
	_ = f.SetCellValue(summarySheet, "B7", report.TotalBenefit)
	_ = f.SetCellValue(summarySheet, "A8", fmt.Sprintf("Provider Share (%s)", currency))
	_ = f.SetCellValue(summarySheet, "B8", report.TotalProviderShare)
	_ = f.SetCellValue(summarySheet, "A9", fmt.Sprintf("Customer Share (%s)", currency))
	_ = f.SetCellValue(summarySheet, "B9", report.TotalCustomerShare)
	_ = f.SetCellValue(summarySheet, "A10", "Avg Savings %")
	_ = f.SetCellValue(summarySheet, "B10", report.AvgSavingsPercentage*100)

	_ = f.SetCellValue(chartSheet, "A1", "Month")
	_ = f.SetCellValue(chartSheet, "B1", fmt.Sprintf("Cost Savings (%s)", currency))
	_ = f.SetCellValue(chartSheet, "C1", "Savings %")
	_ = f.SetCellValue(chartSheet, "D1", "kWh Savings")
	for i, point := range report.Chart {
		row := i + 2
		_ = f.SetCellValue(chartSheet, fmt.Sprintf("A%d", row), point.MonthLabel)
		_ = f.SetCellValue(chartSheet, fmt.Sprintf("B%d", row), point.CostSavings)
		_ = f.SetCellValue(chartSheet, fmt.Sprintf("C%d", row), point.SavingsPercentage)
		_ = f.SetCellValue(chartSheet, fmt.Sprintf("D%d", row), point.KWhSavings)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
