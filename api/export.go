package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/warp/liquidation-engine/liquidation"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// BuildLiquidationPDF renders a settlement summary with one row per line.
func BuildLiquidationPDF(d *liquidation.Details, names map[liquidation.StudentID]string) ([]byte, error) {
	liq := d.Liquidation

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Liquidation")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("ID: %s", liq.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", liq.Period.Start, liq.Period.End))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Target: %s (%s FTE-days per jornada)", liq.Target, liq.TargetFTEDays))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Mode: %s", liq.Mode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", liq.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Students: %d", liq.TotalStudents))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Jornadas: %d", liq.TotalJornadas))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("FTE-days used: %s", liq.TotalFTEDaysUsed.Value.StringFixed(2)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	headers := []string{"Student", "Opening", "Added", "Used", "Closing", "Jornadas"}
	widths := []float64{50, 26, 26, 26, 26, 22}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range d.Lines {
		student := string(line.StudentID)
		if name := names[line.StudentID]; name != "" {
			student = name
		}
		pdf.CellFormat(widths[0], 6, student, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.Opening.Value.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, line.Added.Value.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, line.Used.Value.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, line.Closing.Value.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%d", line.Jornadas), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLiquidationXLSX renders a workbook with a summary sheet and a lines sheet.
func BuildLiquidationXLSX(d *liquidation.Details, names map[liquidation.StudentID]string) ([]byte, error) {
	liq := d.Liquidation

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	linesSheet := "lines"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Liquidation", liq.ID},
		{"Start date", liq.Period.Start.String()},
		{"End date", liq.Period.End.String()},
		{"Target", string(liq.Target)},
		{"Target FTE-days", liq.TargetFTEDays.Float64()},
		{"Mode", string(liq.Mode)},
		{"Total students", liq.TotalStudents},
		{"Total jornadas", liq.TotalJornadas},
		{"Total FTE-days used", liq.TotalFTEDaysUsed.Float64()},
		{"Created at", liq.CreatedAt.Format(time.RFC3339)},
	}
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}

	headers := []string{"Student ID", "Student", "Opening", "Added", "Used", "Closing", "Jornadas"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(linesSheet, cell, h)
	}
	for i, line := range d.Lines {
		row := i + 2
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), string(line.StudentID))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), names[line.StudentID])
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), line.Opening.Float64())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.Added.Float64())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), line.Used.Float64())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("F%d", row), line.Closing.Float64())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("G%d", row), line.Jornadas)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
