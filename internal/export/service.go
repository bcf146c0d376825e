package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/expenselens/receipt-engine/internal/pipeline"
)

// Service produces XLSX bytes from processed receipt results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportResultsXLSX writes one workbook with a summary sheet and a line-item
// sheet for a batch of results. Failed items (nil results) are skipped.
func (s *Service) ExportResultsXLSX(results []*pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Receipts"
	const itemSheet = "Line Items"
	// rename the default sheet so the workbook carries no empty Sheet1
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Vendor",
		"Category",
		"Subtotal",
		"Tax",
		"Total",
		"Currency",
		"Items",
		"Confidence",
		"Quality",
		"Used Fallback",
		"Cost",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	itemHeaders := []string{"Receipt", "Vendor", "Description", "Quantity", "Unit Price", "Total Price", "Category", "SKU"}
	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemSheet, cell, h)
	}

	row := 2
	itemRow := 2
	exported := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		d := r.Data
		if !d.Date.IsZero() {
			write(1, d.Date.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, d.Vendor)
		write(3, d.Category)
		write(4, d.Subtotal)
		write(5, d.Tax)
		write(6, d.TotalAmount)
		write(7, d.Currency)
		write(8, len(d.LineItems))
		write(9, d.Confidence)
		if r.Quality != nil {
			write(10, r.Quality.OverallScore)
		}
		write(11, r.UsedFallback)
		write(12, r.TotalCost)

		for _, it := range d.LineItems {
			writeItem := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, itemRow)
				_ = f.SetCellValue(itemSheet, cell, v)
			}
			writeItem(1, r.ID)
			writeItem(2, d.Vendor)
			writeItem(3, it.Description)
			writeItem(4, it.Quantity)
			writeItem(5, it.UnitPrice)
			writeItem(6, it.TotalPrice)
			writeItem(7, it.Category)
			writeItem(8, it.SKU)
			itemRow++
		}

		row++
		exported++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"receipts", exported,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
