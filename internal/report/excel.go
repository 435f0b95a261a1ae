package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"surfside/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Günlük Program"

// WriteXLSX renders r as a workbook. Multi-hour bookings are merged vertically.
func WriteXLSX(r *DailyReport, w io.Writer) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook into dir and returns the file path.
func SaveXLSX(r *DailyReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("gunluk_program_%s.xlsx", r.Date))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating export file: %w", err)
	}
	defer out.Close()

	if err := WriteXLSX(r, out); err != nil {
		return "", err
	}
	return path, nil
}

func build(r *DailyReport) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	lastCol, _ := excelize.ColumnNumberToName(len(r.Instructors) + 1)
	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Günlük Program: %s", r.Date))
	if len(r.Instructors) > 0 {
		_ = f.MergeCell(SheetName, "A1", lastCol+"1")
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	bookedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})

	_ = f.SetCellValue(SheetName, "A2", "Saat")
	for i, name := range r.Instructors {
		cell, _ := excelize.CoordinatesToCellName(i+2, 2)
		_ = f.SetCellValue(SheetName, cell, name)
	}
	_ = f.SetCellStyle(SheetName, "A2", lastCol+"2", headerStyle)

	const firstRow = 3
	for i, row := range r.Rows {
		y := firstRow + i
		timeCell, _ := excelize.CoordinatesToCellName(1, y)
		_ = f.SetCellValue(SheetName, timeCell, row.Time)

		for c, cell := range row.Cells {
			if cell == nil || cell.Continuation {
				continue
			}
			top, _ := excelize.CoordinatesToCellName(c+2, y)
			_ = f.SetCellValue(SheetName, top, cellText(cell))

			bottom := top
			if span := continuationSpan(r.Rows, i, c, cell.BookingID); span > 0 {
				bottom, _ = excelize.CoordinatesToCellName(c+2, y+span)
				if err := f.MergeCell(SheetName, top, bottom); err != nil {
					f.Close()
					return nil, fmt.Errorf("error merging %s:%s: %w", top, bottom, err)
				}
			}
			_ = f.SetCellStyle(SheetName, top, bottom, bookedStyle)
		}
	}

	y := firstRow + len(r.Rows) + 1
	if len(r.Unassigned) > 0 {
		label, _ := excelize.CoordinatesToCellName(1, y)
		_ = f.SetCellValue(SheetName, label, "Eğitmen atanmamış")
		_ = f.SetCellStyle(SheetName, label, label, headerStyle)
		for _, b := range r.Unassigned {
			y++
			timeCell, _ := excelize.CoordinatesToCellName(1, y)
			textCell, _ := excelize.CoordinatesToCellName(2, y)
			_ = f.SetCellValue(SheetName, timeCell, b.Time)
			_ = f.SetCellValue(SheetName, textCell, fmt.Sprintf("%s - %s (%d saat)",
				b.Customer.FullName, models.ActivityLabel(b.Activity), b.Duration))
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 10)
	if len(r.Instructors) > 0 {
		_ = f.SetColWidth(SheetName, "B", lastCol, 28)
	}
	return f, nil
}

func cellText(c *Cell) string {
	return fmt.Sprintf("%s\n%s\n%s", c.CustomerName, models.ActivityLabel(c.Activity), c.Phone)
}

// continuationSpan counts the rows after i that continue booking id in column c.
func continuationSpan(rows []Row, i, c int, id string) int {
	span := 0
	for j := i + 1; j < len(rows); j++ {
		next := rows[j].Cells[c]
		if next == nil || !next.Continuation || next.BookingID != id {
			break
		}
		span++
	}
	return span
}
