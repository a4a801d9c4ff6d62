package parse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// Cell is one typed spreadsheet/CSV cell. CSV and legacy XLS cells are plain
// text; XLSX raw values that parse as numbers carry the numeric value too,
// which is how date-formatted serials and native numeric amounts survive the
// round trip.
type Cell struct {
	Text     string
	Number   float64
	IsNumber bool
}

func textCell(s string) Cell {
	return Cell{Text: strings.TrimSpace(s)}
}

// Excel serial date plausibility window, roughly 1954..2064. Serials are only
// treated as dates when the column is already known to be the date column.
const (
	minExcelSerial = 20000
	maxExcelSerial = 60000
)

// DateValue resolves a cell to a calendar date: a plausible Excel date
// serial is converted directly, anything else is string-parsed against the
// statement date formats.
func (c Cell) DateValue() *time.Time {
	if c.IsNumber && c.Number >= minExcelSerial && c.Number <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(c.Number, false); err == nil {
			t = t.UTC().Truncate(24 * time.Hour)
			return &t
		}
	}
	return parseDate(c.Text)
}

// readCSVGrid parses CSV bytes into a grid of text cells.
func readCSVGrid(data []byte) ([][]Cell, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	grid := make([][]Cell, len(records))
	for i, record := range records {
		row := make([]Cell, len(record))
		for j, value := range record {
			row[j] = textCell(value)
		}
		grid[i] = row
	}
	return grid, nil
}

// readXLSXGrid parses an OOXML workbook's first sheet into a typed grid.
// Raw cell values keep date serials and numbers unformatted.
func readXLSXGrid(data []byte) ([][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	grid := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, value := range row {
			cell := textCell(value)
			if n, err := strconv.ParseFloat(cell.Text, 64); err == nil {
				cell.Number = n
				cell.IsNumber = true
			}
			cells[j] = cell
		}
		grid[i] = cells
	}
	return grid, nil
}

// readXLSGrid parses a legacy BIFF workbook into a grid of text cells.
func readXLSGrid(data []byte) ([][]Cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	rows := wb.ReadAllCells(50000)
	grid := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, value := range row {
			cells[j] = textCell(value)
		}
		grid[i] = cells
	}
	return grid, nil
}

// readPDFLines extracts text lines from a PDF in reading order. Table
// structure is lost; rows come back top-to-bottom with their words in
// left-to-right position order, which is what the statement parser expects.
func readPDFLines(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var lines []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, text := range row.Content {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(text.S)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}
