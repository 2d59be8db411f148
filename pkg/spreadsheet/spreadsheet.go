// Package spreadsheet reads uploaded workbooks and CSV files into the row
// mapping the normalizer consumes. Headers are canonicalized so downstream
// alias matching is case and spacing insensitive.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// ReadRows parses an uploaded file into rows keyed by normalized header.
// The format is chosen by file extension: .xlsx, .xls, or .csv.
func ReadRows(filename string, reader io.Reader) ([]models.Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readXLSX(reader)
	case ".xls":
		return readXLS(reader)
	case ".csv":
		return readCSV(reader)
	default:
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported file type %q, expected .xlsx, .xls, or .csv", filepath.Ext(filename))
	}
}

func readXLSX(reader io.Reader) ([]models.Row, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to open workbook: %s", err.Error())
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "workbook contains no sheets")
	}

	cells, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return buildRows(cells), nil
}

func readXLS(reader io.Reader) ([]models.Row, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// Some clients upload xlsx content with an .xls name
		if _, retryErr := excelize.OpenReader(bytes.NewReader(data)); retryErr == nil {
			return readXLSX(bytes.NewReader(data))
		}
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to open workbook: %s", err.Error())
	}

	if len(workbook.GetSheets()) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "workbook contains no sheets")
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	var cells [][]string
	for _, row := range sheet.GetRows() {
		var line []string
		for _, cell := range row.GetCols() {
			line = append(line, cell.GetString())
		}
		cells = append(cells, line)
	}

	return buildRows(cells), nil
}

func readCSV(reader io.Reader) ([]models.Row, error) {
	parser := csv.NewReader(reader)
	parser.FieldsPerRecord = -1

	cells, err := parser.ReadAll()
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to parse csv: %s", err.Error())
	}

	return buildRows(cells), nil
}

// buildRows treats the first non-empty line as headers and maps every later
// line onto them. Blank lines and blank cells are dropped so the normalizer
// sees only real values.
func buildRows(cells [][]string) []models.Row {
	var headers []string
	var rows []models.Row

	for _, line := range cells {
		if isBlank(line) {
			continue
		}

		if headers == nil {
			headers = make([]string, len(line))
			for i, header := range line {
				headers[i] = normalizers.NormalizeHeader(header)
			}
			continue
		}

		row := make(models.Row, len(headers))
		for i, header := range headers {
			if header == "" || i >= len(line) {
				continue
			}
			value := strings.TrimSpace(line[i])
			if value == "" {
				continue
			}
			row[header] = value
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	return rows
}

func isBlank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
