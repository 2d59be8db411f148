package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadRowsCSV(t *testing.T) {
	t.Run("headers normalize and rows map", func(t *testing.T) {
		csvData := "Client Name, GP ,Employee\nAjax,336.96,Pam Henard\nGlobex,100,Jim Halpert\n"

		rows, err := ReadRows("commissions.csv", strings.NewReader(csvData))

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Ajax", rows[0]["client name"])
		assert.Equal(t, "336.96", rows[0]["gp"])
		assert.Equal(t, "Pam Henard", rows[0]["employee"])
		assert.Equal(t, "Globex", rows[1]["client name"])
	})

	t.Run("blank lines and cells are dropped", func(t *testing.T) {
		csvData := "client,gp,employee\n,,\nAjax,,Pam Henard\n"

		rows, err := ReadRows("commissions.csv", strings.NewReader(csvData))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		_, hasGP := rows[0]["gp"]
		assert.False(t, hasGP)
	})

	t.Run("ragged rows are tolerated", func(t *testing.T) {
		csvData := "client,gp,employee\nAjax,100\n"

		rows, err := ReadRows("commissions.csv", strings.NewReader(csvData))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "100", rows[0]["gp"])
	})
}

func TestReadRowsXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	require.NoError(t, workbook.SetSheetRow(sheet, "A1", &[]any{"Client", "GP", "Employee"}))
	require.NoError(t, workbook.SetSheetRow(sheet, "A2", &[]any{"Ajax", 336.96, "Pam Henard"}))

	var buffer bytes.Buffer
	require.NoError(t, workbook.Write(&buffer))

	rows, err := ReadRows("upload.xlsx", &buffer)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ajax", rows[0]["client"])
	assert.Equal(t, "Pam Henard", rows[0]["employee"])
}

func TestReadRowsXLSX_FromXLSName(t *testing.T) {
	// xlsx bytes uploaded with a legacy .xls name still parse
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	require.NoError(t, workbook.SetSheetRow(sheet, "A1", &[]any{"Client", "Employee"}))
	require.NoError(t, workbook.SetSheetRow(sheet, "A2", &[]any{"Ajax", "Pam Henard"}))

	var buffer bytes.Buffer
	require.NoError(t, workbook.Write(&buffer))

	rows, err := ReadRows("upload.xls", &buffer)

	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReadRowsUnsupported(t *testing.T) {
	_, err := ReadRows("upload.pdf", strings.NewReader("x"))

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
}
