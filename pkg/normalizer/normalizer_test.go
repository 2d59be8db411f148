package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	n := New(WithClock(fixedClock))

	t.Run("minimal row uses all defaults", func(t *testing.T) {
		row := models.Row{
			"client":   "Ajax",
			"gp":       "336.96",
			"employee": "Pam Henard",
			"status":   "New",
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, "Pam Henard", record.EmployeeName)
		assert.Equal(t, "Ajax", record.Client)
		assert.Equal(t, "New", record.Status)
		assert.Equal(t, 336.96, record.GrossProfit)
		assert.Equal(t, 8.42, record.HourlyGrossProfit)
		assert.Equal(t, "10.00%", record.CommissionRate)
		assert.Equal(t, 33.70, record.CommissionAmount)
		assert.Equal(t, "Current", record.Month)
		assert.Equal(t, 1, record.Day)
		assert.Equal(t, 2023, record.Year)
		assert.Equal(t, models.SourceSpreadsheet, record.Source)
	})

	t.Run("full row", func(t *testing.T) {
		row := models.Row{
			"client name":     "Evolent",
			"employee name":   "Pam Henard",
			"status":          "Enterprise",
			"gross profit":    117.84,
			"hours":           40.0,
			"invoice date":    "2023-08-03",
			"commission rate": nil,
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, "9.75%", record.CommissionRate)
		assert.Equal(t, 11.49, record.CommissionAmount)
		assert.Equal(t, "August", record.Month)
		assert.Equal(t, 3, record.Day)
		assert.Equal(t, 2023, record.Year)
	})

	t.Run("explicit rate beats status", func(t *testing.T) {
		row := models.Row{
			"client":   "Evolent",
			"employee": "Pam Henard",
			"gp":       100.0,
			"status":   "Enterprise",
			"rate":     "12%",
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, "12.00%", record.CommissionRate)
		assert.Equal(t, 12.00, record.CommissionAmount)
	})

	t.Run("hours fallback when zero", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       400.0,
			"hours":    0.0,
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, 10.0, record.HourlyGrossProfit)
	})

	t.Run("hours fallback when sentinel", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       400.0,
			"hours":    "N/A",
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, 10.0, record.HourlyGrossProfit)
	})

	t.Run("currency formatted gross profit", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       "$1,250.50",
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, 1250.50, record.GrossProfit)
	})

	t.Run("status defaults to New", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       100.0,
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, "New", record.Status)
	})

	t.Run("negative gross profit propagates sign", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       -200.0,
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, -200.0, record.GrossProfit)
		assert.Equal(t, -20.0, record.CommissionAmount)
	})

	t.Run("skips when required fields missing", func(t *testing.T) {
		rows := []models.Row{
			{},
			{"client": "Acme", "gp": 100.0},
			{"employee": "Jim", "gp": 100.0},
			{"client": "Acme", "employee": "Jim"},
			{"client": "Acme", "employee": "Jim", "gp": "not a number"},
			{"client": "N/A", "employee": "Jim", "gp": 100.0},
		}

		for _, row := range rows {
			_, ok := n.Normalize(row)
			assert.False(t, ok, "expected skip for row %v", row)
		}
	})

	t.Run("excel serial date column", func(t *testing.T) {
		row := models.Row{
			"client":   "Acme",
			"employee": "Jim Halpert",
			"gp":       100.0,
			"date":     44000.0,
		}

		record, ok := n.Normalize(row)

		require.True(t, ok)
		assert.Equal(t, "June", record.Month)
		assert.Equal(t, 2020, record.Year)
	})
}
