package timesheets

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func entry(employee, client, date string, hours, bill, pay float64) models.TimeEntry {
	return models.TimeEntry{
		"dateWorked": date,
		"hours":      hours,
		"billAmount": bill,
		"payAmount":  pay,
		"placement": map[string]any{
			"correlatedCustomText38": employee,
			"employmentType":         "Contract",
			"clientCorporation":      map[string]any{"name": client},
		},
	}
}

func TestAggregate(t *testing.T) {
	a := New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	t.Run("sums one group", func(t *testing.T) {
		entries := []models.TimeEntry{
			entry("Pam Henard", "Ajax", "2023-07-03", 24, 300, 210),
			entry("Pam Henard", "Ajax", "2023-07-10", 16, 200, 140),
		}

		records, skipped := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Zero(t, skipped)

		record := records[0]
		assert.Equal(t, "Pam Henard", record.EmployeeName)
		assert.Equal(t, "Ajax", record.Client)
		assert.Equal(t, "Contract (Contract)", record.Status)
		assert.Equal(t, 150.0, record.GrossProfit)
		assert.Equal(t, 3.75, record.HourlyGrossProfit)
		assert.Equal(t, "10.00%", record.CommissionRate)
		assert.Equal(t, 15.0, record.CommissionAmount)
		assert.Equal(t, "July", record.Month)
		assert.Equal(t, 1, record.Day)
		assert.Equal(t, 2023, record.Year)
		assert.Equal(t, models.SourceTimesheet, record.Source)
	})

	t.Run("separate months separate groups", func(t *testing.T) {
		entries := []models.TimeEntry{
			entry("Pam Henard", "Ajax", "2023-07-03", 8, 100, 70),
			entry("Pam Henard", "Ajax", "2023-08-01", 8, 100, 70),
		}

		records, _ := a.Aggregate(entries)

		require.Len(t, records, 2)
		assert.Equal(t, "July", records[0].Month)
		assert.Equal(t, "August", records[1].Month)
	})

	t.Run("alternate field names", func(t *testing.T) {
		entries := []models.TimeEntry{
			{
				"workDate": "2023-07-03",
				"quantity": 10.0,
				"bill":     250.0,
				"pay":      175.0,
				"placement": map[string]any{
					"correlatedCustomText34": "Recruiter Person",
					"employmentType":         "Temporary",
				},
				"clientName": "Globex",
			},
		}

		records, skipped := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Zero(t, skipped)
		assert.Equal(t, "Recruiter Person", records[0].EmployeeName)
		assert.Equal(t, "Globex", records[0].Client)
		assert.Equal(t, "Contract (Temporary)", records[0].Status)
		assert.Equal(t, 75.0, records[0].GrossProfit)
	})

	t.Run("sales outranks recruiter and owner", func(t *testing.T) {
		entries := []models.TimeEntry{
			{
				"dateWorked": "2023-07-03",
				"hours":      8.0,
				"ownerName":  "Owner Person",
				"placement": map[string]any{
					"correlatedCustomText38": "Sales Person",
					"correlatedCustomText34": "Recruiter Person",
				},
			},
		}

		records, _ := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Equal(t, "Sales Person", records[0].EmployeeName)
	})

	t.Run("employment type defaults to Contract", func(t *testing.T) {
		entries := []models.TimeEntry{
			{
				"dateWorked": "2023-07-03",
				"ownerName":  "Owner Person",
			},
		}

		records, _ := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Equal(t, "Contract (Contract)", records[0].Status)
	})

	t.Run("skips entries with no date or employee", func(t *testing.T) {
		entries := []models.TimeEntry{
			{"hours": 8.0, "ownerName": "Owner Person"},
			{"dateWorked": "not a date", "ownerName": "Owner Person"},
			{"dateWorked": "2023-07-03", "hours": 8.0},
			entry("Pam Henard", "Ajax", "2023-07-03", 8, 100, 70),
		}

		records, skipped := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Equal(t, 3, skipped)
	})

	t.Run("zero hours means zero hourly gp", func(t *testing.T) {
		entries := []models.TimeEntry{
			entry("Pam Henard", "Ajax", "2023-07-03", 0, 100, 70),
		}

		records, _ := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Equal(t, 30.0, records[0].GrossProfit)
		assert.Equal(t, 0.0, records[0].HourlyGrossProfit)
	})

	t.Run("negative gross profit is not clamped", func(t *testing.T) {
		entries := []models.TimeEntry{
			entry("Pam Henard", "Ajax", "2023-07-03", 8, 100, 150),
		}

		records, _ := a.Aggregate(entries)

		require.Len(t, records, 1)
		assert.Equal(t, -50.0, records[0].GrossProfit)
		assert.Equal(t, -5.0, records[0].CommissionAmount)
	})
}
