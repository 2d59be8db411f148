package placements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func millis(t time.Time) *int64 {
	m := t.UnixMilli()
	return &m
}

func TestFormat(t *testing.T) {
	f := NewWithClock(func() time.Time {
		return time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)
	})

	t.Run("permanent placement", func(t *testing.T) {
		placement := models.Placement{
			ID:         9001,
			DateBegin:  millis(time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC)),
			FlatFee:    15000,
			Client:     &models.ClientReference{ID: 7, Name: "Ajax Building Company"},
			SalesOwner: "Pam Henard",
			Recruiter:  "Jim Halpert",
		}

		record, ok := f.Format(placement)

		require.True(t, ok)
		assert.Equal(t, "Pam Henard", record.EmployeeName)
		assert.Equal(t, "Ajax Building Company", record.Client)
		assert.Equal(t, "Permanent", record.Status)
		assert.Equal(t, 15000.0, record.GrossProfit)
		assert.Equal(t, 0.0, record.HourlyGrossProfit)
		assert.Equal(t, "10.00%", record.CommissionRate)
		assert.Equal(t, 1500.0, record.CommissionAmount)
		assert.Equal(t, "March", record.Month)
		assert.Equal(t, 6, record.Day)
		assert.Equal(t, 2023, record.Year)
		require.NotNil(t, record.PlacementID)
		assert.Equal(t, "9001", *record.PlacementID)
	})

	t.Run("sales owner outranks recruiter", func(t *testing.T) {
		placement := models.Placement{
			ID:         1,
			SalesOwner: "Sales Person",
			Recruiter:  "Recruiter Person",
		}

		record, ok := f.Format(placement)

		require.True(t, ok)
		assert.Equal(t, "Sales Person", record.EmployeeName)
	})

	t.Run("falls back to recruiter", func(t *testing.T) {
		placement := models.Placement{
			ID:        2,
			Recruiter: "Recruiter Person",
		}

		record, ok := f.Format(placement)

		require.True(t, ok)
		assert.Equal(t, "Recruiter Person", record.EmployeeName)
	})

	t.Run("skips internal placements", func(t *testing.T) {
		placement := models.Placement{
			ID:             3,
			SalesOwner:     "Pam Henard",
			InternalMarker: "Internal",
		}

		_, ok := f.Format(placement)

		assert.False(t, ok)
	})

	t.Run("skips unattributable placements", func(t *testing.T) {
		placement := models.Placement{ID: 4, FlatFee: 5000}

		_, ok := f.Format(placement)

		assert.False(t, ok)
	})

	t.Run("missing begin date defaults", func(t *testing.T) {
		placement := models.Placement{ID: 5, SalesOwner: "Pam Henard"}

		record, ok := f.Format(placement)

		require.True(t, ok)
		assert.Equal(t, "Unknown", record.Month)
		assert.Equal(t, 1, record.Day)
		assert.Equal(t, 2023, record.Year)
	})

	t.Run("invoice date carries through", func(t *testing.T) {
		placement := models.Placement{
			ID:          6,
			SalesOwner:  "Pam Henard",
			InvoiceDate: millis(time.Date(2023, time.April, 30, 0, 0, 0, 0, time.UTC)),
		}

		record, ok := f.Format(placement)

		require.True(t, ok)
		require.NotNil(t, record.InvoiceDate)
		assert.Equal(t, "2023-04-30", *record.InvoiceDate)
	})
}
