package importer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/commissionrecord"
	"github.com/Ramsey-B/clover/pkg/backoffice"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeLedger applies upserts to an in-memory map keyed by dedup key
type fakeLedger struct {
	rows    map[string]models.CommissionRecord
	fail    error
	batches int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]models.CommissionRecord)}
}

func (f *fakeLedger) UpsertBatch(_ context.Context, _ string, records []models.CommissionRecord) ([]commissionrecord.UpsertResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.batches++

	results := make([]commissionrecord.UpsertResult, 0, len(records))
	for _, record := range records {
		_, exists := f.rows[record.DedupKey]
		f.rows[record.DedupKey] = record
		stored := f.rows[record.DedupKey]
		results = append(results, commissionrecord.UpsertResult{Record: &stored, IsNew: !exists})
	}
	return results, nil
}

type fakeRoster struct {
	byName map[string]models.Employee
}

func (f *fakeRoster) FindByName(_ context.Context, _ string, name string) (*models.Employee, error) {
	if found, ok := f.byName[name]; ok {
		return &found, nil
	}
	return nil, nil
}

type fakeATS struct {
	placements []models.Placement
	err        error
}

func (f *fakeATS) PermanentPlacements(context.Context, time.Time) ([]models.Placement, error) {
	return f.placements, f.err
}

type fakeBackOffice struct {
	entries []models.TimeEntry
	err     error
}

func (f *fakeBackOffice) TimeEntries(context.Context, time.Time, time.Time) ([]models.TimeEntry, error) {
	return f.entries, f.err
}

func sampleRows() []models.Row {
	return []models.Row{
		{"client": "Ajax", "gp": "336.96", "employee": "Pam Henard", "status": "New"},
		{"client": "Globex", "gp": 500.0, "employee": "Jim Halpert"},
		{"client": "Totals", "gp": "N/A"},
	}
}

func TestImportRows(t *testing.T) {
	t.Run("normalizes keys and commits", func(t *testing.T) {
		ledger := newFakeLedger()
		imp := New(ledger, nil, nil, nil, nil, testLogger())

		result, err := imp.ImportRows(context.Background(), "tenant-1", sampleRows())

		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, 0, result.Updated)
		assert.Equal(t, 1, result.Skipped)
		assert.Len(t, ledger.rows, 2)

		for key := range ledger.rows {
			assert.NotEmpty(t, key)
		}
	})

	t.Run("re-import is idempotent", func(t *testing.T) {
		ledger := newFakeLedger()
		imp := New(ledger, nil, nil, nil, nil, testLogger())

		first, err := imp.ImportRows(context.Background(), "tenant-1", sampleRows())
		require.NoError(t, err)
		require.Equal(t, 2, first.Processed)

		second, err := imp.ImportRows(context.Background(), "tenant-1", sampleRows())
		require.NoError(t, err)

		assert.Equal(t, 0, second.Processed)
		assert.Equal(t, 2, second.Updated)
		assert.Len(t, ledger.rows, 2)
	})

	t.Run("links roster entries by name", func(t *testing.T) {
		ledger := newFakeLedger()
		roster := &fakeRoster{byName: map[string]models.Employee{
			"Pam Henard": {ID: "emp-1", Name: "pam henard"},
		}}
		imp := New(ledger, roster, nil, nil, nil, testLogger())

		_, err := imp.ImportRows(context.Background(), "tenant-1", sampleRows())

		require.NoError(t, err)
		var linked, unlinked int
		for _, row := range ledger.rows {
			if row.EmployeeID != nil {
				linked++
				assert.Equal(t, "emp-1", *row.EmployeeID)
			} else {
				unlinked++
			}
		}
		assert.Equal(t, 1, linked)
		assert.Equal(t, 1, unlinked)
	})

	t.Run("ledger failure propagates with no progress", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fail = errors.New("commit failed")
		imp := New(ledger, nil, nil, nil, nil, testLogger())

		_, err := imp.ImportRows(context.Background(), "tenant-1", sampleRows())

		require.Error(t, err)
		assert.Empty(t, ledger.rows)
	})
}

func TestSyncPlacements(t *testing.T) {
	placementID := 9001
	sales := "Pam Henard"

	t.Run("formats and commits", func(t *testing.T) {
		ledger := newFakeLedger()
		ats := &fakeATS{placements: []models.Placement{
			{ID: placementID, FlatFee: 15000, SalesOwner: sales},
			{ID: 9002, FlatFee: 5000, SalesOwner: sales, InternalMarker: "internal"},
		}}
		imp := New(ledger, nil, ats, nil, nil, testLogger())

		result, err := imp.SyncPlacements(context.Background(), "tenant-1", time.Now())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Skipped)

		stored, ok := ledger.rows["perm:9001"]
		require.True(t, ok)
		assert.Equal(t, 15000.0, stored.GrossProfit)
	})

	t.Run("auth errors propagate", func(t *testing.T) {
		ats := &fakeATS{err: httperror.NewHTTPError(http.StatusUnauthorized, "verify credentials")}
		imp := New(newFakeLedger(), nil, ats, nil, nil, testLogger())

		_, err := imp.SyncPlacements(context.Background(), "tenant-1", time.Now())

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
	})
}

func TestSyncTimesheets(t *testing.T) {
	start := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("aggregates and commits", func(t *testing.T) {
		ledger := newFakeLedger()
		bbo := &fakeBackOffice{entries: []models.TimeEntry{
			{
				"dateWorked": "2023-07-03",
				"hours":      40.0,
				"billAmount": 500.0,
				"payAmount":  350.0,
				"ownerName":  "Pam Henard",
				"clientName": "Ajax",
			},
		}}
		imp := New(ledger, nil, nil, bbo, nil, testLogger())

		result, err := imp.SyncTimesheets(context.Background(), "tenant-1", start, end)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)

		var stored models.CommissionRecord
		for _, row := range ledger.rows {
			stored = row
		}
		assert.Equal(t, "Contract (Contract)", stored.Status)
		assert.Equal(t, 150.0, stored.GrossProfit)
	})

	t.Run("unavailable source degrades to warning", func(t *testing.T) {
		bbo := &fakeBackOffice{err: errors.Wrap(backoffice.ErrUnavailable, "all endpoint variants failed")}
		imp := New(newFakeLedger(), nil, nil, bbo, nil, testLogger())

		result, err := imp.SyncTimesheets(context.Background(), "tenant-1", start, end)

		require.NoError(t, err)
		assert.Zero(t, result.Processed)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "temporarily unavailable")
	})

	t.Run("auth errors propagate", func(t *testing.T) {
		bbo := &fakeBackOffice{err: httperror.NewHTTPError(http.StatusUnauthorized, "verify credentials")}
		imp := New(newFakeLedger(), nil, nil, bbo, nil, testLogger())

		_, err := imp.SyncTimesheets(context.Background(), "tenant-1", start, end)

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
	})
}

func TestSyncAll(t *testing.T) {
	start := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("one source down still succeeds", func(t *testing.T) {
		ledger := newFakeLedger()
		ats := &fakeATS{err: errors.New("connection refused")}
		bbo := &fakeBackOffice{entries: []models.TimeEntry{
			{
				"dateWorked": "2023-07-03",
				"hours":      8.0,
				"billAmount": 200.0,
				"payAmount":  140.0,
				"ownerName":  "Pam Henard",
			},
		}}
		imp := New(ledger, nil, ats, bbo, nil, testLogger())

		result, err := imp.SyncAll(context.Background(), "tenant-1", start, start, end)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "ATS")
	})

	t.Run("all sources down fails", func(t *testing.T) {
		ats := &fakeATS{err: errors.New("connection refused")}
		bbo := &fakeBackOffice{err: errors.New("connection refused")}
		imp := New(newFakeLedger(), nil, ats, bbo, nil, testLogger())

		_, err := imp.SyncAll(context.Background(), "tenant-1", start, start, end)

		assert.Error(t, err)
	})

	t.Run("exhausted back office does not count as success", func(t *testing.T) {
		ats := &fakeATS{err: errors.New("connection refused")}
		bbo := &fakeBackOffice{err: errors.Wrap(backoffice.ErrUnavailable, "all endpoint variants failed")}
		imp := New(newFakeLedger(), nil, ats, bbo, nil, testLogger())

		_, err := imp.SyncAll(context.Background(), "tenant-1", start, start, end)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "all commission sources failed")
	})

	t.Run("auth error on either source propagates", func(t *testing.T) {
		ats := &fakeATS{err: httperror.NewHTTPError(http.StatusUnauthorized, "verify credentials")}
		bbo := &fakeBackOffice{}
		imp := New(newFakeLedger(), nil, ats, bbo, nil, testLogger())

		_, err := imp.SyncAll(context.Background(), "tenant-1", start, start, end)

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
	})
}
