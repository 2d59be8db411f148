// Package importer runs the reconciliation pipelines: spreadsheet upload,
// ATS placement sync, and back-office timesheet sync. Each call normalizes
// its input into commission records, keys them, and applies them to the
// ledger in one atomic batch.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/internal/repositories/commissionrecord"
	"github.com/Ramsey-B/clover/pkg/backoffice"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizer"
	"github.com/Ramsey-B/clover/pkg/placements"
	"github.com/Ramsey-B/clover/pkg/timesheets"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Ledger is the persistence surface the importer writes to
type Ledger interface {
	UpsertBatch(ctx context.Context, tenantID string, records []models.CommissionRecord) ([]commissionrecord.UpsertResult, error)
}

// Roster resolves employee names to roster entries
type Roster interface {
	FindByName(ctx context.Context, tenantID, name string) (*models.Employee, error)
}

// PlacementSource fetches permanent placements from the ATS
type PlacementSource interface {
	PermanentPlacements(ctx context.Context, since time.Time) ([]models.Placement, error)
}

// TimesheetSource fetches raw time entries from the back office
type TimesheetSource interface {
	TimeEntries(ctx context.Context, start, end time.Time) ([]models.TimeEntry, error)
}

// Importer orchestrates the three producer pipelines
type Importer struct {
	ledger     Ledger
	roster     Roster
	ats        PlacementSource
	backOffice TimesheetSource
	normalizer *normalizer.Normalizer
	formatter  *placements.Formatter
	aggregator *timesheets.Aggregator
	emitter    *events.Emitter
	logger     ectologger.Logger
}

// New creates an Importer
func New(
	ledger Ledger,
	roster Roster,
	ats PlacementSource,
	backOffice TimesheetSource,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Importer {
	return &Importer{
		ledger:     ledger,
		roster:     roster,
		ats:        ats,
		backOffice: backOffice,
		normalizer: normalizer.New(),
		formatter:  placements.New(),
		aggregator: timesheets.New(logger),
		emitter:    emitter,
		logger:     logger,
	}
}

// ImportRows runs the spreadsheet pipeline. Unusable rows are skipped and
// tallied; the usable remainder commits atomically.
func (i *Importer) ImportRows(ctx context.Context, tenantID string, rows []models.Row) (*models.ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.ImportRows")
	defer span.End()

	result := &models.ImportResult{Total: len(rows)}

	var records []models.CommissionRecord
	for _, row := range rows {
		record, ok := i.normalizer.Normalize(row)
		if !ok {
			result.Skipped++
			continue
		}
		records = append(records, record)
	}

	if err := i.commit(ctx, tenantID, records, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SyncPlacements runs the ATS pipeline for placements beginning on or after
// since. Authentication failures propagate; skipped placements (internal,
// unattributable) are tallied.
func (i *Importer) SyncPlacements(ctx context.Context, tenantID string, since time.Time) (*models.ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.SyncPlacements")
	defer span.End()

	fetched, err := i.ats.PermanentPlacements(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Total: len(fetched)}

	var records []models.CommissionRecord
	for _, placement := range fetched {
		record, ok := i.formatter.Format(placement)
		if !ok {
			result.Skipped++
			continue
		}
		records = append(records, record)
	}

	if err := i.commit(ctx, tenantID, records, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SyncTimesheets runs the back-office pipeline over the window. A source
// that is down on every endpoint variant degrades to an empty result with a
// warning; authentication failures propagate.
func (i *Importer) SyncTimesheets(ctx context.Context, tenantID string, start, end time.Time) (*models.ImportResult, error) {
	result, _, err := i.syncTimesheets(ctx, tenantID, start, end)
	return result, err
}

// syncTimesheets reports degradation separately so SyncAll can tell an
// applied source apart from one that was skipped with a warning.
func (i *Importer) syncTimesheets(ctx context.Context, tenantID string, start, end time.Time) (*models.ImportResult, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.SyncTimesheets")
	defer span.End()

	entries, err := i.backOffice.TimeEntries(ctx, start, end)
	if err != nil {
		if httperror.IsHTTPError(err) {
			return nil, false, err
		}
		if errors.Is(err, backoffice.ErrUnavailable) {
			i.logger.WithContext(ctx).WithError(err).Warn("Back office unavailable, contract data skipped")
			return &models.ImportResult{
				Warnings: []string{"Back Office service temporarily unavailable, contract data skipped"},
			}, true, nil
		}
		return nil, false, err
	}

	result := &models.ImportResult{Total: len(entries)}

	records, skipped := i.aggregator.Aggregate(entries)
	result.Skipped = skipped

	if err := i.commit(ctx, tenantID, records, result); err != nil {
		return nil, false, err
	}
	return result, false, nil
}

// SyncAll runs both source pipelines. The call succeeds when at least one
// source applied; a failed source contributes a warning instead of failing
// the whole sync, except for authentication errors, which always propagate.
func (i *Importer) SyncAll(ctx context.Context, tenantID string, since time.Time, start, end time.Time) (*models.ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.SyncAll")
	defer span.End()

	combined := &models.ImportResult{}
	succeeded := 0

	placementResult, err := i.SyncPlacements(ctx, tenantID, since)
	switch {
	case err == nil:
		combined.Merge(*placementResult)
		succeeded++
	case httperror.IsHTTPError(err):
		return nil, err
	default:
		i.logger.WithContext(ctx).WithError(err).Warn("ATS sync failed, permanent placement data skipped")
		combined.Warnings = append(combined.Warnings, "ATS temporarily unavailable, permanent placement data skipped")
	}

	timesheetResult, degraded, err := i.syncTimesheets(ctx, tenantID, start, end)
	switch {
	case err == nil:
		combined.Merge(*timesheetResult)
		if !degraded {
			succeeded++
		}
	case httperror.IsHTTPError(err):
		return nil, err
	default:
		i.logger.WithContext(ctx).WithError(err).Warn("Back office sync failed, contract data skipped")
		combined.Warnings = append(combined.Warnings, "Back Office service temporarily unavailable, contract data skipped")
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("all commission sources failed")
	}
	return combined, nil
}

// commit links records to the roster, keys them, and applies the batch
// atomically. Committed changes are emitted as events after the transaction
// closes.
func (i *Importer) commit(ctx context.Context, tenantID string, records []models.CommissionRecord, result *models.ImportResult) error {
	if len(records) == 0 {
		return nil
	}

	for idx := range records {
		i.link(ctx, tenantID, &records[idx])
		records[idx].DedupKey = identity.KeyFor(identity.Fact{
			PlacementID:  records[idx].PlacementID,
			Status:       records[idx].Status,
			Year:         records[idx].Year,
			Month:        records[idx].Month,
			Day:          records[idx].Day,
			EmployeeName: records[idx].EmployeeName,
			Client:       records[idx].Client,
			GrossProfit:  records[idx].GrossProfit,
		})
	}

	outcomes, err := i.ledger.UpsertBatch(ctx, tenantID, records)
	if err != nil {
		return err
	}

	changes := make([]events.Change, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.IsNew {
			result.Processed++
		} else {
			result.Updated++
		}
		changes = append(changes, events.Change{Record: outcome.Record, IsNew: outcome.IsNew})
	}

	if i.emitter != nil {
		i.emitter.EmitChanges(ctx, tenantID, changes)
	}
	return nil
}

// link attaches a roster id when the employee name matches. A lookup
// failure or miss leaves the weak reference nil and never blocks the record.
func (i *Importer) link(ctx context.Context, tenantID string, record *models.CommissionRecord) {
	if i.roster == nil || record.EmployeeName == "" {
		return
	}

	found, err := i.roster.FindByName(ctx, tenantID, record.EmployeeName)
	if err != nil {
		i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"employee_name": record.EmployeeName,
		}).Warn("Roster lookup failed, leaving record unlinked")
		return
	}
	if found != nil {
		record.EmployeeID = &found.ID
	}
}
