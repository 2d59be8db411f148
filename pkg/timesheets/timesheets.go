// Package timesheets aggregates raw back-office time entries into monthly
// commission records. One record is emitted per (employee, client, month,
// year, employment type) group.
package timesheets

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/dates"
	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizer"
	"github.com/Ramsey-B/clover/pkg/rates"
)

// DefaultEmploymentType applies when the nested placement carries no type
const DefaultEmploymentType = "Contract"

// Aggregator folds time entries into per-month commission records
type Aggregator struct {
	extract *extractor.Extractor
	logger  ectologger.Logger
}

// New creates an Aggregator
func New(logger ectologger.Logger) *Aggregator {
	return &Aggregator{
		extract: extractor.New(),
		logger:  logger,
	}
}

// group accumulates sums for one aggregation key
type group struct {
	employee       string
	client         string
	employmentType string
	month          string
	year           int
	totalHours     float64
	billSum        float64
	paySum         float64
}

// Aggregate groups the entries and finalizes one record per group. The
// second return is the count of entries skipped for missing dates or
// attribution; a malformed entry never aborts the batch.
func (a *Aggregator) Aggregate(entries []models.TimeEntry) ([]models.CommissionRecord, int) {
	groups := make(map[string]*group)
	order := make([]string, 0)
	skipped := 0

	for _, entry := range entries {
		// Convert the defined map type so the extractor's type switch on
		// map[string]any matches.
		row := map[string]any(entry)

		worked, ok := a.workedDate(entry)
		if !ok {
			a.logger.Debug("skipping time entry with no resolvable date")
			skipped++
			continue
		}

		employee, ok := a.extract.FirstString(row,
			"placement.correlatedCustomText38", // sales owner
			"placement.correlatedCustomText34", // recruiter
			"ownerName",
		)
		if !ok {
			a.logger.Debug("skipping time entry with no attributable employee")
			skipped++
			continue
		}

		client, _ := a.extract.FirstString(row, "placement.clientCorporation.name", "clientName")
		employmentType, ok := a.extract.FirstString(row, "placement.employmentType")
		if !ok {
			employmentType = DefaultEmploymentType
		}

		hours, _ := a.extract.FirstFloat(row, "hours", "quantity")
		bill, _ := a.extract.FirstFloat(row, "billAmount", "bill")
		pay, _ := a.extract.FirstFloat(row, "payAmount", "pay")

		month := worked.Month().String()
		key := fmt.Sprintf("%s|%s|%s|%d|%s", employee, client, month, worked.Year(), employmentType)
		g, exists := groups[key]
		if !exists {
			g = &group{
				employee:       employee,
				client:         client,
				employmentType: employmentType,
				month:          month,
				year:           worked.Year(),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.totalHours += hours
		g.billSum += bill
		g.paySum += pay
	}

	// Map iteration order is random; finalize in first-seen order so output
	// is stable across runs.
	records := make([]models.CommissionRecord, 0, len(order))
	for _, key := range order {
		records = append(records, finalize(groups[key]))
	}

	return records, skipped
}

// finalize turns one accumulated group into a commission record. Gross
// profit is bill minus pay and may go negative; the sign propagates.
func finalize(g *group) models.CommissionRecord {
	grossProfit := g.billSum - g.paySum

	hourly := 0.0
	if g.totalHours > 0 {
		hourly = grossProfit / g.totalHours
	}

	return models.CommissionRecord{
		Source:            models.SourceTimesheet,
		EmployeeName:      g.employee,
		Client:            g.client,
		Status:            fmt.Sprintf("Contract (%s)", g.employmentType),
		GrossProfit:       normalizer.Round2(grossProfit),
		HourlyGrossProfit: normalizer.Round2(hourly),
		CommissionRate:    rates.Format(rates.DefaultRate),
		CommissionRateVal: rates.DefaultRate,
		CommissionAmount:  normalizer.Round2(grossProfit * rates.DefaultRate),
		Month:             g.month,
		Day:               1,
		Year:              g.year,
	}
}

func (a *Aggregator) workedDate(entry models.TimeEntry) (time.Time, bool) {
	raw, found := a.extract.First(map[string]any(entry), "dateWorked", "workDate")
	if !found {
		return time.Time{}, false
	}
	return dates.Parse(raw)
}
