// Package placements formats permanent ATS placements into commission
// records. Permanent placements bill a flat fee at a fixed 10% rate; the
// enterprise discount never applies on this path.
package placements

import (
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/dates"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizer"
	"github.com/Ramsey-B/clover/pkg/rates"
)

const (
	// StatusPermanent is the fixed status for placement-sourced records
	StatusPermanent = "Permanent"
	// UnknownMonth marks placements with no usable begin date
	UnknownMonth = "Unknown"

	internalMarker = "internal"
)

// Formatter converts ATS placements into commission records
type Formatter struct {
	now func() time.Time
}

// New creates a Formatter
func New() *Formatter {
	return &Formatter{now: time.Now}
}

// NewWithClock creates a Formatter with a fixed clock for tests
func NewWithClock(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Format converts one placement. The second return is false when the
// placement should be skipped: internal placements and placements with no
// attributable employee produce no record.
func (f *Formatter) Format(placement models.Placement) (models.CommissionRecord, bool) {
	if strings.EqualFold(strings.TrimSpace(placement.InternalMarker), internalMarker) {
		return models.CommissionRecord{}, false
	}

	// Sales owner outranks recruiter for attribution
	employee := strings.TrimSpace(placement.SalesOwner)
	if employee == "" {
		employee = strings.TrimSpace(placement.Recruiter)
	}
	if employee == "" {
		return models.CommissionRecord{}, false
	}

	client := ""
	if placement.Client != nil {
		client = strings.TrimSpace(placement.Client.Name)
	}

	placementID := strconv.Itoa(placement.ID)
	record := models.CommissionRecord{
		Source:            models.SourcePlacement,
		EmployeeName:      employee,
		Client:            client,
		Status:            StatusPermanent,
		GrossProfit:       placement.FlatFee,
		HourlyGrossProfit: 0,
		CommissionRate:    rates.Format(rates.DefaultRate),
		CommissionRateVal: rates.DefaultRate,
		CommissionAmount:  normalizer.Round2(placement.FlatFee * rates.DefaultRate),
		PlacementID:       &placementID,
	}

	record.Month, record.Day, record.Year = f.beginDate(placement)

	if placement.InvoiceDate != nil {
		invoiced := dates.FromUnixMillis(*placement.InvoiceDate).Format("2006-01-02")
		record.InvoiceDate = &invoiced
	}

	return record, true
}

func (f *Formatter) beginDate(placement models.Placement) (string, int, int) {
	if placement.DateBegin == nil {
		return UnknownMonth, 1, f.now().Year()
	}
	begun := dates.FromUnixMillis(*placement.DateBegin)
	return begun.Month().String(), begun.Day(), begun.Year()
}
