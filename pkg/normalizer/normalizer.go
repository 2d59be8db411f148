// Package normalizer turns one raw spreadsheet row into a canonical
// commission record. Rows that cannot yield a record (blank lines, header
// echoes, total rows) are skipped rather than failed.
package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/dates"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rates"
	"github.com/Ramsey-B/clover/pkg/rowfields"
)

const (
	// DefaultHours stands in when hours are absent or non-positive
	DefaultHours = 40.0
	// DefaultMonth marks records with no recoverable date
	DefaultMonth = "Current"
	// DefaultStatus applies when no status column resolves
	DefaultStatus = "New"
)

// Normalizer converts spreadsheet rows into commission records
type Normalizer struct {
	aliases rowfields.Aliases
	now     func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithAliases overrides the header alias table
func WithAliases(aliases rowfields.Aliases) Option {
	return func(n *Normalizer) { n.aliases = aliases }
}

// WithClock overrides the clock used for date defaults
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer with the default alias table
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		aliases: rowfields.DefaultAliases(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one row. The second return is false when the row should
// be skipped; a skipped row is never an error.
func (n *Normalizer) Normalize(row models.Row) (models.CommissionRecord, bool) {
	client, ok := n.stringField(row, rowfields.FieldClient)
	if !ok {
		return models.CommissionRecord{}, false
	}
	employee, ok := n.stringField(row, rowfields.FieldEmployee)
	if !ok {
		return models.CommissionRecord{}, false
	}
	grossProfit, ok := n.floatField(row, rowfields.FieldGrossProfit)
	if !ok {
		return models.CommissionRecord{}, false
	}

	status := DefaultStatus
	if s, found := n.stringField(row, rowfields.FieldStatus); found {
		status = s
	}

	hours := DefaultHours
	if h, found := n.floatField(row, rowfields.FieldHours); found && h > 0 {
		hours = h
	}

	providedRate, _ := n.aliases.FindField(row, rowfields.FieldRate)
	rateStr, rateVal := rates.Resolve(status, providedRate)

	record := models.CommissionRecord{
		Source:            models.SourceSpreadsheet,
		EmployeeName:      employee,
		Client:            client,
		Status:            status,
		GrossProfit:       grossProfit,
		HourlyGrossProfit: Round2(grossProfit / hours),
		CommissionRate:    rateStr,
		CommissionRateVal: rateVal,
		CommissionAmount:  Round2(grossProfit * rateVal),
	}

	record.Month, record.Day, record.Year = n.resolveDate(row)

	return record, true
}

// resolveDate reads the date column and falls back to the documented
// defaults; the fallback feeds the dedup key, so it must stay stable.
func (n *Normalizer) resolveDate(row models.Row) (string, int, int) {
	raw, found := n.aliases.FindField(row, rowfields.FieldDate)
	if found {
		if parsed, ok := dates.Parse(raw); ok {
			return parsed.Month().String(), parsed.Day(), parsed.Year()
		}
	}
	return DefaultMonth, 1, n.now().Year()
}

func (n *Normalizer) stringField(row models.Row, field rowfields.Field) (string, bool) {
	value, found := n.aliases.FindField(row, field)
	if !found {
		return "", false
	}
	str := strings.TrimSpace(toString(value))
	return str, str != ""
}

func (n *Normalizer) floatField(row models.Row, field rowfields.Field) (float64, bool) {
	value, found := n.aliases.FindField(row, field)
	if !found {
		return 0, false
	}
	return toFloat(value)
}

// Round2 rounds to two decimal places, away from zero on ties
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.TrimPrefix(cleaned, "$")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
