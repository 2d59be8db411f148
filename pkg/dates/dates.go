// Package dates parses the date shapes that show up in commission data:
// native cell dates, Excel serial numbers, unix millisecond epochs from the
// ATS, and a handful of textual layouts.
package dates

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Serial numbers between these bounds are treated as Excel dates. The window
// covers roughly 1954 through 2064; plain quantities like hours or ids fall
// outside it.
const (
	serialMin = 20000
	serialMax = 60000
)

// layouts tried in order for textual dates
var layouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse attempts to interpret a cell value as a date. It returns false for
// nil, blank strings, numbers outside the serial window, and strings that
// match no known layout.
func Parse(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return parseString(v)
	default:
		return time.Time{}, false
	}
}

func parseString(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return fromSerial(serial)
	}

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// fromSerial converts an Excel serial date. Values outside the serial window
// are not dates.
func fromSerial(serial float64) (time.Time, bool) {
	if serial <= serialMin || serial >= serialMax {
		return time.Time{}, false
	}
	converted, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return converted, true
}

// FromUnixMillis converts an ATS millisecond epoch into a time
func FromUnixMillis(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}
