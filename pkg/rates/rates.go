// Package rates resolves the commission rate for a record. Precedence is an
// explicit rate on the row, then the enterprise status override, then the
// house default.
package rates

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultRate applies when nothing more specific is known
	DefaultRate = 0.10
	// EnterpriseRate applies to statuses containing "enterprise"
	EnterpriseRate = 0.0975
)

// Resolve returns the display string and fractional value of the commission
// rate. provided is the raw cell value, which may be absent (nil), a percent
// string, or a bare number.
func Resolve(status string, provided any) (string, float64) {
	if rate, ok := parseProvided(provided); ok {
		return Format(rate), rate
	}
	if strings.Contains(strings.ToLower(status), "enterprise") {
		return Format(EnterpriseRate), EnterpriseRate
	}
	return Format(DefaultRate), DefaultRate
}

// Format renders a fractional rate as a percent string with two decimals
func Format(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// parseProvided interprets an explicit rate value. Numbers greater than one
// are percentage points; numbers at or below one are already fractional.
// Strings go through the same rule after stripping a trailing percent sign,
// except that a percent sign always means percentage points.
func parseProvided(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return normalize(v), v > 0
	case float32:
		return normalize(float64(v)), v > 0
	case int:
		return normalize(float64(v)), v > 0
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		hadPercent := strings.HasSuffix(trimmed, "%")
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || parsed <= 0 {
			return 0, false
		}
		if hadPercent {
			return parsed / 100, true
		}
		return normalize(parsed), true
	default:
		return 0, false
	}
}

// normalize maps a bare number onto a fraction. 9.75 means 9.75%, while
// 0.0975 is already the fraction. The ambiguous 1.0 reads as 1%.
func normalize(value float64) float64 {
	if value > 1 {
		return value / 100
	}
	if value == 1 {
		return 0.01
	}
	return value
}
