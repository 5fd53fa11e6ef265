// Package format renders dates, amounts and byte sizes the way the
// German-facing export and UI surfaces expect them.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	isoDatePattern    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	germanDatePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})$`)
)

var germanPrinter = message.NewPrinter(language.German)

// Date renders an ISO date string as DD.MM.YYYY. Anything that does
// not start with a 4-digit-year ISO date renders as "N/A".
func Date(iso string) string {
	m := isoDatePattern.FindStringSubmatch(iso)
	if m == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s.%s.%s", m[3], m[2], m[1])
}

// ParseGermanDate parses D.M.YY or DD.MM.YYYY into an ISO date
// string. Two-digit years are expanded into the 2000s. The result is
// re-validated against the calendar, so 31.02.2024 does not parse.
func ParseGermanDate(s string) (string, bool) {
	m := germanDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	yearStr := m[3]
	if len(yearStr) == 2 {
		yearStr = "20" + yearStr
	}
	year, _ := strconv.Atoi(yearStr)

	// time.Date normalizes out-of-range components (Feb 31 becomes
	// Mar 2), so the round-trip check below catches invalid dates.
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// Currency renders a decimal amount string as a German-locale EUR
// value. A comma decimal separator is accepted. Unparseable input
// renders as "N/A".
func Currency(value string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return "N/A"
	}
	return germanPrinter.Sprintf("%.2f €", f)
}

// FileSize renders a byte count as a human-readable size. Units step
// through B, KB, MB, GB, TB dividing by 1024. Values of ten or more
// (and plain bytes) render without decimals, smaller values with one.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}

	decimals := 1
	if unit == 0 || value >= 10 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f %s", decimals, value, units[unit])
}
