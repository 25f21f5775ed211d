package conversation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minYear = 2020
	maxYear = 2050
)

var (
	maxDays = decimal.NewFromInt(31)

	// plainNumber rejects exponents and other forms decimal would accept.
	plainNumber = regexp.MustCompile(`^-?\d+([.,]\d+)?$`)
)

// Months lists the accepted month names in calendar order.
var Months = []string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// NormalizeMonth maps any casing of a month name to its canonical form.
func NormalizeMonth(s string) (string, bool) {
	candidate := cases.Title(language.Italian).String(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Months, candidate) {
		return "", false
	}

	return candidate, true
}

// parseMonthYear reads "<Month>-<Year>". On failure the returned string is
// the corrective reply for the user.
func parseMonthYear(text string) (month, year, problem string) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return "", "", msgBadFormat
	}

	month, ok := NormalizeMonth(parts[0])
	if !ok {
		return "", "", msgBadMonth
	}

	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", msgBadYear
	}

	if y < minYear || y > maxYear {
		return "", "", msgYearOutOfRange
	}

	return month, strconv.Itoa(y), ""
}

// parseDays accepts either ',' or '.' as decimal separator and 0 ≤ d ≤ 31.
func parseDays(text string) (decimal.Decimal, string) {
	trimmed := strings.TrimSpace(text)
	if !plainNumber.MatchString(trimmed) {
		return decimal.Zero, msgBadDays
	}

	normalized := strings.ReplaceAll(trimmed, ",", ".")

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, msgBadDays
	}

	if d.IsNegative() || d.GreaterThan(maxDays) {
		return decimal.Zero, msgDaysOutOfRange
	}

	return d, ""
}

func isRestart(text string) bool {
	switch strings.ToLower(text) {
	case "start", "restart", "inizia":
		return true
	}

	return false
}
