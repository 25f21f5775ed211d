package csvimport

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseRate accepts both European ("1.234,56") and plain ("1234.56") notation.
// A comma anywhere marks the European form, in which dots are thousand separators.
func parseRate(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "€")
	clean = strings.TrimSuffix(clean, "€")
	clean = strings.TrimSpace(clean)

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	return decimal.NewFromString(clean)
}

// parseActive reads the optional active column. Empty means active.
func parseActive(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "true", "yes", "y", "si", "sì", "s", "attivo", "attiva":
		return true, true
	case "0", "false", "no", "n", "inattivo", "inattiva":
		return false, true
	}

	return false, false
}
