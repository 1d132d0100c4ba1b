package processing

import (
	"fmt"
	"time"
)

// AllowedCurrencies is the set of currency codes extraction results are
// checked against. Unknown codes are flagged, never rejected.
var AllowedCurrencies = []string{"USD", "EUR", "GBP", "CHF", "CAD", "AUD", "JPY", "CNY"}

const (
	maxPlausibleAmount = 1_000_000
	maxDocumentAgeYears = 10
)

// ValidateFields runs every plausibility rule against the extracted fields
// and returns the accumulated warnings. Rules never short-circuit and the
// function has no side effects; warnings are advisory and never fail a
// receipt.
func ValidateFields(fields *ExtractedFields, now time.Time) []string {
	var warnings []string

	if fields.Total <= 0 {
		warnings = append(warnings, fmt.Sprintf("amount must be positive, got %.2f", fields.Total))
	}
	if fields.Total > maxPlausibleAmount {
		warnings = append(warnings, fmt.Sprintf("amount %.2f is unusually high", fields.Total))
	}

	if fields.CurrencyCode != "" && !isAllowedCurrency(fields.CurrencyCode) {
		warnings = append(warnings, fmt.Sprintf("currency %q is not in the allowed list", fields.CurrencyCode))
	}

	if fields.TxDate != "" {
		txDate, err := time.Parse("2006-01-02", fields.TxDate)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("date %q is not a valid YYYY-MM-DD date", fields.TxDate))
		} else {
			if txDate.After(now) {
				warnings = append(warnings, "date cannot be in the future")
			}
			if txDate.Before(now.AddDate(-maxDocumentAgeYears, 0, 0)) {
				warnings = append(warnings, fmt.Sprintf("date is more than %d years in the past", maxDocumentAgeYears))
			}
		}
	}

	return warnings
}

func isAllowedCurrency(code string) bool {
	for _, c := range AllowedCurrencies {
		if code == c {
			return true
		}
	}
	return false
}
