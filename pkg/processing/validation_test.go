package processing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validFields() *ExtractedFields {
	return &ExtractedFields{
		MerchantName:    "Coffee Corner",
		Total:           12.50,
		CurrencyCode:    "USD",
		TxDate:          "2025-06-01",
		ConfidenceScore: 0.9,
	}
}

func TestValidateFields_ValidReceipt(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	warnings := ValidateFields(validFields(), now)

	assert.Empty(t, warnings)
}

func TestValidateFields_NegativeAmount(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.Total = -5

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "amount must be positive")
}

func TestValidateFields_UnusuallyHighAmount(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.Total = 2_500_000

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unusually high")
}

func TestValidateFields_UnknownCurrency(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.CurrencyCode = "XYZ"

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not in the allowed list")
}

func TestValidateFields_FutureDate(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.TxDate = "2099-01-01"

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "date cannot be in the future")
}

func TestValidateFields_DateTooOld(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.TxDate = "2010-01-01"

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "years in the past")
}

func TestValidateFields_UnparseableDate(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.TxDate = "01/06/2025"

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not a valid YYYY-MM-DD date")
}

func TestValidateFields_MissingDateIsAllowed(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := validFields()
	fields.TxDate = ""

	warnings := ValidateFields(fields, now)

	assert.Empty(t, warnings)
}

func TestValidateFields_RulesAccumulate(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := &ExtractedFields{
		Total:        -1,
		CurrencyCode: "ZZZ",
		TxDate:       "2099-01-01",
	}

	warnings := ValidateFields(fields, now)

	assert.Len(t, warnings, 3)
}
