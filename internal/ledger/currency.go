package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MaxAmount is the largest expense amount accepted.
var MaxAmount = decimal.NewFromInt(1_000_000_000)

var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
}

// Precision returns the number of minor-unit digits for a currency code.
func Precision(currency string) int32 {
	if zeroDecimalCurrencies[currency] {
		return 0
	}
	return 2
}

// Symbol returns the display symbol for a currency, or the code itself.
func Symbol(currency string) string {
	if s, ok := currencySymbols[currency]; ok {
		return s
	}
	return currency
}

// FormatAmount renders amount with exactly the currency's precision.
func FormatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(Precision(currency))
}

// NormalizeCurrency upper-cases code and checks it is three letters.
// An empty code means the default currency.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", validationf("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", validationf("currency must be a 3-letter code, got %q", code)
		}
	}
	return code, nil
}

// Rounding or comparing a decimal rescales it by 10^|exponent|, so amounts
// outside these bounds are rejected before any arithmetic touches them.
const (
	maxAmountExponent = 18
	maxAmountBits     = 128
)

// CheckAmountShape rejects amounts whose exponent or coefficient is too large
// to handle cheaply. It only inspects the representation.
func CheckAmountShape(amount decimal.Decimal) error {
	if exp := amount.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return validationf("amount is out of range")
	}
	if amount.Coefficient().BitLen() > maxAmountBits {
		return validationf("amount is out of range")
	}
	return nil
}

// validateAmount checks an expense total against the currency rules.
func validateAmount(amount decimal.Decimal, currency string) error {
	if err := CheckAmountShape(amount); err != nil {
		return err
	}
	switch {
	case !amount.IsPositive():
		return validationf("amount must be greater than zero")
	case amount.GreaterThan(MaxAmount):
		return validationf("amount must not exceed %s", MaxAmount)
	case !amount.Equal(amount.Round(Precision(currency))):
		return validationf("%s amounts allow at most %d decimal places", currency, Precision(currency))
	}
	return nil
}
