package converter

import (
	"errors"
	"strings"

	"fxconverter/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountRequired      = errors.New("amount is required")
	ErrAmountInvalid       = errors.New("amount must be a number")
	ErrCurrencyInvalid     = errors.New("currency code must be three letters")
	ErrCurrencyUnsupported = errors.New("currency not supported")
	ErrBaseURLRequired     = errors.New("base url is required")
)

// ParseAmount accepts what a required numeric input field accepts.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, ErrAmountRequired
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}
	return amount, nil
}

// NormalizeCode upper-cases code and checks its shape.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrCurrencyInvalid
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrCurrencyInvalid
		}
	}
	return code, nil
}

// ValidateCode normalizes code and, once a catalog has loaded, requires it to
// be a member.
func ValidateCode(code string, catalog domain.Catalog) (string, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return "", err
	}
	if len(catalog) > 0 && !catalog.Contains(code) {
		return "", ErrCurrencyUnsupported
	}
	return code, nil
}
