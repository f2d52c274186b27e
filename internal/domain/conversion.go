package domain

import (
	"bytes"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"
)

// ResultPrecision is the number of fraction digits a converted amount is rounded to.
const ResultPrecision = 2

type ConversionRequest struct {
	Amount decimal.Decimal
	From   string
	To     string
}

// Query encodes the request as the latest endpoint expects it.
func (r ConversionRequest) Query() url.Values {
	return url.Values{
		"amount": {r.Amount.String()},
		"from":   {r.From},
		"to":     {r.To},
	}
}

// Rates is the rates map of a latest response keyed by currency code.
type Rates map[string]decimal.Decimal

var jsonNull = []byte("null")

// UnmarshalJSON keeps the entries holding a number. Null and non-numeric
// values are dropped, so Lookup reports them as absent and a bad entry for
// one currency does not spoil the others.
func (r *Rates) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rates := make(Rates, len(raw))
	for code, value := range raw {
		if bytes.Equal(bytes.TrimSpace(value), jsonNull) {
			continue
		}
		var rate decimal.Decimal
		if err := rate.UnmarshalJSON(value); err != nil {
			continue
		}
		rates[code] = rate
	}
	*r = rates
	return nil
}

// Lookup reports the rate for code and whether the key was present at all.
// A present zero rate is returned as such.
func (r Rates) Lookup(code string) (decimal.Decimal, bool) {
	v, ok := r[code]
	return v, ok
}

type ConversionResult struct {
	Amount  decimal.Decimal
	Present bool
}

func NewConversionResult(rate decimal.Decimal, present bool) ConversionResult {
	if !present {
		return ConversionResult{}
	}
	return ConversionResult{Amount: rate.Round(ResultPrecision), Present: true}
}

// String renders the result the way the converter displays it: two fraction
// digits for a received rate, a bare 0 when the backend had no rate.
func (r ConversionResult) String() string {
	if !r.Present {
		return "0"
	}
	return r.Amount.StringFixed(ResultPrecision)
}
