package render

import (
	"fmt"
	"slices"

	"fxconverter/internal/converter"
)

type View struct {
	Amount     string
	From       string
	To         string
	Options    []string
	Result     string
	ResultLine string
	Error      string
	Loading    bool
}

// NewView projects a converter snapshot into what the form shows.
func NewView(s converter.State) View {
	amount := s.AmountText
	if amount == "" {
		amount = s.Amount.String()
	}
	result := s.Result.String()
	return View{
		Amount:     amount,
		From:       s.From,
		To:         s.To,
		Options:    slices.Clone(s.Catalog),
		Result:     result,
		ResultLine: fmt.Sprintf("%s %s = %s %s", amount, s.From, result, s.To),
		Error:      s.Error,
		Loading:    s.Pending > 0,
	}
}
