package adapters

import (
	"context"
	"fxconverter/internal/domain"
)

// CurrencyClient talks to the conversion backend rooted at baseURL.
type CurrencyClient interface {
	GetCurrencies(ctx context.Context, baseURL string) (domain.Catalog, error)
	GetLatest(ctx context.Context, baseURL string, req domain.ConversionRequest) (domain.Rates, error)
}
