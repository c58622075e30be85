package source

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source provides the current price for a symbol. Implementations may be
// slow and may fail transiently; fetches are idempotent and safe to retry.
type Source interface {
	Fetch(ctx context.Context, symbol string) (decimal.Decimal, error)
}
