package binance

import (
	"context"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/belexwatch/price-watcher/internal/service/source"
	"github.com/shopspring/decimal"
)

// Service adapts the Binance list-prices endpoint to the Source contract.
// Useful for watching crypto tickers with the same alerting pipeline.
type Service struct {
	cli *binance.Client
}

func NewService(cli *binance.Client) source.Source {
	return &Service{cli: cli}
}

func (s *Service) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)
	prices, err := s.cli.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("binance fetch %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance fetch %s: no price returned", symbol)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("binance fetch %s: %w", symbol, err)
	}
	return price, nil
}
