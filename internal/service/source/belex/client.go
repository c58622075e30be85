package belex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/belexwatch/price-watcher/internal/service/source"
	"github.com/belexwatch/price-watcher/pkg/decimalx"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://www.belex.rs/trgovanje/hartija/dnevni"

var (
	tableRe = regexp.MustCompile(`(?is)<table[^>]*class="[^"]*tdata[^"]*"[^>]*>.*?</table>`)
	headRe  = regexp.MustCompile(`(?is)<th[^>]*>[^<]*dnevni`)
	rowRe   = regexp.MustCompile(`(?is)<td[^>]*>\s*Cena\s*</td>\s*<td[^>]*>\s*([^<]+?)\s*</td>`)
)

// Client fetches the current price from the exchange's daily detail page.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(c *Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func NewClient(timeout time.Duration, opts ...Option) source.Source {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, strings.ToUpper(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("fetch %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	priceText, err := extractPriceText(string(body))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", symbol, err)
	}
	price, err := decimalx.ParseLocalized(priceText)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return price, nil
}

// extractPriceText locates the daily-trade table ("Dnevni" header) and
// returns the value of its "Cena" row.
func extractPriceText(html string) (string, error) {
	for _, table := range tableRe.FindAllString(html, -1) {
		if !headRe.MatchString(table) {
			continue
		}
		m := rowRe.FindStringSubmatch(table)
		if m == nil {
			break
		}
		return strings.TrimSpace(m[1]), nil
	}
	return "", fmt.Errorf("price not found in daily table")
}
