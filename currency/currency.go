// Package currency prices observed purchase-amount totals in US dollars.
// Rates come from a public exchange-rate feed quoted against the Canadian
// dollar; the table is re-based to USD and extended with aliases for the
// currency symbols the amount parser may have extracted instead of ISO codes.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/absolute-link/yt-chat-viewer/telemetry"
)

// Table maps a currency label (ISO code or symbol alias) to its USD rate:
// multiply an amount in that currency by the rate to get US dollars.
type Table map[string]float64

// SymbolMap maps the currency symbols the purchase-amount parser can produce
// to ISO codes.
var SymbolMap = map[string]string{
	"$":   "USD",
	"CA$": "CAD",
	"A$":  "AUD",
	"HK$": "HKD",
	"R$":  "BRL",
	"NT$": "TWD",
	"MX$": "MXN",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"₱":   "PHP",
	"₩":   "KRW",
}

var isoCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CodeFromLabel resolves a parser-produced currency label to an ISO code,
// or "???" when the label is neither a known symbol nor a three-letter code.
func CodeFromLabel(label string) string {
	if code, ok := SymbolMap[label]; ok {
		return code
	}
	if isoCodePattern.MatchString(label) {
		return label
	}
	return "???"
}

// exchangeData is the rate feed document shape.
type exchangeData struct {
	ForeignExchangeRates []exchangeRate `json:"ForeignExchangeRates"`
}

type exchangeRate struct {
	Rate         string `json:"Rate"`
	FromCurrency struct {
		Value string `json:"Value"`
	} `json:"FromCurrency"`
	ToCurrency struct {
		Value string `json:"Value"`
	} `json:"ToCurrency"`
}

// Client fetches and derives the USD rate table.
type Client struct {
	url     string
	httpc   *http.Client
	timeout time.Duration
}

// NewClient creates a client for the given rate feed URL. The timeout bounds
// each LoadUSDRates call.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, httpc: http.DefaultClient, timeout: timeout}
}

// LoadUSDRates performs one fetch and returns a complete USD table, or an
// error with no partial result. The feed must include a USD→CAD rate or the
// whole operation fails.
func (c *Client) LoadUSDRates(ctx context.Context) (Table, error) {
	table, err := c.loadUSDRates(ctx)
	telemetry.CountCurrencyLookup(err == nil)
	if err != nil {
		return nil, fmt.Errorf("load currency conversions: %w", err)
	}
	return table, nil
}

func (c *Client) loadUSDRates(ctx context.Context) (Table, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("rate feed status %d: %s", resp.StatusCode, string(b))
	}

	var data exchangeData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	toCAD := make(map[string]float64)
	for _, rate := range data.ForeignExchangeRates {
		if rate.ToCurrency.Value != "CAD" {
			continue
		}
		v, err := strconv.ParseFloat(rate.Rate, 64)
		if err != nil {
			continue
		}
		toCAD[rate.FromCurrency.Value] = v
	}

	usdRate, ok := toCAD["USD"]
	if !ok || usdRate == 0 {
		return nil, fmt.Errorf("USD to CAD rate not found")
	}

	toUSD := make(Table, len(toCAD)+len(SymbolMap))
	for code, rate := range toCAD {
		toUSD[code] = rate / usdRate
	}
	// Alias symbols whose underlying code is present, so totals keyed by a
	// raw symbol price the same as their ISO code.
	for symbol, code := range SymbolMap {
		if rate, ok := toUSD[code]; ok {
			toUSD[symbol] = rate
		}
	}
	return toUSD, nil
}

// ConvertTotals prices per-label currency totals in USD. Labels with no rate
// are returned separately; the grand total covers only priced labels.
func (t Table) ConvertTotals(totals map[string]float64) (priced map[string]float64, totalUSD float64, unpriced []string) {
	priced = make(map[string]float64, len(totals))
	for label, amount := range totals {
		rate, ok := t[label]
		if !ok {
			unpriced = append(unpriced, label)
			continue
		}
		usd := amount * rate
		priced[label] = usd
		totalUSD += usd
	}
	return priced, totalUSD, unpriced
}
