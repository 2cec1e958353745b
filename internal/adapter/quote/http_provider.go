package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// Default JSONPath expressions for an IEX-style quote payload.
const (
	DefaultPricePath  = "$.latestPrice"
	DefaultNamePath   = "$.companyName"
	DefaultSymbolPath = "$.symbol"
)

// maxBodyBytes caps how much of a quote response is read.
const maxBodyBytes = 1 << 20

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	PricePath  string
	NamePath   string
	SymbolPath string
}

// HTTPProvider looks quotes up from a JSON HTTP API at
// {BaseURL}/stock/{symbol}/quote?token={APIKey}.
type HTTPProvider struct {
	httpClient *http.Client
	cfg        HTTPConfig
	now        func() time.Time
}

// NewHTTPProvider creates an HTTPProvider. Empty paths fall back to the
// IEX field names.
func NewHTTPProvider(httpClient *http.Client, cfg HTTPConfig) *HTTPProvider {
	if cfg.PricePath == "" {
		cfg.PricePath = DefaultPricePath
	}
	if cfg.NamePath == "" {
		cfg.NamePath = DefaultNamePath
	}
	if cfg.SymbolPath == "" {
		cfg.SymbolPath = DefaultSymbolPath
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPProvider{
		httpClient: httpClient,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Lookup fetches the current quote for symbol.
func (p *HTTPProvider) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	u := fmt.Sprintf("%s/stock/%s/quote?token=%s", p.cfg.BaseURL, url.PathEscape(symbol), url.QueryEscape(p.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, unavailable(symbol, fmt.Errorf("building quote request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(symbol, fmt.Errorf("quote http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	case resp.StatusCode != http.StatusOK:
		return nil, unavailable(symbol, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable(symbol, fmt.Errorf("reading quote response: %w", err))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, unavailable(symbol, fmt.Errorf("decoding quote response: %w", err))
	}

	return p.extract(symbol, payload)
}

func (p *HTTPProvider) extract(symbol string, payload any) (*domain.Quote, error) {
	rawPrice, err := lookupPath(p.cfg.PricePath, payload)
	if err != nil || rawPrice == nil {
		return nil, fmt.Errorf("%w: %s has no price", domain.ErrUnknownSymbol, symbol)
	}

	price, err := toDecimal(rawPrice)
	if err != nil {
		return nil, unavailable(symbol, fmt.Errorf("parsing price at %s: %w", p.cfg.PricePath, err))
	}

	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s has no positive price", domain.ErrUnknownSymbol, symbol)
	}

	q := &domain.Quote{
		Symbol:    symbol,
		Name:      symbol,
		Price:     price,
		FetchedAt: p.now().UTC(),
	}

	if name, err := lookupPath(p.cfg.NamePath, payload); err == nil {
		if s, ok := name.(string); ok && s != "" {
			q.Name = s
		}
	}

	if sym, err := lookupPath(p.cfg.SymbolPath, payload); err == nil {
		if s, ok := sym.(string); ok && s != "" {
			q.Symbol = domain.NormalizeSymbol(s)
		}
	}

	return q, nil
}

// lookupPath evaluates a JSONPath expression, unwrapping single-element
// results since jsonpath returns a list for filter and slice expressions.
func lookupPath(path string, payload any) (any, error) {
	val, err := jsonpath.Get(path, payload)
	if err != nil {
		return nil, err
	}

	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		val = list[0]
	}

	return val, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		return decimal.NewFromString(t)
	default:
		return decimal.Zero, errors.New("not a number")
	}
}

func unavailable(symbol string, err error) error {
	return &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: %w", domain.ErrQuoteUnavailable, err)}
}
