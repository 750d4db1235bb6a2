package collector

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"StockDash/internal/model"
)

// Endpoints builds Financial Modeling Prep URLs for every category.
type Endpoints struct {
	BaseURL        string
	ImageBaseURL   string
	APIKey         string
	Timeseries     int // trading days requested for chart series
	StatementLimit int // quarterly statements, enterprise values, ratios
	AnnualLimit    int
	EarningsLimit  int
}

type endpoint struct {
	path  string // "%s" is replaced by the escaped ticker
	query url.Values
}

func (e Endpoints) endpointFor(c model.Category) (endpoint, bool) {
	limit := func(n int) string { return strconv.Itoa(n) }
	switch c {
	case model.CategoryProfile:
		return endpoint{path: "/profile/%s"}, true
	case model.CategoryHistorical:
		return endpoint{path: "/historical-price-full/%s", query: url.Values{"serietype": {"line"}}}, true
	case model.CategoryChart:
		return endpoint{path: "/historical-price-full/%s", query: url.Values{"timeseries": {limit(e.Timeseries)}}}, true
	case model.CategoryFundamentalsQuarterly:
		return endpoint{path: "/income-statement/%s", query: url.Values{"period": {"quarter"}, "limit": {limit(e.StatementLimit)}}}, true
	case model.CategoryFundamentalsAnnual:
		return endpoint{path: "/income-statement/%s", query: url.Values{"period": {"annual"}, "limit": {limit(e.AnnualLimit)}}}, true
	case model.CategoryBalanceSheet:
		return endpoint{path: "/balance-sheet-statement/%s", query: url.Values{"period": {"quarter"}, "limit": {limit(e.StatementLimit)}}}, true
	case model.CategoryEnterpriseValue:
		return endpoint{path: "/enterprise-values/%s", query: url.Values{"period": {"quarter"}, "limit": {limit(e.StatementLimit)}}}, true
	case model.CategoryRatios:
		return endpoint{path: "/ratios/%s", query: url.Values{"period": {"quarter"}, "limit": {limit(e.StatementLimit)}}}, true
	case model.CategoryEarningsCalendar:
		return endpoint{path: "/historical/earning_calendar/%s", query: url.Values{"limit": {limit(e.EarningsLimit)}}}, true
	case model.CategoryDividendsHistoric:
		return endpoint{path: "/historical-price-full/stock_dividend/%s"}, true
	case model.CategoryDividendsUpcoming:
		return endpoint{path: "/stock_dividend_calendar"}, true
	}
	return endpoint{}, false
}

// URL returns the request URL of category c for ticker, API key included.
func (e Endpoints) URL(c model.Category, ticker string) (string, error) {
	if c == model.CategoryLogo {
		return fmt.Sprintf("%s/%s.png", strings.TrimRight(e.ImageBaseURL, "/"), url.PathEscape(ticker)), nil
	}
	ep, ok := e.endpointFor(c)
	if !ok {
		return "", fmt.Errorf("no endpoint for category %q", c)
	}
	path := ep.path
	if strings.Contains(path, "%s") {
		path = fmt.Sprintf(path, url.PathEscape(ticker))
	}
	return e.build(path, ep.query), nil
}

// ConstituentsURL returns the S&P 500 constituent list URL.
func (e Endpoints) ConstituentsURL() string {
	return e.build("/sp500_constituent", nil)
}

func (e Endpoints) build(path string, q url.Values) string {
	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("apikey", e.APIKey)
	return strings.TrimRight(e.BaseURL, "/") + path + "?" + params.Encode()
}
