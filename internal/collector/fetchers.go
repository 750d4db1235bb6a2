package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/PaesslerAG/jsonpath"

	"StockDash/internal/model"
	"StockDash/internal/series"
)

// NewFetcher returns the fetcher of category c.
func NewFetcher(c model.Category, src Source, ep Endpoints) (Fetcher, error) {
	switch c {
	case model.CategoryProfile:
		return &ProfileFetcher{src: src, ep: ep}, nil
	case model.CategoryChart:
		return &ChartFetcher{src: src, ep: ep}, nil
	case model.CategoryLogo:
		return &LogoFetcher{src: src, ep: ep}, nil
	}
	if _, ok := ep.endpointFor(c); !ok {
		return nil, fmt.Errorf("no fetcher for category %q", c)
	}
	return &RawFetcher{category: c, src: src, ep: ep}, nil
}

// NewFetchers returns one fetcher per category, in order.
func NewFetchers(src Source, ep Endpoints, cats ...model.Category) ([]Fetcher, error) {
	out := make([]Fetcher, 0, len(cats))
	for _, c := range cats {
		f, err := NewFetcher(c, src, ep)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// RawFetcher persists the upstream payload unchanged.
type RawFetcher struct {
	category model.Category
	src      Source
	ep       Endpoints
}

func (f *RawFetcher) Category() model.Category { return f.category }

func (f *RawFetcher) Fetch(ctx context.Context, ticker string) (*model.Artifact, error) {
	v, err := f.get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &model.Artifact{Category: f.category, Ticker: ticker, Payload: v}, nil
}

func (f *RawFetcher) get(ctx context.Context, ticker string) (any, error) {
	u, err := f.ep.URL(f.category, ticker)
	if err != nil {
		return nil, err
	}
	v, err := f.src.FetchJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := checkPayload(v); err != nil {
		return nil, fmt.Errorf("%s %s: %w", f.category, ticker, err)
	}
	if err := shapeOf(f.category).check(v); err != nil {
		return nil, fmt.Errorf("%s %s: %w", f.category, ticker, err)
	}
	return v, nil
}

// shape is the top-level structure a category's payload must have.
type shape int

const (
	shapeAny shape = iota
	shapeArray
	shapeHistorical // object with a non-empty "historical" array
)

func shapeOf(c model.Category) shape {
	switch c {
	case model.CategoryHistorical, model.CategoryChart, model.CategoryDividendsHistoric:
		return shapeHistorical
	case model.CategoryProfile, model.CategoryFundamentalsQuarterly, model.CategoryFundamentalsAnnual,
		model.CategoryBalanceSheet, model.CategoryEnterpriseValue, model.CategoryRatios,
		model.CategoryEarningsCalendar, model.CategoryDividendsUpcoming:
		return shapeArray
	}
	return shapeAny
}

func (s shape) check(v any) error {
	switch s {
	case shapeArray:
		if _, ok := v.([]any); !ok {
			return fmt.Errorf("%w: want array, got %T", ErrUnexpectedShape, v)
		}
	case shapeHistorical:
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: want object, got %T", ErrUnexpectedShape, v)
		}
		hv, ok := m["historical"]
		if !ok || hv == nil {
			return fmt.Errorf("%w: no historical data", ErrEmptyPayload)
		}
		rows, ok := hv.([]any)
		if !ok {
			return fmt.Errorf("%w: historical is %T", ErrUnexpectedShape, hv)
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: no historical data", ErrEmptyPayload)
		}
	}
	return nil
}

// ProfileFetcher keeps the single record of the array-wrapped profile response.
type ProfileFetcher struct {
	src Source
	ep  Endpoints
}

func (f *ProfileFetcher) Category() model.Category { return model.CategoryProfile }

func (f *ProfileFetcher) Fetch(ctx context.Context, ticker string) (*model.Artifact, error) {
	raw := RawFetcher{category: model.CategoryProfile, src: f.src, ep: f.ep}
	v, err := raw.get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	rec, err := jsonpath.Get("$[0]", v)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", ticker, err)
	}
	if _, ok := rec.(map[string]any); !ok {
		return nil, fmt.Errorf("profile %s: %w: record is %T", ticker, ErrUnexpectedShape, rec)
	}
	return &model.Artifact{Category: model.CategoryProfile, Ticker: ticker, Payload: rec}, nil
}

// ChartFetcher extracts a compact ascending close series from the
// historical price payload. Merging with stored history happens downstream.
type ChartFetcher struct {
	src Source
	ep  Endpoints
}

func (f *ChartFetcher) Category() model.Category { return model.CategoryChart }

func (f *ChartFetcher) Fetch(ctx context.Context, ticker string) (*model.Artifact, error) {
	raw := RawFetcher{category: model.CategoryChart, src: f.src, ep: f.ep}
	v, err := raw.get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	s, err := ParseHistorical(v)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}
	return &model.Artifact{Category: model.CategoryChart, Ticker: ticker, Payload: s}, nil
}

// ParseHistorical turns a historical-price-full document into an ascending series.
// Upstream lists the newest day first.
func ParseHistorical(doc any) (model.PriceSeries, error) {
	hv, err := jsonpath.Get("$.historical", doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	rows, ok := hv.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: historical is %T", ErrUnexpectedShape, hv)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no historical data", ErrEmptyPayload)
	}

	s := make(model.PriceSeries, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		date, _ := m["date"].(string)
		c, ok := toFloat(m["close"])
		if date == "" || !ok {
			continue
		}
		s = append(s, model.PricePoint{Date: date, Close: c})
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: no usable historical rows", ErrEmptyPayload)
	}
	return series.Reverse(s), nil
}

// LogoFetcher downloads the ticker logo image.
type LogoFetcher struct {
	src Source
	ep  Endpoints
}

func (f *LogoFetcher) Category() model.Category { return model.CategoryLogo }

func (f *LogoFetcher) Fetch(ctx context.Context, ticker string) (*model.Artifact, error) {
	u, err := f.ep.URL(model.CategoryLogo, ticker)
	if err != nil {
		return nil, err
	}
	b, err := f.src.FetchBinary(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("logo %s: %w", ticker, ErrEmptyPayload)
	}
	return &model.Artifact{Category: model.CategoryLogo, Ticker: ticker, Binary: b}, nil
}

// checkPayload rejects null and empty documents and the upstream's in-band error objects.
func checkPayload(v any) error {
	switch t := v.(type) {
	case nil:
		return ErrEmptyPayload
	case []any:
		if len(t) == 0 {
			return ErrEmptyPayload
		}
	case map[string]any:
		if msg, ok := t["Error Message"]; ok {
			return fmt.Errorf("upstream error: %v", msg)
		}
		if len(t) == 0 {
			return ErrEmptyPayload
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = n
	case string:
		x, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
