package pipeline

import (
	"fmt"
	"strings"

	"StockDash/internal/collector"
	"StockDash/internal/model"
)

// Pass is one sweep over the universe running a fixed set of fetchers per ticker.
type Pass struct {
	Name     string
	Fetchers []collector.Fetcher
	// Checkpointed passes save progress after every batch.
	Checkpointed bool
}

// Categories lists the categories fetched by the pass.
func (p Pass) Categories() []model.Category {
	out := make([]model.Category, len(p.Fetchers))
	for i, f := range p.Fetchers {
		out[i] = f.Category()
	}
	return out
}

var (
	CoreCategories = []model.Category{
		model.CategoryProfile,
		model.CategoryHistorical,
		model.CategoryChart,
		model.CategoryFundamentalsQuarterly,
		model.CategoryFundamentalsAnnual,
		model.CategoryBalanceSheet,
	}
	ExtraCategories = []model.Category{
		model.CategoryEnterpriseValue,
		model.CategoryRatios,
		model.CategoryEarningsCalendar,
		model.CategoryDividendsHistoric,
	}
	LogoCategories   = []model.Category{model.CategoryLogo}
	GlobalCategories = []model.Category{model.CategoryDividendsUpcoming}
)

// DefaultPasses builds the core, extra and logos passes plus the global fetchers.
func DefaultPasses(src collector.Source, ep collector.Endpoints) ([]Pass, []collector.Fetcher, error) {
	defs := []struct {
		name         string
		cats         []model.Category
		checkpointed bool
	}{
		{"core", CoreCategories, true},
		{"extra", ExtraCategories, true},
		{"logos", LogoCategories, false},
	}
	passes := make([]Pass, 0, len(defs))
	for _, d := range defs {
		fs, err := collector.NewFetchers(src, ep, d.cats...)
		if err != nil {
			return nil, nil, fmt.Errorf("pass %s: %w", d.name, err)
		}
		passes = append(passes, Pass{Name: d.name, Fetchers: fs, Checkpointed: d.checkpointed})
	}
	globals, err := collector.NewFetchers(src, ep, GlobalCategories...)
	if err != nil {
		return nil, nil, err
	}
	return passes, globals, nil
}

// Select keeps the named passes in their original order.
func Select(passes []Pass, names []string) ([]Pass, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			want[n] = true
		}
	}
	if len(want) == 0 {
		return passes, nil
	}
	var out []Pass
	for _, p := range passes {
		if want[p.Name] {
			out = append(out, p)
			delete(want, p.Name)
		}
	}
	if len(want) > 0 {
		var unknown []string
		for n := range want {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown pass(es): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
