// Package series merges and normalizes daily close histories.
package series

import (
	"math"
	"sort"

	"StockDash/internal/model"
)

// Merge combines a persisted series with a freshly fetched one. Dates are
// deduplicated with the incoming close winning, points with an empty date or
// a non-finite close are dropped, and the result is ascending by date.
func Merge(existing, incoming model.PriceSeries) model.PriceSeries {
	closes := make(map[string]float64, len(existing)+len(incoming))
	for _, p := range existing {
		if valid(p) {
			closes[p.Date] = p.Close
		}
	}
	for _, p := range incoming {
		if valid(p) {
			closes[p.Date] = p.Close
		}
	}

	out := make(model.PriceSeries, 0, len(closes))
	for d, c := range closes {
		out = append(out, model.PricePoint{Date: d, Close: c})
	}
	// ISO dates sort lexicographically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Normalize filters and sorts a single series.
func Normalize(s model.PriceSeries) model.PriceSeries {
	return Merge(nil, s)
}

// Reverse returns the series in the opposite order. Upstream history arrives newest first.
func Reverse(s model.PriceSeries) model.PriceSeries {
	out := make(model.PriceSeries, len(s))
	for i, p := range s {
		out[len(s)-1-i] = p
	}
	return out
}

func valid(p model.PricePoint) bool {
	return p.Date != "" && !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0)
}
