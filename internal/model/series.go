package model

// PricePoint is a single daily close.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// PriceSeries is a per-ticker close history, ascending by date once merged.
type PriceSeries []PricePoint

