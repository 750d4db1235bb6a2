package collector

import (
	"context"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"StockDash/internal/model"
)

// Constituent is one member of the index constituent list.
type Constituent struct {
	Ticker    string `json:"ticker"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name,omitempty"`
	Sector    string `json:"sector,omitempty"`
	SubSector string `json:"subSector,omitempty"`
	LogoURL   string `json:"logo_url"`
}

// FetchConstituents downloads the S&P 500 constituent list.
func FetchConstituents(ctx context.Context, src Source, ep Endpoints) ([]Constituent, error) {
	v, err := src.FetchJSON(ctx, ep.ConstituentsURL())
	if err != nil {
		return nil, err
	}
	if err := checkPayload(v); err != nil {
		return nil, fmt.Errorf("constituents: %w", err)
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("constituents: %w: want array, got %T", ErrUnexpectedShape, v)
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]Constituent, 0, len(rows))
	for i := range rows {
		sym, err := jsonpath.Get(fmt.Sprintf("$[%d].symbol", i), v)
		if err != nil {
			continue
		}
		s, _ := sym.(string)
		t := model.NormalizeTicker(s)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		m, _ := rows[i].(map[string]any)
		out = append(out, Constituent{
			Ticker:    t,
			Symbol:    t,
			Name:      str(m, "name"),
			Sector:    str(m, "sector"),
			SubSector: str(m, "subSector"),
			LogoURL:   "/logos/" + t + ".png",
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("constituents: %w", ErrEmptyPayload)
	}
	return out, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
