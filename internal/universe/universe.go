package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"StockDash/internal/collector"
	"StockDash/internal/model"
	"StockDash/internal/store"
)

// entry accepts both the constituent object form and a bare symbol string.
type entry struct {
	Ticker string `json:"ticker"`
	Symbol string `json:"symbol"`
}

func (e *entry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Ticker = s
		return nil
	}
	type plain entry
	return json.Unmarshal(b, (*plain)(e))
}

// Load reads the ticker universe from the constituent file at path.
// Entries without a ticker or symbol are dropped.
func Load(path string) (model.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse universe %s: %w", path, err)
	}
	raw := make([]string, 0, len(entries))
	for _, e := range entries {
		t := e.Ticker
		if t == "" {
			t = e.Symbol
		}
		raw = append(raw, t)
	}
	u := model.NewUniverse(raw)
	if len(u) == 0 {
		return nil, fmt.Errorf("universe %s is empty", path)
	}
	if dropped := len(entries) - len(u); dropped > 0 {
		log.Printf("[WARN] universe: dropped %d empty or duplicate entries", dropped)
	}
	return u, nil
}

// Refresh downloads the constituent list, replaces each constituent with its
// company profile and rewrites the file at path. Symbols whose profile cannot
// be fetched are left out. Request pacing is up to src.
func Refresh(ctx context.Context, src collector.Source, ep collector.Endpoints, path string) ([]map[string]any, error) {
	list, err := collector.FetchConstituents(ctx, src, ep)
	if err != nil {
		return nil, err
	}
	profiles, err := collector.NewFetcher(model.CategoryProfile, src, ep)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(list))
	for i, c := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := profiles.Fetch(ctx, c.Ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[WARN] universe: skipping %s: %v", c.Ticker, err)
			continue
		}
		rec, ok := a.Payload.(map[string]any)
		if !ok {
			log.Printf("[WARN] universe: skipping %s: profile is %T", c.Ticker, a.Payload)
			continue
		}
		out = append(out, enrich(c, rec))
		if (i+1)%50 == 0 {
			log.Printf("[INFO] universe: %d/%d profiles fetched", i+1, len(list))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("universe: no profile fetched for %d constituents", len(list))
	}

	if err := store.WriteJSON(path, out); err != nil {
		return nil, fmt.Errorf("write universe: %w", err)
	}
	log.Printf("[INFO] universe: saved %d of %d constituents to %s", len(out), len(list), path)
	return out, nil
}

// enrich stamps the profile with the local ticker and logo path and fills
// the constituent fields the profile lacks.
func enrich(c collector.Constituent, profile map[string]any) map[string]any {
	rec := make(map[string]any, len(profile)+3)
	for k, v := range profile {
		rec[k] = v
	}
	rec["ticker"] = c.Ticker
	rec["logo_url"] = c.LogoURL
	fill := map[string]string{"symbol": c.Symbol, "name": c.Name, "sector": c.Sector, "subSector": c.SubSector}
	for k, v := range fill {
		if _, ok := rec[k]; !ok && v != "" {
			rec[k] = v
		}
	}
	return rec
}
