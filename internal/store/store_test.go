package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"StockDash/internal/model"
)

func TestPath(t *testing.T) {
	s := New("/data", "/logos")
	tests := []struct {
		cat  model.Category
		want string
	}{
		{model.CategoryProfile, "/data/profiles/AAPL.json"},
		{model.CategoryChart, "/data/charts/AAPL.json"},
		{model.CategoryFundamentalsQuarterly, "/data/fundamentals/AAPL.json"},
		{model.CategoryFundamentalsAnnual, "/data/fundamentals/AAPL_annual.json"},
		{model.CategoryEarningsCalendar, "/data/events/earnings/AAPL.json"},
		{model.CategoryDividendsHistoric, "/data/events/dividendsHistoric/AAPL.json"},
		{model.CategoryDividendsUpcoming, "/data/events/upcomingDividends.json"},
		{model.CategoryLogo, "/logos/AAPL.png"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		got := s.Path(tt.cat, "AAPL")
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("Path(%s) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestPath_RejectsUnsafeTickers(t *testing.T) {
	s := New("/data", "/logos")
	for _, tk := range []string{"", "../AAPL", "A/B", `A\B`, "..", ".", "A B"} {
		if got := s.Path(model.CategoryProfile, tk); got != "" {
			t.Errorf("Path(profile, %q) = %q, want empty", tk, got)
		}
		if got := s.Path(model.CategoryLogo, tk); got != "" {
			t.Errorf("Path(logo, %q) = %q, want empty", tk, got)
		}
	}
	if got := s.Path(model.CategoryProfile, "BRK.B"); got != filepath.FromSlash("/data/profiles/BRK.B.json") {
		t.Errorf("Path(profile, BRK.B) = %q", got)
	}
	if got := s.Path(model.CategoryDividendsUpcoming, ""); got == "" {
		t.Error("global category must not need a ticker")
	}

	st := New(t.TempDir(), t.TempDir())
	err := st.Save(context.Background(), &model.Artifact{Category: model.CategoryProfile, Ticker: "../../etc", Payload: map[string]any{}})
	if err == nil {
		t.Fatal("expected error saving an unsafe ticker")
	}
}

func TestSaveJSONAndExists(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	ctx := context.Background()

	if s.Exists(model.CategoryRatios, "MSFT") {
		t.Fatal("artifact should not exist yet")
	}
	payload := []any{map[string]any{"date": "2024-03-30", "currentRatio": json.Number("1.27")}}
	if err := s.Save(ctx, &model.Artifact{Category: model.CategoryRatios, Ticker: "MSFT", Payload: payload}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists(model.CategoryRatios, "MSFT") {
		t.Fatal("artifact should exist after save")
	}

	data, err := os.ReadFile(s.Path(model.CategoryRatios, "MSFT"))
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n  {\n    \"currentRatio\": 1.27,\n    \"date\": \"2024-03-30\"\n  }\n]\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(s.Path(model.CategoryRatios, "MSFT")))
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in dir, got %d entries", len(entries))
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	ctx := context.Background()
	for _, v := range []string{"first", "second"} {
		if err := s.Save(ctx, &model.Artifact{Category: model.CategoryProfile, Ticker: "X", Payload: map[string]string{"v": v}}); err != nil {
			t.Fatal(err)
		}
	}
	data, _ := os.ReadFile(s.Path(model.CategoryProfile, "X"))
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["v"] != "second" {
		t.Errorf("v = %q, want second", got["v"])
	}
}

func TestSaveBinary(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	ctx := context.Background()
	img := []byte{0x89, 'P', 'N', 'G', 0, 1}

	if err := s.Save(ctx, &model.Artifact{Category: model.CategoryLogo, Ticker: "AAPL", Binary: img}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.LogoDir, "AAPL.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(img) {
		t.Errorf("logo bytes changed")
	}

	if err := s.Save(ctx, &model.Artifact{Category: model.CategoryLogo, Ticker: "EMPTY"}); err == nil {
		t.Error("expected error for empty logo")
	}
}

func TestSaveCancelled(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, &model.Artifact{Category: model.CategoryProfile, Ticker: "X", Payload: 1}); err == nil {
		t.Fatal("expected context error")
	}
	if s.Exists(model.CategoryProfile, "X") {
		t.Error("nothing should be written after cancellation")
	}
}

func TestLoadSeries(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	ctx := context.Background()

	got, err := s.LoadSeries("NONE")
	if err != nil || len(got) != 0 {
		t.Fatalf("missing series: got %v, %v", got, err)
	}

	ps := model.PriceSeries{{Date: "2024-01-03", Close: 2}, {Date: "2024-01-02", Close: 1}}
	if err := s.Save(ctx, &model.Artifact{Category: model.CategoryChart, Ticker: "AAA", Payload: ps}); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadSeries("AAA")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date != "2024-01-02" || got[1].Close != 2 {
		t.Errorf("LoadSeries = %v", got)
	}

	if err := os.WriteFile(s.Path(model.CategoryChart, "BAD"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSeries("BAD"); err == nil {
		t.Error("expected parse error for corrupt series")
	}
}
