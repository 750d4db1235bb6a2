package universe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/collector"
	"StockDash/internal/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sp500.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad(t *testing.T) {
	p := writeFile(t, `[
		{"ticker":"aapl","name":"Apple"},
		{"symbol":"MSFT"},
		{"ticker":null,"name":"unknown"},
		{"ticker":" AAPL "},
		{"ticker":"../etc"},
		"A/B",
		"brk.b"
	]`)
	u, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, model.Universe{"AAPL", "MSFT", "BRK.B"}, u)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, `{"ticker":"AAPL"}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, `[{"name":"no ticker"}]`))
	assert.ErrorContains(t, err, "empty")
}

func TestRefresh(t *testing.T) {
	bodies := map[string]string{
		"/sp500_constituent": `[{"symbol":"NVDA","name":"Nvidia","subSector":"Semiconductors"},{"symbol":"AMD"},{"symbol":"INTC"}]`,
		"/profile/NVDA":      `[{"symbol":"NVDA","companyName":"NVIDIA Corporation","price":120.5,"mktCap":2950000000000,"sector":"Technology","image":"https://img/NVDA.png"}]`,
		"/profile/INTC":      `[{"symbol":"INTC","companyName":"Intel Corporation","price":20.1}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "data", "sp500.json")
	src := collector.NewClient(0, "", collector.WithRetry(1, 0))
	list, err := Refresh(context.Background(), src, collector.Endpoints{BaseURL: srv.URL, APIKey: "k"}, p)
	require.NoError(t, err)
	require.Len(t, list, 2)

	u, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, model.Universe{"NVDA", "INTC"}, u)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal(data, &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "NVIDIA Corporation", recs[0]["companyName"])
	assert.Equal(t, 120.5, recs[0]["price"])
	assert.Equal(t, 2.95e12, recs[0]["mktCap"])
	assert.Equal(t, "Technology", recs[0]["sector"])
	assert.Equal(t, "Semiconductors", recs[0]["subSector"])
	assert.Equal(t, "/logos/NVDA.png", recs[0]["logo_url"])
	assert.Equal(t, "NVDA", recs[0]["ticker"])
	assert.Equal(t, "Intel Corporation", recs[1]["companyName"])
}

func TestRefresh_NoProfilesKeepsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sp500_constituent" {
			w.Write([]byte(`[{"symbol":"AMD"}]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := writeFile(t, `["AAPL"]`)
	src := collector.NewClient(0, "", collector.WithRetry(1, 0))
	_, err := Refresh(context.Background(), src, collector.Endpoints{BaseURL: srv.URL, APIKey: "k"}, p)
	require.Error(t, err)

	u, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, model.Universe{"AAPL"}, u)
}
