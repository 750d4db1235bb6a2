package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"StockDash/internal/model"
	"StockDash/internal/series"
)

// Store persists artifacts under a deterministic directory layout.
type Store struct {
	DataDir string
	LogoDir string
}

// New creates a Store rooted at dataDir, with logos under logoDir.
func New(dataDir, logoDir string) *Store {
	return &Store{DataDir: dataDir, LogoDir: logoDir}
}

// Path returns the destination file of category c for ticker, or "" for an
// unknown category or a ticker that is unsafe as a file name.
// Global categories ignore ticker.
func (s *Store) Path(c model.Category, ticker string) string {
	l, ok := c.Layout()
	if !ok {
		return ""
	}
	if l.Name == "" && !model.ValidTicker(ticker) {
		return ""
	}
	root := s.DataDir
	if c.Binary() {
		root = s.LogoDir
	}
	name := l.Name
	if name == "" {
		name = ticker
		if l.Variant != "" {
			name += "_" + l.Variant
		}
	}
	return filepath.Join(root, filepath.FromSlash(l.Dir), name+l.Ext)
}

// Exists reports whether the artifact file is already present.
func (s *Store) Exists(c model.Category, ticker string) bool {
	p := s.Path(c, ticker)
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// Save writes the artifact atomically.
func (s *Store) Save(ctx context.Context, a *model.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.Path(a.Category, a.Ticker)
	if p == "" {
		return fmt.Errorf("no destination for %s %q", a.Category, a.Ticker)
	}
	if a.Category.Binary() {
		if len(a.Binary) == 0 {
			return fmt.Errorf("%s %s: empty content", a.Category, a.Ticker)
		}
		return WriteFile(p, a.Binary)
	}
	return WriteJSON(p, a.Payload)
}

// LoadSeries reads the stored chart series of ticker.
// A missing file yields an empty series and no error.
func (s *Store) LoadSeries(ticker string) (model.PriceSeries, error) {
	data, err := os.ReadFile(s.Path(model.CategoryChart, ticker))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ps model.PriceSeries
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("parse series %s: %w", ticker, err)
	}
	return series.Normalize(ps), nil
}

// WriteJSON encodes v indented by two spaces and writes it atomically to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteFile(path, append(data, '\n'))
}

// WriteFile writes data to a temp file beside path, syncs it, and renames it
// into place. Readers see either the old or the new content.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		return err
	}
	return os.Rename(name, path)
}
