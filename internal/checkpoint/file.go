package checkpoint

import (
	"context"
	"errors"
	"log"
	"os"

	"StockDash/internal/model"
	"StockDash/internal/store"
)

// FileStore keeps the checkpoint in a JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(ctx context.Context) model.Checkpoint {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] read checkpoint %s: %v, starting over", f.Path, err)
		}
		return model.Checkpoint{}
	}
	cp, err := decode(data)
	if err != nil {
		log.Printf("[WARN] corrupt checkpoint %s: %v, starting over", f.Path, err)
		return model.Checkpoint{}
	}
	return cp
}

func (f *FileStore) Save(ctx context.Context, cp model.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.WriteJSON(f.Path, cp)
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
