package localstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

const chainStateFile = "chain_state.json"

// ChainStateStore persiste contador y hash previo en un único documento.
type ChainStateStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewChainStateStore crea el directorio si no existe.
func NewChainStateStore(fs afero.Fs, dir string) (*ChainStateStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: crear directorio de estado: %w", err)
	}
	return &ChainStateStore{fs: fs, path: filepath.Join(dir, chainStateFile)}, nil
}

func (s *ChainStateStore) Load(ctx context.Context) (*entity.ChainState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var st entity.ChainState
	ok, err := readJSON(s.fs, s.path, &st)
	if err != nil || !ok {
		return nil, err
	}
	return &st, nil
}

func (s *ChainStateStore) Save(ctx context.Context, state entity.ChainState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(s.fs, s.path, state)
}
