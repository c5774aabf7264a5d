package localstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// QueueStore implementa repository.QueueRepository con un archivo por ítem.
// Las escrituras toman el mutex del ítem; las lecturas no bloquean.
type QueueStore struct {
	fs    afero.Fs
	dir   string
	locks sync.Map // id → *sync.Mutex
}

// NewQueueStore crea el directorio de la cola si no existe.
func NewQueueStore(fs afero.Fs, dir string) (*QueueStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: crear directorio de cola: %w", err)
	}
	return &QueueStore{fs: fs, dir: dir}, nil
}

func (s *QueueStore) lock(id string) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *QueueStore) Create(ctx context.Context, item *entity.QueueItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(s.dir, item.ID)
	if err != nil {
		return err
	}
	defer s.lock(item.ID)()

	if ok, _ := afero.Exists(s.fs, path); ok {
		return fmt.Errorf("%w: ítem %s", domain.ErrDuplicate, item.ID)
	}
	return writeJSONAtomic(s.fs, path, item)
}

func (s *QueueStore) Get(ctx context.Context, id string) (*entity.QueueItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := recordPath(s.dir, id)
	if err != nil {
		return nil, err
	}
	var item entity.QueueItem
	ok, err := readJSON(s.fs, path, &item)
	if err != nil || !ok {
		return nil, err
	}
	return &item, nil
}

// List devuelve los ítems por fecha de creación. Un archivo borrado entre el listado y
// la lectura se omite.
func (s *QueueStore) List(ctx context.Context) ([]*entity.QueueItem, error) {
	ids, err := recordNames(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	items := make([]*entity.QueueItem, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var item entity.QueueItem
		ok, err := readJSON(s.fs, filepath.Join(s.dir, id+".json"), &item)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, &item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *QueueStore) Update(ctx context.Context, id string, fn func(item *entity.QueueItem) error) (*entity.QueueItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := recordPath(s.dir, id)
	if err != nil {
		return nil, err
	}
	defer s.lock(id)()

	var item entity.QueueItem
	ok, err := readJSON(s.fs, path, &item)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
	}
	if err := fn(&item); err != nil {
		return nil, err
	}
	if err := writeJSONAtomic(s.fs, path, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete es idempotente.
func (s *QueueStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(s.dir, id)
	if err != nil {
		return err
	}
	defer s.lock(id)()
	if ok, _ := afero.Exists(s.fs, path); !ok {
		return nil
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("localstore: borrar ítem %s: %w", id, err)
	}
	return nil
}
