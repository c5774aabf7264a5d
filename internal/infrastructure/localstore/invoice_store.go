package localstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// InvoiceStore guarda las facturas firmadas, un archivo por ID.
type InvoiceStore struct {
	fs  afero.Fs
	dir string
}

func NewInvoiceStore(fs afero.Fs, dir string) (*InvoiceStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: crear directorio de facturas: %w", err)
	}
	return &InvoiceStore{fs: fs, dir: dir}, nil
}

func (s *InvoiceStore) Save(ctx context.Context, inv *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(s.dir, inv.ID)
	if err != nil {
		return err
	}
	return writeJSONAtomic(s.fs, path, inv)
}

func (s *InvoiceStore) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := recordPath(s.dir, id)
	if err != nil {
		return nil, err
	}
	var inv entity.Invoice
	ok, err := readJSON(s.fs, path, &inv)
	if err != nil || !ok {
		return nil, err
	}
	return &inv, nil
}

func (s *InvoiceStore) List(ctx context.Context) ([]*entity.Invoice, error) {
	ids, err := recordNames(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Invoice, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var inv entity.Invoice
		ok, err := readJSON(s.fs, filepath.Join(s.dir, id+".json"), &inv)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CounterValue < out[j].CounterValue })
	return out, nil
}

func (s *InvoiceStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(s.dir, id)
	if err != nil {
		return err
	}
	if ok, _ := afero.Exists(s.fs, path); !ok {
		return nil
	}
	return s.fs.Remove(path)
}
