package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// ChainStateRepository persiste contador y hash previo. Save es atómico: escribe ambos o ninguno.
type ChainStateRepository interface {
	// Load devuelve nil, nil si aún no hay estado (primera factura).
	Load(ctx context.Context) (*entity.ChainState, error)
	Save(ctx context.Context, state entity.ChainState) error
}
