package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// QueueRepository es el almacén durable de la cola offline.
type QueueRepository interface {
	// Create falla con domain.ErrDuplicate si el ID ya existe.
	Create(ctx context.Context, item *entity.QueueItem) error
	// Get devuelve nil, nil si no existe.
	Get(ctx context.Context, id string) (*entity.QueueItem, error)
	// List devuelve todos los ítems ordenados por fecha de creación.
	List(ctx context.Context) ([]*entity.QueueItem, error)
	// Update aplica fn al ítem bajo un bloqueo del ítem; si fn falla no se persiste nada.
	// Devuelve domain.ErrNotFound si el ítem no existe.
	Update(ctx context.Context, id string, fn func(item *entity.QueueItem) error) (*entity.QueueItem, error)
	Delete(ctx context.Context, id string) error
}
