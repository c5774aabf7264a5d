package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// InvoiceRepository es el almacén local de facturas firmadas (consulta por ID desde HTTP y CLI).
type InvoiceRepository interface {
	// Save crea o reemplaza la factura.
	Save(ctx context.Context, inv *entity.Invoice) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// List devuelve las facturas ordenadas por contador ascendente.
	List(ctx context.Context) ([]*entity.Invoice, error)
	Delete(ctx context.Context, id string) error
}

// RemoteInvoiceRepository es el almacén remoto contra el que sincroniza la cola.
type RemoteInvoiceRepository interface {
	// GetByID devuelve nil, nil si el registro no existe.
	GetByID(ctx context.Context, invoiceID string) (*entity.InvoiceRecord, error)
	// Create inserta el registro y su entrada de auditoría en la misma transacción.
	Create(ctx context.Context, inv *entity.Invoice) error
	// Update reemplaza el registro, incrementa la versión y audita.
	Update(ctx context.Context, inv *entity.Invoice) error
	// Ping comprueba conectividad antes de sincronizar.
	Ping(ctx context.Context) error
}
