package invoicing

import (
	"context"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// InvoicePDFGenerator genera la representación impresa de la factura.
// Si ublXML no está vacío se embebe en el PDF.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, ublXML []byte) ([]byte, error)
}

// UBLGenerator genera y valida el XML UBL 2.1 de la factura.
type UBLGenerator interface {
	Generate(inv *entity.Invoice) ([]byte, error)
	Validate(xml []byte) bool
}

// DeliveryQueue es la cola offline donde se encolan report y clear.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, inv *entity.Invoice, operation string) (*entity.QueueItem, error)
	Stats(ctx context.Context) (entity.QueueStats, error)
	Overdue(ctx context.Context, threshold time.Duration) ([]*entity.QueueItem, error)
}
