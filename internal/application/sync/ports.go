package sync

import (
	"context"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// Queue son las operaciones de la cola offline que usa el motor.
type Queue interface {
	ListPending(ctx context.Context) ([]*entity.QueueItem, error)
	MarkProcessing(ctx context.Context, id string) (*entity.QueueItem, error)
	MarkCompleted(ctx context.Context, id string) (*entity.QueueItem, error)
	MarkFailed(ctx context.Context, id, msg string) (*entity.QueueItem, error)
	MarkRejected(ctx context.Context, id, msg string) (*entity.QueueItem, error)
	RecoverStale(ctx context.Context, olderThan time.Duration) (int, error)
	Exhausted(item *entity.QueueItem) bool
}

// DocumentBuilder genera el UBL sin firma (para el digest) y el UBL firmado (para enviar y archivar).
type DocumentBuilder interface {
	Build(inv *entity.Invoice) ([]byte, error)
	Generate(inv *entity.Invoice) ([]byte, error)
}

// Archiver guarda el UBL firmado de las facturas sincronizadas. Devuelve la ubicación.
type Archiver interface {
	Archive(ctx context.Context, inv *entity.Invoice, signedXML []byte) (string, error)
}
