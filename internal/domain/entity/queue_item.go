package entity

import "time"

// Operaciones de entrega a ZATCA.
const (
	QueueOperationReport = "report"
	QueueOperationClear  = "clear"
)

// Estados de un ítem de la cola offline: pending → processing → completed | failed.
// failed vuelve a pending con un reintento manual.
const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// QueueItem es una operación de entrega pendiente. Guarda una instantánea completa de la factura.
type QueueItem struct {
	ID            string     `json:"id"` // <uuid>_<operación>_<unix-nano>
	Invoice       Invoice    `json:"invoice"`
	Operation     string     `json:"operation"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// IsRetryable indica si el ítem lo toma la próxima sincronización.
func (q *QueueItem) IsRetryable() bool {
	return q.Status == QueueStatusPending || q.Status == QueueStatusFailed
}
