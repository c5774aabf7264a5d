package entity

import (
	"encoding/json"
	"time"
)

// Estados de sincronización del registro remoto.
const (
	SyncStatusSynced  = "synced"
	SyncStatusPending = "pending"
)

// Acciones de auditoría.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
)

// InvoiceRecord es la factura tal como vive en el almacén remoto.
type InvoiceRecord struct {
	Invoice    Invoice    `json:"invoice"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Version    int        `json:"version"`
	SyncStatus string     `json:"syncStatus"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
}

// AuditLog registra cada alta o modificación remota.
type AuditLog struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Conflict es un ítem cuyo registro remoto es igual o más reciente que la copia local.
// No es un error: queda para revisión manual.
type Conflict struct {
	ItemID          string         `json:"itemId"`
	InvoiceID       string         `json:"invoiceId"`
	LocalTimestamp  time.Time      `json:"localTimestamp"`
	RemoteUpdatedAt time.Time      `json:"remoteUpdatedAt"`
	Remote          *InvoiceRecord `json:"remote,omitempty"`
}

// SyncResult es el resultado agregado de una corrida de sincronización.
type SyncResult struct {
	Success     bool       `json:"success"`
	SyncedCount int        `json:"syncedCount"`
	FailedCount int        `json:"failedCount"`
	Errors      []string   `json:"errors"`
	Conflicts   []Conflict `json:"conflicts"`
	Timestamp   time.Time  `json:"timestamp"`
}

// SyncProgress se emite al terminar cada lote.
type SyncProgress struct {
	Batch     int `json:"batch"`
	Batches   int `json:"batches"`
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Errors    int `json:"errors"`
}

// SyncStatus describe el estado del planificador.
type SyncStatus struct {
	Running    bool        `json:"running"`
	LastRunAt  *time.Time  `json:"lastRunAt,omitempty"`
	LastResult *SyncResult `json:"lastResult,omitempty"`
	LastError  string      `json:"lastError,omitempty"`
}

// QueueStats son los conteos por estado de la cola offline.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// ValidationResult es el resultado estructurado de validar una factura. Nunca es un error.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
