package dto

import "github.com/jhoicas/zatca-einvoice/internal/domain/entity"

// QueueListResponse respuesta de GET /api/queue.
type QueueListResponse struct {
	Items []*entity.QueueItem `json:"items"`
	Page  PageResponse        `json:"page"`
}

// SyncRequest body opcional de POST /api/sync; los ceros toman los valores configurados.
type SyncRequest struct {
	BatchSize int `json:"batchSize,omitempty"`
}
