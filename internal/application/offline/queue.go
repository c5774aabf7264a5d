// Package offline implementa la cola durable de operaciones de entrega a ZATCA (report / clear).
// El almacenamiento es intercambiable (archivos locales o PostgreSQL) vía repository.QueueRepository.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

const (
	DefaultMaxAttempts  = 3
	DefaultOverdueAfter = 24 * time.Hour
	// DefaultStaleAfter tiempo tras el cual un ítem en processing se considera interrumpido.
	DefaultStaleAfter = 10 * time.Minute
)

// Queue es la cola offline. Todas las transiciones pasan por repository.QueueRepository.Update,
// que es atómico por ítem.
type Queue struct {
	repo        repository.QueueRepository
	log         zerolog.Logger
	now         func() time.Time
	maxAttempts int
	staleAfter  time.Duration
}

// Option configura la cola.
type Option func(*Queue)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithMaxAttempts fija los intentos automáticos antes de requerir un reintento manual.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithStaleAfter fija cuánto puede quedar un ítem en processing antes de recuperarlo.
func WithStaleAfter(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.staleAfter = d
		}
	}
}

// NewQueue construye la cola sobre el repositorio dado.
func NewQueue(repo repository.QueueRepository, log zerolog.Logger, opts ...Option) *Queue {
	q := &Queue{repo: repo, log: log, now: time.Now, maxAttempts: DefaultMaxAttempts, staleAfter: DefaultStaleAfter}
	for _, o := range opts {
		o(q)
	}
	return q
}

// MaxAttempts devuelve el límite de intentos automáticos.
func (q *Queue) MaxAttempts() int { return q.maxAttempts }

// Enqueue agrega una instantánea de la factura con status pending. No deduplica por factura:
// la misma factura puede encolarse para report y luego para clear.
func (q *Queue) Enqueue(ctx context.Context, inv *entity.Invoice, operation string) (*entity.QueueItem, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	if operation != entity.QueueOperationReport && operation != entity.QueueOperationClear {
		return nil, fmt.Errorf("%w: operación %q", domain.ErrInvalidInput, operation)
	}
	now := q.now().UTC()
	item := &entity.QueueItem{
		Invoice:   *inv.Clone(),
		Operation: operation,
		Status:    entity.QueueStatusPending,
		CreatedAt: now,
	}
	// El ID lleva nanosegundos; ante una colisión se desplaza 1 ns.
	for i := 0; i < 8; i++ {
		item.ID = fmt.Sprintf("%s_%s_%d", inv.UUID, operation, now.UnixNano()+int64(i))
		err := q.repo.Create(ctx, item)
		if err == nil {
			q.log.Info().Str("item_id", item.ID).Str("invoice_id", inv.ID).Str("operation", operation).
				Msg("factura encolada")
			return item, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("encolar %s: %w", inv.ID, err)
		}
	}
	return nil, fmt.Errorf("encolar %s: %w", inv.ID, domain.ErrDuplicate)
}

// Get devuelve nil, nil si el ítem no existe.
func (q *Queue) Get(ctx context.Context, id string) (*entity.QueueItem, error) {
	return q.repo.Get(ctx, id)
}

// List devuelve todos los ítems por fecha de creación.
func (q *Queue) List(ctx context.Context) ([]*entity.QueueItem, error) {
	return q.repo.List(ctx)
}

// ListPending devuelve los ítems pending y failed; los fallidos se reintentan, no se abandonan.
func (q *Queue) ListPending(ctx context.Context) ([]*entity.QueueItem, error) {
	all, err := q.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.QueueItem, 0, len(all))
	for _, it := range all {
		if it.IsRetryable() {
			out = append(out, it)
		}
	}
	return out, nil
}

// MarkProcessing: pending|failed → processing; incrementa attempts y registra lastAttemptAt.
func (q *Queue) MarkProcessing(ctx context.Context, id string) (*entity.QueueItem, error) {
	return q.repo.Update(ctx, id, func(it *entity.QueueItem) error {
		if !it.IsRetryable() {
			return transitionError(it, entity.QueueStatusProcessing)
		}
		now := q.now().UTC()
		it.Status = entity.QueueStatusProcessing
		it.Attempts++
		it.LastAttemptAt = &now
		return nil
	})
}

// MarkCompleted: processing → completed.
func (q *Queue) MarkCompleted(ctx context.Context, id string) (*entity.QueueItem, error) {
	return q.repo.Update(ctx, id, func(it *entity.QueueItem) error {
		if it.Status != entity.QueueStatusProcessing {
			return transitionError(it, entity.QueueStatusCompleted)
		}
		it.Status = entity.QueueStatusCompleted
		it.Error = ""
		return nil
	})
}

// MarkFailed: processing → failed con el mensaje de error.
func (q *Queue) MarkFailed(ctx context.Context, id, msg string) (*entity.QueueItem, error) {
	return q.repo.Update(ctx, id, func(it *entity.QueueItem) error {
		if it.Status != entity.QueueStatusProcessing {
			return transitionError(it, entity.QueueStatusFailed)
		}
		it.Status = entity.QueueStatusFailed
		it.Error = msg
		return nil
	})
}

// MarkRejected: processing → failed sin reintentos automáticos (rechazo de ZATCA o conflicto).
// Solo un Retry manual lo devuelve a la cola.
func (q *Queue) MarkRejected(ctx context.Context, id, msg string) (*entity.QueueItem, error) {
	return q.repo.Update(ctx, id, func(it *entity.QueueItem) error {
		if it.Status != entity.QueueStatusProcessing {
			return transitionError(it, entity.QueueStatusFailed)
		}
		it.Status = entity.QueueStatusFailed
		it.Error = msg
		if it.Attempts < q.maxAttempts {
			it.Attempts = q.maxAttempts
		}
		return nil
	})
}

// Retry: failed → pending con attempts en cero. También acepta un ítem en processing
// interrumpido (ver RecoverStale); uno en curso dentro del umbral se rechaza.
func (q *Queue) Retry(ctx context.Context, id string) (*entity.QueueItem, error) {
	return q.repo.Update(ctx, id, func(it *entity.QueueItem) error {
		if it.Status != entity.QueueStatusFailed && !q.stale(it, q.staleAfter) {
			return transitionError(it, entity.QueueStatusPending)
		}
		it.Status = entity.QueueStatusPending
		it.Attempts = 0
		it.Error = ""
		return nil
	})
}

// RecoverStale devuelve a failed los ítems que quedaron en processing más de olderThan
// (0 = el umbral de la cola), p. ej. tras una caída entre MarkProcessing y la marca final.
// Conservan attempts, así que la próxima sincronización los reintenta mientras no estén agotados.
func (q *Queue) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = q.staleAfter
	}
	all, err := q.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, it := range all {
		if !q.stale(it, olderThan) {
			continue
		}
		_, err := q.repo.Update(ctx, it.ID, func(cur *entity.QueueItem) error {
			if !q.stale(cur, olderThan) {
				return transitionError(cur, entity.QueueStatusFailed)
			}
			cur.Status = entity.QueueStatusFailed
			cur.Error = fmt.Sprintf("interrumpido: en processing desde %s", lastAttempt(cur).Format(time.RFC3339))
			return nil
		})
		switch {
		case err == nil:
			recovered++
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
			// otro proceso lo cerró entre List y Update
		default:
			return recovered, fmt.Errorf("recuperar %s: %w", it.ID, err)
		}
	}
	if recovered > 0 {
		q.log.Warn().Int("recovered", recovered).Dur("older_than", olderThan).Msg("ítems interrumpidos recuperados")
	}
	return recovered, nil
}

func (q *Queue) stale(it *entity.QueueItem, olderThan time.Duration) bool {
	if it.Status != entity.QueueStatusProcessing {
		return false
	}
	return !lastAttempt(it).After(q.now().UTC().Add(-olderThan))
}

func lastAttempt(it *entity.QueueItem) time.Time {
	if it.LastAttemptAt != nil {
		return *it.LastAttemptAt
	}
	return it.CreatedAt
}

// Exhausted indica si el ítem agotó los intentos automáticos.
func (q *Queue) Exhausted(it *entity.QueueItem) bool {
	return it.Status == entity.QueueStatusFailed && it.Attempts >= q.maxAttempts
}

// Stats cuenta los ítems por estado.
func (q *Queue) Stats(ctx context.Context) (entity.QueueStats, error) {
	all, err := q.repo.List(ctx)
	if err != nil {
		return entity.QueueStats{}, err
	}
	st := entity.QueueStats{Total: len(all)}
	for _, it := range all {
		switch it.Status {
		case entity.QueueStatusPending:
			st.Pending++
		case entity.QueueStatusProcessing:
			st.Processing++
		case entity.QueueStatusCompleted:
			st.Completed++
		case entity.QueueStatusFailed:
			st.Failed++
		}
	}
	return st, nil
}

// Cleanup borra solo ítems completed creados hace más de olderThanDays días.
// Nunca toca pending, processing ni failed.
func (q *Queue) Cleanup(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("%w: días negativos", domain.ErrInvalidInput)
	}
	cutoff := q.now().UTC().AddDate(0, 0, -olderThanDays)
	all, err := q.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, it := range all {
		if it.Status != entity.QueueStatusCompleted || !it.CreatedAt.Before(cutoff) {
			continue
		}
		if err := q.repo.Delete(ctx, it.ID); err != nil {
			return removed, fmt.Errorf("cleanup %s: %w", it.ID, err)
		}
		removed++
	}
	if removed > 0 {
		q.log.Info().Int("removed", removed).Int("older_than_days", olderThanDays).Msg("cola depurada")
	}
	return removed, nil
}

// Overdue devuelve los ítems no completados con más de threshold de antigüedad (0 = 24 h).
func (q *Queue) Overdue(ctx context.Context, threshold time.Duration) ([]*entity.QueueItem, error) {
	if threshold <= 0 {
		threshold = DefaultOverdueAfter
	}
	cutoff := q.now().UTC().Add(-threshold)
	all, err := q.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*entity.QueueItem
	for _, it := range all {
		if it.Status != entity.QueueStatusCompleted && it.CreatedAt.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Export escribe todos los ítems como un arreglo JSON (respaldo de auditoría).
func (q *Queue) Export(ctx context.Context, w io.Writer) (int, error) {
	all, err := q.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return 0, fmt.Errorf("exportar cola: %w", err)
	}
	return len(all), nil
}

// Import lee un respaldo generado por Export. Los IDs ya presentes se omiten.
func (q *Queue) Import(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	var items []*entity.QueueItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, 0, fmt.Errorf("%w: respaldo de cola: %v", domain.ErrInvalidInput, err)
	}
	for _, it := range items {
		if it == nil || it.ID == "" {
			skipped++
			continue
		}
		err := q.repo.Create(ctx, it)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		default:
			return imported, skipped, fmt.Errorf("importar %s: %w", it.ID, err)
		}
	}
	q.log.Info().Int("imported", imported).Int("skipped", skipped).Msg("cola importada")
	return imported, skipped, nil
}

func transitionError(it *entity.QueueItem, to string) error {
	return fmt.Errorf("%w: ítem %s de %s a %s", domain.ErrInvalidTransition, it.ID, it.Status, to)
}
