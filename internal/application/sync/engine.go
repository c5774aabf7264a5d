// Package sync sincroniza la cola offline con el almacén remoto y, si está configurado, con la
// plataforma Fatoora de ZATCA. Procesa por lotes, aísla los fallos por ítem y resuelve conflictos
// por última escritura.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

// Valores por defecto de una corrida.
const (
	DefaultBatchSize   = 50
	DefaultBatchDelay  = 100 * time.Millisecond
	DefaultCallTimeout = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = time.Second
)

// Options parámetros de una corrida. Los ceros toman los valores por defecto.
type Options struct {
	BatchSize   int
	BatchDelay  time.Duration // pausa entre lotes; negativa = sin pausa
	CallTimeout time.Duration // límite de cada llamada remota
	MaxRetries  int           // intentos por llamada remota
	RetryDelay  time.Duration
	// StaleAfter antigüedad a partir de la cual un ítem en processing se da por interrumpido
	// y se recupera al iniciar la corrida. 0 = el umbral de la cola.
	StaleAfter time.Duration
	// Progress recibe un evento al terminar cada lote. Opcional; el motor no lo cierra.
	Progress chan<- entity.SyncProgress
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	} else if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// Engine es el motor de sincronización. Solo una corrida a la vez.
type Engine struct {
	queue     Queue
	remote    repository.RemoteInvoiceRepository
	builder   DocumentBuilder
	submitter infrazatca.AuthoritySubmitter // nil en el ambiente dev
	archiver  Archiver                      // opcional
	hasher    *domainzatca.HasherService
	log       zerolog.Logger

	mu      stdsync.Mutex
	running atomic.Bool
}

// EngineOption configura el motor.
type EngineOption func(*Engine)

// WithSubmitter habilita el envío a ZATCA (reporting / clearance) antes de escribir en el remoto.
func WithSubmitter(s infrazatca.AuthoritySubmitter) EngineOption {
	return func(e *Engine) { e.submitter = s }
}

// WithArchiver habilita el archivo del UBL firmado tras completar cada ítem.
func WithArchiver(a Archiver) EngineOption {
	return func(e *Engine) { e.archiver = a }
}

// NewEngine construye el motor.
func NewEngine(queue Queue, remote repository.RemoteInvoiceRepository, builder DocumentBuilder, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{queue: queue, remote: remote, builder: builder, hasher: domainzatca.NewHasherService(), log: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Sync procesa los ítems pending y failed (sin intentos agotados) en lotes.
// Devuelve domain.ErrSyncInProgress si ya hay una corrida y domain.ErrOffline si el remoto no
// responde; en ambos casos no toca ningún ítem. Si ctx se cancela entre lotes devuelve el
// resultado parcial junto con ctx.Err().
func (e *Engine) Sync(ctx context.Context, opts Options) (*entity.SyncResult, error) {
	if !e.mu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	e.running.Store(true)
	defer func() {
		e.running.Store(false)
		e.mu.Unlock()
	}()
	opts = opts.withDefaults()

	if err := e.ping(ctx, opts); err != nil {
		return nil, err
	}
	if _, err := e.queue.RecoverStale(ctx, opts.StaleAfter); err != nil {
		e.log.Warn().Err(err).Msg("sync: no se pudieron recuperar ítems interrumpidos")
	}

	pending, err := e.queue.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: listar cola: %w", err)
	}
	items := make([]*entity.QueueItem, 0, len(pending))
	for _, it := range pending {
		if !e.queue.Exhausted(it) {
			items = append(items, it)
		}
	}

	result := &entity.SyncResult{
		Errors:    []string{},
		Conflicts: []entity.Conflict{},
		Timestamp: time.Now().UTC(),
	}
	total := len(items)
	if total == 0 {
		result.Success = true
		e.log.Debug().Msg("sync: nada pendiente")
		return result, nil
	}
	batches := (total + opts.BatchSize - 1) / opts.BatchSize
	e.log.Info().Int("items", total).Int("batches", batches).Msg("sync: inicio")

	for b := 0; b < batches; b++ {
		if b > 0 && opts.BatchDelay > 0 {
			if err := sleep(ctx, opts.BatchDelay); err != nil {
				return e.finish(result), err
			}
		}
		if err := ctx.Err(); err != nil {
			return e.finish(result), err
		}

		start := b * opts.BatchSize
		end := min(start+opts.BatchSize, total)
		for _, it := range items[start:end] {
			conflict, err := e.processItem(ctx, it, opts)
			switch {
			case conflict != nil:
				result.Conflicts = append(result.Conflicts, *conflict)
			case err != nil:
				result.FailedCount++
				result.Errors = append(result.Errors, err.Error())
			default:
				result.SyncedCount++
			}
		}

		e.emit(ctx, opts.Progress, entity.SyncProgress{
			Batch:     b + 1,
			Batches:   batches,
			Processed: end,
			Total:     total,
			Errors:    result.FailedCount,
		})
	}
	return e.finish(result), nil
}

// Running indica si hay una corrida en curso.
func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) finish(r *entity.SyncResult) *entity.SyncResult {
	r.Success = r.FailedCount == 0
	e.log.Info().
		Int("synced", r.SyncedCount).
		Int("failed", r.FailedCount).
		Int("conflicts", len(r.Conflicts)).
		Msg("sync: fin")
	return r
}

func (e *Engine) ping(ctx context.Context, opts Options) error {
	pctx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	defer cancel()
	if err := e.remote.Ping(pctx); err != nil {
		if errors.Is(err, domain.ErrOffline) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrOffline, err)
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, ch chan<- entity.SyncProgress, p entity.SyncProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	case <-ctx.Done():
	}
}

// processItem entrega un ítem. Devuelve un Conflict (sin error) o un *domain.SyncError.
// El ítem queda completed, failed o failed sin reintentos (rechazo o conflicto).
func (e *Engine) processItem(ctx context.Context, item *entity.QueueItem, opts Options) (*entity.Conflict, error) {
	inv := &item.Invoice
	fail := func(cause error) error { return domain.NewSyncError(item.ID, inv.ID, cause) }
	// Las marcas finales se registran aunque ctx se cancele a mitad del ítem.
	markCtx := context.WithoutCancel(ctx)

	if _, err := e.queue.MarkProcessing(ctx, item.ID); err != nil {
		return nil, fail(err)
	}

	var remote *entity.InvoiceRecord
	err := e.call(ctx, opts, func(cctx context.Context) error {
		var err error
		remote, err = e.remote.GetByID(cctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, fail(e.markFailed(markCtx, item, err))
	}

	if remote != nil {
		if c := resolve(item, remote); c != nil {
			if sameDocument(e.hasher, inv, remote) {
				return nil, e.completeSynced(markCtx, item, opts)
			}
			msg := fmt.Sprintf("conflicto: el registro remoto (%s) es igual o más reciente que la copia local (%s)",
				c.RemoteUpdatedAt.Format(time.RFC3339), c.LocalTimestamp.Format(time.RFC3339))
			if _, err := e.queue.MarkRejected(markCtx, item.ID, msg); err != nil {
				e.log.Error().Err(err).Str("item_id", item.ID).Msg("sync: no se pudo marcar el conflicto")
			}
			e.log.Warn().Str("item_id", item.ID).Str("invoice_id", inv.ID).Msg("sync: conflicto para revisión manual")
			return c, nil
		}
	}

	var signedXML []byte
	if e.submitter != nil || e.archiver != nil {
		if signedXML, err = e.builder.Generate(inv); err != nil {
			return nil, fail(e.markFailed(markCtx, item, fmt.Errorf("generar UBL: %w", err)))
		}
	}

	if e.submitter != nil {
		if err := e.submit(ctx, item, signedXML, opts); err != nil {
			if errors.Is(err, domain.ErrRejected) {
				if _, merr := e.queue.MarkRejected(markCtx, item.ID, err.Error()); merr != nil {
					e.log.Error().Err(merr).Str("item_id", item.ID).Msg("sync: no se pudo marcar el rechazo")
				}
				return nil, fail(err)
			}
			return nil, fail(e.markFailed(markCtx, item, err))
		}
	}

	err = e.call(ctx, opts, func(cctx context.Context) error {
		if remote != nil {
			return e.remote.Update(cctx, inv)
		}
		return e.remote.Create(cctx, inv)
	})
	if err != nil {
		return nil, fail(e.markFailed(markCtx, item, err))
	}

	if _, err := e.queue.MarkCompleted(markCtx, item.ID); err != nil {
		return nil, fail(err)
	}
	e.log.Info().Str("item_id", item.ID).Str("invoice_id", inv.ID).Str("operation", item.Operation).
		Msg("sync: ítem completado")

	e.archive(markCtx, inv, signedXML, opts)
	return nil, nil
}

// completeSynced cierra un ítem cuya factura el remoto ya guarda idéntica: no reenvía a ZATCA
// ni reescribe el remoto.
func (e *Engine) completeSynced(ctx context.Context, item *entity.QueueItem, opts Options) error {
	inv := &item.Invoice
	if _, err := e.queue.MarkCompleted(ctx, item.ID); err != nil {
		return domain.NewSyncError(item.ID, inv.ID, err)
	}
	e.log.Info().Str("item_id", item.ID).Str("invoice_id", inv.ID).
		Msg("sync: el remoto ya tiene esta factura, ítem completado")
	if e.archiver != nil {
		signedXML, err := e.builder.Generate(inv)
		if err != nil {
			e.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("sync: no se pudo generar el UBL para archivar")
			return nil
		}
		e.archive(ctx, inv, signedXML, opts)
	}
	return nil
}

// archive guarda el UBL firmado; un fallo solo se registra, el ítem ya está completado.
func (e *Engine) archive(ctx context.Context, inv *entity.Invoice, signedXML []byte, opts Options) {
	if e.archiver == nil {
		return
	}
	actx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	loc, err := e.archiver.Archive(actx, inv, signedXML)
	cancel()
	if err != nil {
		e.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("sync: no se pudo archivar el UBL firmado")
		return
	}
	e.log.Debug().Str("invoice_id", inv.ID).Str("location", loc).Msg("sync: UBL archivado")
}

func (e *Engine) submit(ctx context.Context, item *entity.QueueItem, signedXML []byte, opts Options) error {
	inv := &item.Invoice
	unsigned, err := e.builder.Build(inv)
	if err != nil {
		return fmt.Errorf("generar UBL sin firma: %w", err)
	}
	digest := infrazatca.DocumentDigest(unsigned)

	var res *infrazatca.SubmitResult
	err = e.call(ctx, opts, func(cctx context.Context) error {
		var err error
		res, err = e.submitter.Submit(cctx, item.Operation, inv, signedXML, digest)
		return err
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		e.log.Warn().Str("invoice_id", inv.ID).Str("warning", w).Msg("sync: advertencia de ZATCA")
	}
	if !res.Accepted {
		return fmt.Errorf("%w: %s", domain.ErrRejected, strings.Join(res.Errors, "; "))
	}
	return nil
}

func (e *Engine) markFailed(ctx context.Context, item *entity.QueueItem, cause error) error {
	if _, err := e.queue.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		e.log.Error().Err(err).Str("item_id", item.ID).Msg("sync: no se pudo marcar el fallo")
	}
	e.log.Warn().Err(cause).Str("item_id", item.ID).Str("invoice_id", item.Invoice.ID).Msg("sync: ítem fallido")
	return cause
}

// call ejecuta fn con un límite de tiempo por intento y hasta opts.MaxRetries intentos.
// Los errores de entrada, duplicados o la cancelación del contexto padre no se reintentan.
func (e *Engine) call(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 1 {
			if serr := sleep(ctx, opts.RetryDelay); serr != nil {
				return errors.Join(err, serr)
			}
		}
		cctx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
		err = fn(cctx)
		cancel()
		if err == nil || !retryable(ctx, err) {
			return err
		}
		e.log.Debug().Err(err).Int("attempt", attempt).Msg("sync: reintentando llamada remota")
	}
	return err
}

func retryable(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRejected):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
