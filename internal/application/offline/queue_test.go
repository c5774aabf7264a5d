package offline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/application/offline"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/localstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestQueue(t *testing.T) (*offline.Queue, *fakeClock) {
	t.Helper()
	store, err := localstore.NewQueueStore(afero.NewMemMapFs(), "/queue")
	require.NoError(t, err)
	clk := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return offline.NewQueue(store, zerolog.Nop(), offline.WithClock(clk.Now)), clk
}

func testInvoice(id string) *entity.Invoice {
	return &entity.Invoice{
		ID:           id,
		UUID:         "uuid-" + id,
		CounterValue: 1,
		IssueDate:    "2024-03-01",
		IssueTime:    "08:00:00",
		Customer:     &entity.Customer{Name: "Cliente"},
		Status:       entity.InvoiceStatusSigned,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Enqueue
// ──────────────────────────────────────────────────────────────────────────────

func TestEnqueue_CreaItemPendiente(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)

	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(item.ID, "uuid-INV-000001_report_"))
	assert.Equal(t, entity.QueueStatusPending, item.Status)
	assert.Zero(t, item.Attempts)
	assert.True(t, item.CreatedAt.Equal(clk.Now()))
	assert.Nil(t, item.LastAttemptAt)
}

func TestEnqueue_GuardaInstantanea(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	inv := testInvoice("INV-000001")

	item, err := q.Enqueue(ctx, inv, entity.QueueOperationReport)
	require.NoError(t, err)
	inv.Customer.Name = "Modificado"

	got, err := q.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cliente", got.Invoice.Customer.Name, "la cola guarda una copia, no una referencia")
}

func TestEnqueue_MismaFacturaDosVeces_IDsDistintos(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	inv := testInvoice("INV-000001")

	a, err := q.Enqueue(ctx, inv, entity.QueueOperationReport)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, inv, entity.QueueOperationReport)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "el mismo instante no debe producir IDs repetidos")
	all, err := q.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "no hay deduplicación por factura")
}

func TestEnqueue_EntradaInvalida(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	_, err := q.Enqueue(ctx, nil, entity.QueueOperationReport)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = q.Enqueue(ctx, testInvoice("INV-000001"), "borrar")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransiciones_CicloCompleto(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)
	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	got, err := q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusProcessing, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.LastAttemptAt)
	assert.True(t, got.LastAttemptAt.Equal(clk.Now()))

	got, err = q.MarkFailed(ctx, item.ID, "timeout")
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusFailed, got.Status)
	assert.Equal(t, "timeout", got.Error)

	// failed se reintenta automáticamente
	got, err = q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)

	got, err = q.MarkCompleted(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestTransiciones_Invalidas(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)

	_, err = q.MarkCompleted(ctx, item.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "pending → completed no es válido")

	_, err = q.MarkFailed(ctx, item.ID, "x")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	_, err = q.Retry(ctx, item.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "solo failed admite reintento manual")

	_, err = q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, item.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "processing no se toma dos veces")

	_, err = q.MarkCompleted(ctx, item.ID)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, item.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "completed es terminal")

	got, err := q.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusCompleted, got.Status)
}

func TestTransiciones_ItemInexistente(t *testing.T) {
	q, _ := newTestQueue(t)
	_, err := q.MarkProcessing(context.Background(), "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMarkRejected_AgotaIntentos(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationClear)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)

	got, err := q.MarkRejected(ctx, item.ID, "BR-KSA-37")
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusFailed, got.Status)
	assert.True(t, q.Exhausted(got), "un rechazo no se reintenta automáticamente")

	got, err = q.Retry(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusPending, got.Status)
	assert.Zero(t, got.Attempts)
	assert.False(t, q.Exhausted(got))
}

func TestMarkProcessing_Concurrente_UnSoloGanador(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)
	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.MarkProcessing(ctx, item.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := q.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

// seedStates deja un ítem en cada estado y devuelve sus IDs en orden pending, processing, completed, failed.
func seedStates(t *testing.T, q *offline.Queue, clk *fakeClock) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 4)
	for i := range ids {
		it, err := q.Enqueue(ctx, testInvoice("INV-00000"+string(rune('1'+i))), entity.QueueOperationReport)
		require.NoError(t, err)
		ids[i] = it.ID
		clk.Advance(time.Second)
	}
	for _, id := range ids[1:] {
		_, err := q.MarkProcessing(ctx, id)
		require.NoError(t, err)
	}
	_, err := q.MarkCompleted(ctx, ids[2])
	require.NoError(t, err)
	_, err = q.MarkFailed(ctx, ids[3], "red caída")
	require.NoError(t, err)
	return ids
}

func TestListPending_IncluyeFallidos(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)
	ids := seedStates(t, q, clk)

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[3], pending[1].ID)
}

func TestStats(t *testing.T) {
	q, clk := newTestQueue(t)
	seedStates(t, q, clk)

	st, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStats{Total: 4, Pending: 1, Processing: 1, Completed: 1, Failed: 1}, st)
}

func TestCleanup_SoloCompletadosAntiguos(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)
	ids := seedStates(t, q, clk)

	removed, err := q.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, removed, "nada tiene más de 30 días")

	clk.Advance(31 * 24 * time.Hour)
	removed, err = q.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gone, err := q.Get(ctx, ids[2])
	require.NoError(t, err)
	assert.Nil(t, gone)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total, "pending, processing y failed nunca se depuran")

	_, err = q.Cleanup(ctx, -1)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestOverdue(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)
	seedStates(t, q, clk)

	late, err := q.Overdue(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, late)

	clk.Advance(25 * time.Hour)
	late, err = q.Overdue(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, late, 3, "los completados no cuentan como atrasados")
	for _, it := range late {
		assert.NotEqual(t, entity.QueueStatusCompleted, it.Status)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Export / Import
// ──────────────────────────────────────────────────────────────────────────────

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, clk := newTestQueue(t)
	seedStates(t, src, clk)

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	dst, _ := newTestQueue(t)
	_, err = dst.Enqueue(ctx, testInvoice("INV-000099"), entity.QueueOperationReport)
	require.NoError(t, err)

	imported, skipped, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, imported)
	assert.Zero(t, skipped)

	imported, skipped, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Zero(t, imported, "los IDs existentes se omiten")
	assert.Equal(t, 4, skipped)

	st, err := dst.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 1, st.Failed)
}

func TestImport_JSONInvalido(t *testing.T) {
	q, _ := newTestQueue(t)
	_, _, err := q.Import(context.Background(), strings.NewReader("{no es json"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Durabilidad y recuperación tras reinicio
// ──────────────────────────────────────────────────────────────────────────────

// reopen simula un reinicio: store y cola nuevos sobre el mismo directorio.
func reopen(t *testing.T, fs afero.Fs, dir string, clk *fakeClock) *offline.Queue {
	t.Helper()
	store, err := localstore.NewQueueStore(fs, dir)
	require.NoError(t, err)
	return offline.NewQueue(store, zerolog.Nop(), offline.WithClock(clk.Now))
}

func TestQueue_SobreviveReinicio(t *testing.T) {
	ctx := context.Background()
	fs, dir := afero.NewOsFs(), t.TempDir()
	clk := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	q := reopen(t, fs, dir, clk)
	pending, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)
	clk.Advance(time.Second)
	failed, err := q.Enqueue(ctx, testInvoice("INV-000002"), entity.QueueOperationClear)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, failed.ID)
	require.NoError(t, err)
	_, err = q.MarkFailed(ctx, failed.ID, "red caída")
	require.NoError(t, err)

	got, err := reopen(t, fs, dir, clk).ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, pending.ID, got[0].ID)
	assert.Equal(t, entity.QueueStatusPending, got[0].Status)
	assert.Zero(t, got[0].Attempts)
	assert.Equal(t, entity.QueueOperationReport, got[0].Operation)
	assert.True(t, got[0].CreatedAt.Equal(pending.CreatedAt))
	assert.Equal(t, "INV-000001", got[0].Invoice.ID)
	assert.Equal(t, "uuid-INV-000001", got[0].Invoice.UUID)
	assert.Equal(t, entity.InvoiceStatusSigned, got[0].Invoice.Status)
	require.NotNil(t, got[0].Invoice.Customer)
	assert.Equal(t, "Cliente", got[0].Invoice.Customer.Name)

	assert.Equal(t, failed.ID, got[1].ID)
	assert.Equal(t, entity.QueueStatusFailed, got[1].Status)
	assert.Equal(t, 1, got[1].Attempts)
	assert.Equal(t, "red caída", got[1].Error)
	require.NotNil(t, got[1].LastAttemptAt)
}

// Una caída entre MarkProcessing y la marca final no debe dejar el ítem huérfano.
func TestRecoverStale_ProcessingInterrumpidoVuelveAFailed(t *testing.T) {
	ctx := context.Background()
	fs, dir := afero.NewOsFs(), t.TempDir()
	clk := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	q := reopen(t, fs, dir, clk)
	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)

	q = reopen(t, fs, dir, clk)
	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err := q.RecoverStale(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "dentro del umbral el ítem puede seguir en curso en otro proceso")

	clk.Advance(offline.DefaultStaleAfter + time.Second)
	n, err = q.RecoverStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := q.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempts, "el intento interrumpido cuenta")
	assert.True(t, strings.HasPrefix(got.Error, "interrumpido"))

	pending, err = q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "la próxima sincronización lo retoma")

	n, err = q.RecoverStale(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "es idempotente")
}

func TestRecoverStale_UmbralExplicito(t *testing.T) {
	ctx := context.Background()
	q, clk := newTestQueue(t)
	ids := seedStates(t, q, clk)

	clk.Advance(2 * time.Minute)
	n, err := q.RecoverStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "solo el ítem en processing")

	got, err := q.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusFailed, got.Status)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStats{Total: 4, Pending: 1, Completed: 1, Failed: 2}, st)
}

func TestRetry_ProcessingInterrumpido(t *testing.T) {
	ctx := context.Background()
	store, err := localstore.NewQueueStore(afero.NewMemMapFs(), "/queue")
	require.NoError(t, err)
	clk := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	q := offline.NewQueue(store, zerolog.Nop(), offline.WithClock(clk.Now), offline.WithStaleAfter(time.Minute))

	item, err := q.Enqueue(ctx, testInvoice("INV-000001"), entity.QueueOperationReport)
	require.NoError(t, err)
	_, err = q.MarkProcessing(ctx, item.ID)
	require.NoError(t, err)

	_, err = q.Retry(ctx, item.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "un ítem en curso no se reintenta")

	clk.Advance(2 * time.Minute)
	got, err := q.Retry(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusPending, got.Status)
	assert.Zero(t, got.Attempts)
	assert.Empty(t, got.Error)
}
