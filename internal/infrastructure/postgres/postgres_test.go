package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/postgres"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
)

// Pruebas de integración: requieren ZATCA_TEST_DATABASE_URL apuntando a una base desechable.

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("ZATCA_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ZATCA_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	require.NoError(t, postgres.EnsureSchema(ctx, pool), "EnsureSchema debe ser idempotente")
	return pool
}

func testInvoice(suffix string) *entity.Invoice {
	return &entity.Invoice{
		ID:                 "INV-T-" + suffix,
		UUID:               "uuid-" + suffix,
		CounterValue:       1,
		IssueDate:          "2024-01-15",
		IssueTime:          "10:30:00",
		InvoiceTypeCode:    "388",
		Supplier:           entity.Supplier{Name: "Acme", VATNumber: "300000000000003"},
		TaxTotal:           entity.TaxTotal{TaxAmount: decimal.RequireFromString("150")},
		LegalMonetaryTotal: entity.LegalMonetaryTotal{TaxInclusiveAmount: decimal.RequireFromString("1150")},
		Status:             entity.InvoiceStatusReported,
	}
}

func TestRemoteInvoiceRepo_CreateUpdate(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := postgres.NewRemoteInvoiceRepository(pool)
	inv := testInvoice(fmt.Sprint(time.Now().UnixNano()))

	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Create(ctx, inv))
	assert.True(t, errors.Is(repo.Create(ctx, inv), domain.ErrDuplicate))

	rec, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, inv.UUID, rec.Invoice.UUID)
	assert.True(t, rec.Invoice.LegalMonetaryTotal.TaxInclusiveAmount.Equal(decimal.RequireFromString("1150")))

	inv.Status = entity.InvoiceStatusCleared
	require.NoError(t, repo.Update(ctx, inv))
	rec, err = repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, entity.InvoiceStatusCleared, rec.Invoice.Status)

	logs, err := repo.AuditLogs(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2, "alta y modificación auditadas")

	missing, err := repo.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChainStateRepo(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := postgres.NewChainStateRepository(pool)

	require.NoError(t, repo.Save(ctx, entity.ChainState{InvoiceCounter: 7, PreviousHash: "h7"}))
	require.NoError(t, repo.Save(ctx, entity.ChainState{InvoiceCounter: 8, PreviousHash: "h8"}))
	st, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(8), st.InvoiceCounter)
	assert.Equal(t, "h8", st.PreviousHash)
}

func TestQueueRepo_Transiciones(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := postgres.NewQueueRepository(pool)
	id := fmt.Sprintf("q-%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	item := &entity.QueueItem{
		ID: id, Invoice: *testInvoice(id), Operation: entity.QueueOperationReport,
		Status: entity.QueueStatusPending, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, item))
	assert.ErrorIs(t, repo.Create(ctx, item), domain.ErrDuplicate)

	_, err := repo.Update(ctx, id, func(it *entity.QueueItem) error {
		it.Status = entity.QueueStatusProcessing
		return domain.ErrInvalidTransition
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := repo.Update(ctx, id, func(it *entity.QueueItem) error {
		it.Status = entity.QueueStatusProcessing
		it.Attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusProcessing, got.Status)

	_, err = repo.Update(ctx, "no-existe", func(*entity.QueueItem) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
