package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/export"
)

func queueItem(id, status, errMsg string) *entity.QueueItem {
	inv := entity.Invoice{ID: "INV-000001", UUID: "3cf5ee18-ee25-44ea-a444-2c37ba7f28be"}
	inv.LegalMonetaryTotal.TaxInclusiveAmount = decimal.RequireFromString("1150")
	inv.TaxTotal.TaxAmount = decimal.RequireFromString("150")
	return &entity.QueueItem{
		ID:        id,
		Invoice:   inv,
		Operation: entity.QueueOperationReport,
		Status:    status,
		Attempts:  1,
		CreatedAt: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
		Error:     errMsg,
	}
}

func TestWriteQueueXLSX_UnaFilaPorItem(t *testing.T) {
	var buf bytes.Buffer
	items := []*entity.QueueItem{
		queueItem("a_report_1", entity.QueueStatusPending, ""),
		queueItem("b_report_2", entity.QueueStatusFailed, "zatca api: 503"),
	}
	require.NoError(t, export.WriteQueueXLSX(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetQueue}, f.GetSheetList(), "la hoja por defecto se elimina")

	rows, err := f.GetRows(export.SheetQueue)
	require.NoError(t, err)
	require.Len(t, rows, 3, "encabezado más dos ítems")
	assert.Equal(t, "Item ID", rows[0][0])
	assert.Equal(t, "a_report_1", rows[1][0])
	assert.Equal(t, "1150.00", rows[1][8])
	assert.Equal(t, "150.00", rows[1][9])
	assert.Equal(t, "zatca api: 503", rows[2][10])
	assert.Equal(t, "2024-05-10T08:00:00Z", rows[2][6])
}

func TestWriteQueueXLSX_ColaVacia(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteQueueXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetQueue)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
