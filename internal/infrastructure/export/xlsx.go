// Package export genera reportes de la cola offline para operadores.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// SheetQueue es la hoja con un ítem por fila.
const SheetQueue = "Queue"

var queueHeaders = []string{
	"Item ID", "Invoice ID", "UUID", "Operation", "Status", "Attempts",
	"Created At", "Last Attempt At", "Total (SAR)", "VAT (SAR)", "Error",
}

// WriteQueueXLSX escribe los ítems como libro xlsx. Los ítems fallidos llevan el error en rojo.
func WriteQueueXLSX(w io.Writer, items []*entity.QueueItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetQueue); err != nil {
		return fmt.Errorf("export: crear hoja: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: borrar hoja por defecto: %w", err)
	}
	if err := f.SetSheetRow(SheetQueue, "A1", &queueHeaders); err != nil {
		return err
	}
	errStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "9A0511"}})
	if err != nil {
		return err
	}

	for i, it := range items {
		row := i + 2
		lastAttempt := ""
		if it.LastAttemptAt != nil {
			lastAttempt = it.LastAttemptAt.UTC().Format(time.RFC3339)
		}
		values := []any{
			it.ID,
			it.Invoice.ID,
			it.Invoice.UUID,
			it.Operation,
			it.Status,
			it.Attempts,
			it.CreatedAt.UTC().Format(time.RFC3339),
			lastAttempt,
			it.Invoice.LegalMonetaryTotal.TaxInclusiveAmount.StringFixed(2),
			it.Invoice.TaxTotal.TaxAmount.StringFixed(2),
			it.Error,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetQueue, cell, &values); err != nil {
			return err
		}
		if it.Status == entity.QueueStatusFailed {
			errCell := fmt.Sprintf("K%d", row)
			if err := f.SetCellStyle(SheetQueue, errCell, errCell, errStyle); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
