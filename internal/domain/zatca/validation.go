package zatca

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// CheckStructure devuelve los errores estructurales de la factura: identidad, IVA, líneas y QR.
// La verificación del sello y del UBL la hace la capa de aplicación.
func CheckStructure(inv *entity.Invoice) []string {
	var errs []string
	if inv.ID == "" || inv.UUID == "" {
		errs = append(errs, "falta el ID o el UUID de la factura")
	}
	if err := zatca.ValidateVATNumber(inv.Supplier.VATNumber); err != nil {
		errs = append(errs, "número de IVA del vendedor inválido")
	}
	if len(inv.Lines) == 0 {
		errs = append(errs, "la factura no tiene líneas")
	}
	if inv.QRCode == "" {
		errs = append(errs, "falta el código QR")
	}
	return errs
}

// CheckMonetaryInvariants comprueba los totales con aritmética decimal exacta:
// inclusivo = exclusivo + IVA, pagable = inclusivo − anticipos − descuentos,
// e IVA total = suma de los subtotales.
func CheckMonetaryInvariants(inv *entity.Invoice) []string {
	var errs []string
	t := inv.LegalMonetaryTotal

	if want := t.TaxExclusiveAmount.Add(inv.TaxTotal.TaxAmount); !t.TaxInclusiveAmount.Equal(want) {
		errs = append(errs, fmt.Sprintf("total con IVA (%s) no coincide con base + IVA (%s)",
			FormatAmount(t.TaxInclusiveAmount), FormatAmount(want)))
	}
	if want := t.TaxInclusiveAmount.Sub(t.PrepaidAmount).Sub(t.AllowanceTotalAmount); !t.PayableAmount.Equal(want) {
		errs = append(errs, fmt.Sprintf("total a pagar (%s) no coincide con total con IVA − anticipos − descuentos (%s)",
			FormatAmount(t.PayableAmount), FormatAmount(want)))
	}
	sum := decimal.Zero
	for _, st := range inv.TaxTotal.Subtotals {
		sum = sum.Add(st.TaxAmount)
	}
	if !sum.Equal(inv.TaxTotal.TaxAmount) {
		errs = append(errs, fmt.Sprintf("IVA total (%s) no coincide con la suma de subtotales (%s)",
			FormatAmount(inv.TaxTotal.TaxAmount), FormatAmount(sum)))
	}
	return errs
}
