package zatca

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var hundred = decimal.NewFromInt(100)

// LineInput es una línea cruda tal como la captura el punto de venta.
type LineInput struct {
	Description   string
	DescriptionAr string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TaxRate       decimal.Decimal // fracción: 0.15 = 15 %
}

// FormatAmount formatea montos: sin separador de miles, punto decimal, 2 decimales (ej: 1150.00).
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// ValidateLineInputs exige al menos una línea, cantidad positiva, precio no negativo y tasa en [0, 1].
func ValidateLineInputs(items []LineInput) error {
	if len(items) == 0 {
		return fmt.Errorf("la factura debe tener al menos una línea")
	}
	for i, it := range items {
		n := i + 1
		if it.Description == "" {
			return fmt.Errorf("línea %d: la descripción es obligatoria", n)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("línea %d: la cantidad debe ser mayor que cero", n)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("línea %d: el precio no puede ser negativo", n)
		}
		if it.TaxRate.IsNegative() || it.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("línea %d: la tasa de IVA debe estar entre 0 y 1", n)
		}
	}
	return nil
}

// TaxCategoryFor devuelve S (estándar) si la tasa es mayor que cero y Z (tasa cero) si no.
func TaxCategoryFor(rate decimal.Decimal) entity.TaxCategory {
	id := zatca.TaxCategoryStandard
	if rate.IsZero() {
		id = zatca.TaxCategoryZero
	}
	return entity.TaxCategory{ID: id, Percent: rate.Mul(hundred).Round(2), TaxScheme: zatca.SchemeVAT}
}

// BuildLines calcula extensión (cantidad × precio) e IVA de cada línea, ambos redondeados a 2 decimales.
func BuildLines(items []LineInput) []entity.InvoiceLine {
	lines := make([]entity.InvoiceLine, 0, len(items))
	for i, it := range items {
		ext := it.Quantity.Mul(it.UnitPrice).Round(2)
		tax := ext.Mul(it.TaxRate).Round(2)
		nameAr := it.DescriptionAr
		if nameAr == "" {
			nameAr = it.Description
		}
		lines = append(lines, entity.InvoiceLine{
			ID:                  strconv.Itoa(i + 1),
			Quantity:            it.Quantity,
			UnitCode:            zatca.UnitCodePiece,
			LineExtensionAmount: ext,
			ItemName:            it.Description,
			ItemNameAr:          nameAr,
			TaxCategory:         TaxCategoryFor(it.TaxRate),
			PriceAmount:         it.UnitPrice,
			BaseQuantity:        decimal.NewFromInt(1),
			TaxAmount:           tax,
			RoundingAmount:      ext.Add(tax),
		})
	}
	return lines
}

// BuildTaxTotal agrupa por (categoría, porcentaje) en orden de primera aparición.
func BuildTaxTotal(lines []entity.InvoiceLine) entity.TaxTotal {
	var total entity.TaxTotal
	index := map[string]int{}
	for _, l := range lines {
		key := l.TaxCategory.ID + "|" + l.TaxCategory.Percent.String()
		i, ok := index[key]
		if !ok {
			i = len(total.Subtotals)
			index[key] = i
			total.Subtotals = append(total.Subtotals, entity.TaxSubtotal{
				TaxableAmount: decimal.Zero,
				TaxAmount:     decimal.Zero,
				Category:      l.TaxCategory,
			})
		}
		st := &total.Subtotals[i]
		st.TaxableAmount = st.TaxableAmount.Add(l.LineExtensionAmount)
		st.TaxAmount = st.TaxAmount.Add(l.TaxAmount)
	}
	total.TaxAmount = decimal.Zero
	for _, st := range total.Subtotals {
		total.TaxAmount = total.TaxAmount.Add(st.TaxAmount)
	}
	return total
}

// BuildLegalMonetaryTotal calcula los totales sin anticipos ni descuentos globales.
func BuildLegalMonetaryTotal(lines []entity.InvoiceLine, tax entity.TaxTotal) entity.LegalMonetaryTotal {
	ext := decimal.Zero
	for _, l := range lines {
		ext = ext.Add(l.LineExtensionAmount)
	}
	inclusive := ext.Add(tax.TaxAmount)
	return entity.LegalMonetaryTotal{
		LineExtensionAmount:  ext,
		TaxExclusiveAmount:   ext,
		TaxInclusiveAmount:   inclusive,
		AllowanceTotalAmount: decimal.Zero,
		PrepaidAmount:        decimal.Zero,
		PayableAmount:        inclusive,
	}
}
