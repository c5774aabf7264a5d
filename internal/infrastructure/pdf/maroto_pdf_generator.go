// Package pdf implementa la representación visual de la factura electrónica ZATCA
// (factura simplificada B2C) con el QR TLV impreso y, opcionalmente, el UBL firmado
// embebido como adjunto del PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Vendedor + N° IVA   │  N° Factura + Fecha/Hora     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VENDEDOR: Dirección / CR                                   │
//	│  COMPRADOR: Nombre + N° IVA (si existe)                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA% | IVA | Total     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base imponible / IVA / TOTAL CON IVA               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER ZATCA: QR + UUID + ICV + sello                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 108, Blue: 53}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa invoicing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF de la factura. Si ublXML no está vacío, se embebe
// como adjunto "<ID>.xml".
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	inv *entity.Invoice,
	ublXML []byte,
) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("pdf: la factura es obligatoria")
	}
	// TODO: registrar una fuente TTF árabe con config.WithCustomFonts para imprimir NameAr;
	// las fuentes core de gofpdf no tienen glifos árabes.
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Simplified Tax Invoice "+inv.ID, true).
		WithAuthor(inv.Supplier.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(sellerRow(&inv.Supplier))
	m.AddRows(buyerRow(inv.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(inv.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range zatcaFooterRows(inv) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	out := doc.GetBytes()
	if len(ublXML) == 0 {
		return out, nil
	}
	return EmbedXML(out, inv.ID+".xml", ublXML)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(inv *entity.Invoice) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(inv.Supplier.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("VAT: "+inv.Supplier.VATNumber, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("SIMPLIFIED TAX INVOICE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.ID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New(inv.IssueDate+" "+inv.IssueTime+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func sellerRow(sup *entity.Supplier) core.Row {
	a := sup.Address
	return row.New(12).Add(
		col.New(12).Add(
			text.New("VENDEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s %s, %s %s, %s   |   CR: %s",
				nonEmpty(a.BuildingNumber, ""), nonEmpty(a.Street, "—"),
				nonEmpty(a.CityName, "—"), a.PostalZone,
				nonEmpty(a.CountryCode, "SA"),
				nonEmpty(sup.CRNumber, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func buyerRow(c *entity.Customer) core.Row {
	name, vat := "Consumidor final", "—"
	if c != nil {
		name = nonEmpty(c.Name, name)
		vat = nonEmpty(c.VATNumber, vat)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("COMPRADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("VAT: "+vat, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("IVA", 2, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableLineRows(lines []entity.InvoiceLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(l.ItemName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.PriceAmount.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.TaxCategory.Percent.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.TaxAmount.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(l.RoundingAmount.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(inv *entity.Invoice) core.Row {
	cur := nonEmpty(inv.DocumentCurrencyCode, "SAR") + " "
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 14,
		})
	}

	m := inv.LegalMonetaryTotal
	return row.New(24).Add(
		col.New(6),
		col.New(3).Add(
			label("Total sin IVA:", 1),
			label("IVA:", 7),
			label("TOTAL CON IVA:", 14),
		),
		col.New(3).Add(
			value(cur+m.TaxExclusiveAmount.StringFixed(2), 1),
			value(cur+inv.TaxTotal.TaxAmount.StringFixed(2), 7),
			grand(cur+m.TaxInclusiveAmount.StringFixed(2)),
		),
	)
}

// zatcaFooterRows: QR TLV + identificadores de la cadena.
func zatcaFooterRows(inv *entity.Invoice) []core.Row {
	info := fmt.Sprintf("UUID: %s\nICV: %d", inv.UUID, inv.CounterValue)
	if inv.Stamp != nil {
		info += "\nSellado: " + inv.Stamp.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
	}

	if inv.QRCode == "" {
		return []core.Row{row.New(12).Add(col.New(12).Add(
			text.New(info, props.Text{Size: 7, Color: colorGray, Top: 2}),
		))}
	}
	return []core.Row{
		row.New(45).Add(
			col.New(4).Add(code.NewQr(inv.QRCode, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Escanee el código QR con la aplicación de ZATCA\npara validar esta factura.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New(info, props.Text{Size: 7, Top: 18, Left: 3, Color: colorGray}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
