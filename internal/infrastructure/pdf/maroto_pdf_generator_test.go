package pdf_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/pdf"
)

func buildTestInvoice() *entity.Invoice {
	lines := domainzatca.BuildLines([]domainzatca.LineInput{
		{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("500"), TaxRate: decimal.RequireFromString("0.15")},
	})
	tax := domainzatca.BuildTaxTotal(lines)
	return &entity.Invoice{
		ID:           "INV-000001",
		UUID:         "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
		CounterValue: 1,
		IssueDate:    "2024-01-15",
		IssueTime:    "10:30:00",
		Supplier: entity.Supplier{
			Name: "Acme Trading", VATNumber: "300000000000003",
			Address: entity.Address{Street: "King Fahd Rd", CityName: "Riyadh", CountryCode: "SA"},
		},
		Lines:              lines,
		TaxTotal:           tax,
		LegalMonetaryTotal: domainzatca.BuildLegalMonetaryTotal(lines, tax),
		QRCode:             "AQxBY21lIFRyYWRpbmc=",
	}
}

func TestGenerateInvoicePDF(t *testing.T) {
	out, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), buildTestInvoice(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "la salida debe ser un PDF")
}

func TestGenerateInvoicePDF_SinQR(t *testing.T) {
	inv := buildTestInvoice()
	inv.QRCode = ""
	out, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), inv, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateInvoicePDF_EmbebeUBL(t *testing.T) {
	out, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), buildTestInvoice(), []byte("<Invoice/>"))
	require.NoError(t, err)

	atts, err := api.Attachments(bytes.NewReader(out), nil)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "INV-000001.xml", atts[0].ID)
}

func TestGenerateInvoicePDF_FacturaNil(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), nil, nil)
	assert.Error(t, err)
}
