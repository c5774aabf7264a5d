package zatca_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func buildTestInvoice() *entity.Invoice {
	lines := domainzatca.BuildLines([]domainzatca.LineInput{
		{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("500"), TaxRate: decimal.RequireFromString("0.15")},
		{Description: "Libro", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("40"), TaxRate: decimal.Zero},
	})
	tax := domainzatca.BuildTaxTotal(lines)
	return &entity.Invoice{
		ID:                   "INV-000007",
		UUID:                 "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
		CounterValue:         7,
		PreviousInvoiceHash:  zatca.GenesisPreviousHash,
		IssueDate:            "2024-01-15",
		IssueTime:            "10:30:00",
		InvoiceTypeCode:      zatca.InvoiceTypeTaxInvoice,
		InvoiceTypeName:      zatca.InvoiceSubtypeSimplified,
		DocumentCurrencyCode: "USD",
		TaxCurrencyCode:      zatca.CurrencySAR,
		Supplier: entity.Supplier{
			ID: "1", Scheme: zatca.SchemeCRN, Name: "Acme Trading", NameAr: "أكمي",
			VATNumber: "300000000000003", CRNumber: "1010010000",
			Address: entity.Address{Street: "King Fahd Rd", BuildingNumber: "1234", CityName: "Riyadh",
				PostalZone: "12345", CountrySubentity: "Riyadh", CountryCode: "SA"},
		},
		Lines:              lines,
		TaxTotal:           tax,
		LegalMonetaryTotal: domainzatca.BuildLegalMonetaryTotal(lines, tax),
		QRCode:             "AQxBY21lIFRyYWRpbmc=",
		Status:             entity.InvoiceStatusSigned,
	}
}

func parse(t *testing.T, b []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	return doc.Root()
}

func childTags(root *etree.Element) []string {
	var out []string
	for _, c := range root.ChildElements() {
		out = append(out, c.FullTag())
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Estructura
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerate_OrdenEstable(t *testing.T) {
	b, err := infrazatca.NewUBLBuilderService().Generate(buildTestInvoice())
	require.NoError(t, err)

	tags := childTags(parse(t, b))
	order := []string{
		"ext:UBLExtensions", "cbc:UBLVersionID", "cbc:CustomizationID", "cbc:ProfileID", "cbc:ID", "cbc:UUID",
		"cbc:IssueDate", "cbc:IssueTime", "cbc:InvoiceTypeCode", "cbc:DocumentCurrencyCode", "cbc:TaxCurrencyCode",
		"cac:AdditionalDocumentReference", "cac:AdditionalDocumentReference", "cac:AdditionalDocumentReference",
		"cac:AccountingSupplierParty", "cac:Delivery", "cac:PaymentMeans", "cac:TaxTotal",
		"cac:LegalMonetaryTotal", "cac:InvoiceLine", "cac:InvoiceLine",
	}
	assert.Equal(t, order, tags, "sin cliente ni sello no hay AccountingCustomerParty ni cac:Signature")
}

func TestGenerate_Metadatos(t *testing.T) {
	b, err := infrazatca.NewUBLBuilderService().Generate(buildTestInvoice())
	require.NoError(t, err)
	root := parse(t, b)

	assert.Equal(t, "2.1", root.FindElement("./cbc:UBLVersionID").Text())
	assert.Equal(t, "BR-KSA-12", root.FindElement("./cbc:CustomizationID").Text())
	itc := root.FindElement("./cbc:InvoiceTypeCode")
	assert.Equal(t, "388", itc.Text())
	assert.Equal(t, "0200000", itc.SelectAttrValue("name", ""))
	assert.Equal(t, "7", root.FindElement("./cac:AdditionalDocumentReference[cbc:ID='ICV']/cbc:UUID").Text())
	pih := root.FindElement("./cac:AdditionalDocumentReference[cbc:ID='PIH']/cac:Attachment/cbc:EmbeddedDocumentBinaryObject")
	require.NotNil(t, pih)
	assert.Equal(t, zatca.GenesisPreviousHash, pih.Text())
	assert.Equal(t, "text/plain", pih.SelectAttrValue("mimeCode", ""))
	assert.NotNil(t, root.FindElement("./cac:AdditionalDocumentReference[cbc:ID='QR']"))
}

func TestGenerate_MontosConDosDecimalesYMoneda(t *testing.T) {
	b, err := infrazatca.NewUBLBuilderService().Generate(buildTestInvoice())
	require.NoError(t, err)
	root := parse(t, b)

	total := root.FindElement("./cac:TaxTotal/cbc:TaxAmount")
	assert.Equal(t, "150.00", total.Text())
	assert.Equal(t, "SAR", total.SelectAttrValue("currencyID", ""), "los impuestos van en la moneda de impuestos")

	subs := root.FindElements("./cac:TaxTotal/cac:TaxSubtotal")
	require.Len(t, subs, 2, "un subtotal por categoría")
	assert.Equal(t, "USD", subs[0].FindElement("./cbc:TaxableAmount").SelectAttrValue("currencyID", ""),
		"las bases van en la moneda del documento")
	assert.Equal(t, "S", subs[0].FindElement("./cac:TaxCategory/cbc:ID").Text())
	assert.Equal(t, "Z", subs[1].FindElement("./cac:TaxCategory/cbc:ID").Text())

	incl := root.FindElement("./cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount")
	assert.Equal(t, "1190.00", incl.Text())
	assert.Equal(t, "USD", incl.SelectAttrValue("currencyID", ""))

	for _, e := range root.FindElements("//*[@currencyID]") {
		parts := strings.Split(e.Text(), ".")
		require.Len(t, parts, 2, e.FullTag())
		assert.Len(t, parts[1], 2, "%s debe tener 2 decimales", e.FullTag())
	}
}

func TestGenerate_ClienteOpcional(t *testing.T) {
	inv := buildTestInvoice()
	inv.Customer = &entity.Customer{VATNumber: "311111111111113"}

	b, err := infrazatca.NewUBLBuilderService().Generate(inv)
	require.NoError(t, err)
	root := parse(t, b)
	name := root.FindElement("./cac:AccountingCustomerParty/cac:Party/cac:PartyLegalEntity/cbc:RegistrationName")
	require.NotNil(t, name)
	assert.Equal(t, "End Customer", name.Text())
}

// ──────────────────────────────────────────────────────────────────────────────
// Firma
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerate_InyectaFirmaCuandoHaySello(t *testing.T) {
	inv := buildTestInvoice()
	inv.Stamp = &entity.CryptographicStamp{
		Signature: "c2lnbmF0dXJl",
		PublicKey: "cHVibGlj",
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	svc := infrazatca.NewUBLBuilderService()

	signed, err := svc.Generate(inv)
	require.NoError(t, err)
	root := parse(t, signed)

	sig := root.FindElement("./ext:UBLExtensions/ext:UBLExtension/ext:ExtensionContent/sig:UBLDocumentSignatures//ds:Signature")
	require.NotNil(t, sig, "ds:Signature debe ir dentro de ext:ExtensionContent")
	assert.NotNil(t, root.FindElement("./cac:Signature"))
	assert.Equal(t, "2024-01-15T10:30:00Z", sig.FindElement(".//xades:SigningTime").Text())

	unsigned, err := svc.Build(inv)
	require.NoError(t, err)
	digest, signature, pub, err := infrazatca.ExtractSignature(signed)
	require.NoError(t, err)
	assert.Equal(t, infrazatca.DocumentDigest(unsigned), digest, "el digest es del documento sin firma")
	assert.Equal(t, "c2lnbmF0dXJl", signature)
	assert.Equal(t, "cHVibGlj", pub)

	assert.True(t, svc.Validate(signed))
}

func TestDocumentDigest_Determinista(t *testing.T) {
	svc := infrazatca.NewUBLBuilderService()
	a, err := svc.Build(buildTestInvoice())
	require.NoError(t, err)
	b, err := svc.Build(buildTestInvoice())
	require.NoError(t, err)
	assert.Equal(t, infrazatca.DocumentDigest(a), infrazatca.DocumentDigest(b))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación estructural
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	svc := infrazatca.NewUBLBuilderService()
	b, err := svc.Generate(buildTestInvoice())
	require.NoError(t, err)
	assert.True(t, svc.Validate(b))

	assert.False(t, svc.Validate([]byte("<Invoice><<")), "XML mal formado")
	assert.False(t, svc.Validate([]byte(`<Otro/>`)), "raíz distinta de Invoice")
}

func TestMissingElements(t *testing.T) {
	inv := buildTestInvoice()
	inv.Lines = nil
	b, err := infrazatca.NewUBLBuilderService().Generate(inv)
	require.NoError(t, err)

	missing, err := infrazatca.MissingElements(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"cac:InvoiceLine"}, missing)
}
