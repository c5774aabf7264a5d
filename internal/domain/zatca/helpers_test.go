package zatca_test

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

const (
	testUUID      = "3cf5ee18-ee25-44ea-a444-2c37ba7f28be"
	testVAT       = "300000000000003"
	testSeller    = "Acme Trading"
	testIssueDate = "2024-01-15"
	testIssueTime = "10:30:00"
)

// fakeSigner firma como sha256(datos + llave) y verifica recalculando.
type fakeSigner struct {
	signErr error
}

var _ zatca.SignerVerifier = (*fakeSigner)(nil)

func (f *fakeSigner) Hash(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func (f *fakeSigner) Sign(data []byte, privateKey string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	sum := sha256.Sum256(append(append([]byte{}, data...), privateKey...))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (f *fakeSigner) Verify(data []byte, signature, publicKey string) (bool, error) {
	// la "llave pública" del fake es la misma privada
	want, err := f.Sign(data, publicKey)
	if err != nil {
		return false, err
	}
	return want == signature, nil
}

var errHSM = errors.New("hsm no disponible")

// buildTestInvoice arma la factura del ejemplo de referencia: 2 × 500.00 al 15 %.
func buildTestInvoice() *entity.Invoice {
	lines := domainzatca.BuildLines([]domainzatca.LineInput{{
		Description: "Consulting",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.RequireFromString("500.00"),
		TaxRate:     decimal.RequireFromString("0.15"),
	}})
	tax := domainzatca.BuildTaxTotal(lines)
	return &entity.Invoice{
		ID:                   "INV-000001",
		UUID:                 testUUID,
		CounterValue:         1,
		PreviousInvoiceHash:  zatca.GenesisPreviousHash,
		IssueDate:            testIssueDate,
		IssueTime:            testIssueTime,
		InvoiceTypeCode:      zatca.InvoiceTypeTaxInvoice,
		InvoiceTypeName:      zatca.InvoiceSubtypeSimplified,
		DocumentCurrencyCode: zatca.CurrencySAR,
		TaxCurrencyCode:      zatca.CurrencySAR,
		Supplier: entity.Supplier{
			ID: "1", Scheme: zatca.SchemeCRN, Name: testSeller, NameAr: testSeller,
			VATNumber: testVAT, CRNumber: "1010010000",
			Address: entity.Address{Street: "King Fahd Rd", BuildingNumber: "1234", CityName: "Riyadh",
				PostalZone: "12345", CountrySubentity: "Riyadh", CountryCode: "SA"},
		},
		Lines:              lines,
		TaxTotal:           tax,
		LegalMonetaryTotal: domainzatca.BuildLegalMonetaryTotal(lines, tax),
		Status:             entity.InvoiceStatusDraft,
	}
}
