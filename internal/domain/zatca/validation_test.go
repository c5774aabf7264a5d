package zatca_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
)

func TestCheckStructure(t *testing.T) {
	inv := buildTestInvoice()
	inv.QRCode = "AQ=="
	assert.Empty(t, domainzatca.CheckStructure(inv))

	inv.UUID = ""
	inv.Supplier.VATNumber = "12345"
	inv.Lines = nil
	inv.QRCode = ""
	assert.Len(t, domainzatca.CheckStructure(inv), 4)
}

func TestCheckMonetaryInvariants(t *testing.T) {
	inv := buildTestInvoice()
	assert.Empty(t, domainzatca.CheckMonetaryInvariants(inv))

	inv.LegalMonetaryTotal.TaxInclusiveAmount = dec("1150.01")
	errs := domainzatca.CheckMonetaryInvariants(inv)
	assert.Len(t, errs, 2, "se rompen inclusivo = base + IVA y pagable = inclusivo")
}
