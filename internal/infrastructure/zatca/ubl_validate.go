package zatca

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// requiredPaths son los elementos estructurales obligatorios (hijos directos de Invoice).
var requiredPaths = []string{
	"ext:UBLExtensions",
	"cbc:UBLVersionID",
	"cbc:CustomizationID",
	"cbc:ProfileID",
	"cbc:ID",
	"cbc:UUID",
	"cbc:IssueDate",
	"cbc:IssueTime",
	"cbc:InvoiceTypeCode",
	"cbc:DocumentCurrencyCode",
	"cbc:TaxCurrencyCode",
	"cac:AdditionalDocumentReference[cbc:ID='" + zatca.DocRefICV + "']",
	"cac:AdditionalDocumentReference[cbc:ID='" + zatca.DocRefPIH + "']",
	"cac:AccountingSupplierParty",
	"cac:Delivery",
	"cac:PaymentMeans",
	"cac:TaxTotal",
	"cac:LegalMonetaryTotal",
	"cac:InvoiceLine",
}

// MissingElements devuelve los elementos obligatorios ausentes. Error si el XML no está bien formado.
// Es una comprobación estructural, no una validación contra el XSD.
func MissingElements(xmlBytes []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("zatca: XML mal formado: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Invoice" {
		return nil, fmt.Errorf("zatca: la raíz del documento debe ser Invoice")
	}
	var missing []string
	for _, p := range requiredPaths {
		if root.FindElement("./"+p) == nil {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// Validate indica si el XML está bien formado y contiene todos los elementos obligatorios.
func (s *UBLBuilderService) Validate(xmlBytes []byte) bool {
	missing, err := MissingElements(xmlBytes)
	return err == nil && len(missing) == 0
}
