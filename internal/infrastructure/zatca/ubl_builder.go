package zatca

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// Namespaces oficiales UBL 2.1 y extensiones de firma (guía de implementación ZATCA).
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// Firma UBL (contenedor de ds:Signature)
	NsSig = "urn:oasis:names:specification:ubl:schema:xsd:CommonSignatureComponents-2"
	NsSac = "urn:oasis:names:specification:ubl:schema:xsd:SignatureAggregateComponents-2"
	NsSbc = "urn:oasis:names:specification:ubl:schema:xsd:SignatureBasicComponents-2"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
)

// UBLBuilderService construye el XML UBL 2.1 de la factura ZATCA.
// Los elementos se escriben con prefijo (cbc:, cac:, ext:) y los namespaces se declaran en la raíz.
type UBLBuilderService struct{}

// NewUBLBuilderService crea el servicio.
func NewUBLBuilderService() *UBLBuilderService {
	return &UBLBuilderService{}
}

// Generate devuelve el documento Invoice. Si la factura está sellada, inyecta la firma en ext:ExtensionContent.
func (s *UBLBuilderService) Generate(inv *entity.Invoice) ([]byte, error) {
	unsigned, err := s.Build(inv)
	if err != nil {
		return nil, err
	}
	if inv.Stamp == nil {
		return unsigned, nil
	}
	return injectSignature(unsigned, inv.Stamp)
}

// Build genera el XML sin el nodo ds:Signature (ExtensionContent vacío).
func (s *UBLBuilderService) Build(inv *entity.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("zatca: la factura es obligatoria")
	}
	docCur, taxCur := currencies(inv)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- ext:UBLExtensions siempre como primer hijo de Invoice; la firma se inyecta después.
	start(enc, "ext:UBLExtensions")
	start(enc, "ext:UBLExtension")
	writeElem(enc, "ext:ExtensionURI", zatca.SignatureExtensionURI)
	start(enc, "ext:ExtensionContent")
	end(enc, "ext:ExtensionContent")
	end(enc, "ext:UBLExtension")
	end(enc, "ext:UBLExtensions")

	// ---- metadatos
	writeCbc(enc, "UBLVersionID", zatca.UBLVersion)
	writeCbc(enc, "CustomizationID", zatca.CustomizationID)
	writeCbc(enc, "ProfileID", zatca.ProfileID)
	writeCbc(enc, "ID", inv.ID)
	writeCbc(enc, "UUID", inv.UUID)
	writeCbc(enc, "IssueDate", inv.IssueDate)
	writeCbc(enc, "IssueTime", inv.IssueTime)
	typeName := inv.InvoiceTypeName
	if typeName == "" {
		typeName = zatca.InvoiceSubtypeSimplified
	}
	writeCbcWithAttr(enc, "InvoiceTypeCode", inv.InvoiceTypeCode, "name", typeName)
	writeCbc(enc, "DocumentCurrencyCode", docCur)
	writeCbc(enc, "TaxCurrencyCode", taxCur)

	// ---- ICV, PIH y QR como cac:AdditionalDocumentReference
	start(enc, "cac:AdditionalDocumentReference")
	writeCbc(enc, "ID", zatca.DocRefICV)
	writeCbc(enc, "UUID", strconv.FormatInt(inv.CounterValue, 10))
	end(enc, "cac:AdditionalDocumentReference")
	writeAttachmentRef(enc, zatca.DocRefPIH, inv.PreviousInvoiceHash)
	if inv.QRCode != "" {
		writeAttachmentRef(enc, zatca.DocRefQR, inv.QRCode)
	}

	// ---- cac:Signature (solo factura sellada)
	if inv.Stamp != nil {
		start(enc, "cac:Signature")
		writeCbc(enc, "ID", zatca.SignatureReferencedID)
		writeCbc(enc, "SignatureMethod", zatca.SignatureExtensionURI)
		end(enc, "cac:Signature")
	}

	s.writeSupplierParty(enc, &inv.Supplier)
	if inv.Customer != nil {
		s.writeCustomerParty(enc, inv.Customer)
	}

	// ---- cac:Delivery
	start(enc, "cac:Delivery")
	writeCbc(enc, "ActualDeliveryDate", inv.IssueDate)
	writeCbc(enc, "LatestDeliveryDate", inv.IssueDate)
	end(enc, "cac:Delivery")

	// ---- cac:PaymentMeans (contado)
	start(enc, "cac:PaymentMeans")
	writeCbc(enc, "PaymentMeansCode", zatca.PaymentMeansCash)
	writeCbc(enc, "InstructionNote", "Cash")
	end(enc, "cac:PaymentMeans")

	s.writeTaxTotal(enc, &inv.TaxTotal, docCur, taxCur)
	s.writeLegalMonetaryTotal(enc, &inv.LegalMonetaryTotal, docCur)
	for i := range inv.Lines {
		s.writeInvoiceLine(enc, &inv.Lines[i], docCur, taxCur)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func currencies(inv *entity.Invoice) (doc, tax string) {
	doc, tax = inv.DocumentCurrencyCode, inv.TaxCurrencyCode
	if doc == "" {
		doc = zatca.CurrencySAR
	}
	if tax == "" {
		tax = doc
	}
	return doc, tax
}

func (s *UBLBuilderService) writeSupplierParty(enc *xml.Encoder, sup *entity.Supplier) {
	start(enc, "cac:AccountingSupplierParty")
	start(enc, "cac:Party")

	scheme := sup.Scheme
	if scheme == "" {
		scheme = zatca.SchemeCRN
	}
	start(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", sup.ID, "schemeID", scheme)
	end(enc, "cac:PartyIdentification")

	writeAddress(enc, &sup.Address, true)

	start(enc, "cac:PartyTaxScheme")
	writeCbc(enc, "CompanyID", sup.VATNumber)
	writeTaxScheme(enc, zatca.SchemeVAT)
	end(enc, "cac:PartyTaxScheme")

	start(enc, "cac:PartyLegalEntity")
	writeCbc(enc, "RegistrationName", sup.Name)
	if sup.CRNumber != "" {
		writeCbc(enc, "CompanyID", sup.CRNumber)
	}
	end(enc, "cac:PartyLegalEntity")

	end(enc, "cac:Party")
	end(enc, "cac:AccountingSupplierParty")
}

func (s *UBLBuilderService) writeCustomerParty(enc *xml.Encoder, cus *entity.Customer) {
	start(enc, "cac:AccountingCustomerParty")
	start(enc, "cac:Party")
	if cus.Address != nil {
		writeAddress(enc, cus.Address, false)
	}
	if cus.VATNumber != "" {
		start(enc, "cac:PartyTaxScheme")
		writeCbc(enc, "CompanyID", cus.VATNumber)
		writeTaxScheme(enc, zatca.SchemeVAT)
		end(enc, "cac:PartyTaxScheme")
	}
	name := cus.Name
	if name == "" {
		name = "End Customer"
	}
	start(enc, "cac:PartyLegalEntity")
	writeCbc(enc, "RegistrationName", name)
	end(enc, "cac:PartyLegalEntity")
	end(enc, "cac:Party")
	end(enc, "cac:AccountingCustomerParty")
}

// writeAddress escribe cac:PostalAddress. El comprador (full=false) solo lleva calle, ciudad y país.
func writeAddress(enc *xml.Encoder, a *entity.Address, full bool) {
	country := a.CountryCode
	if country == "" {
		country = zatca.DefaultCountryCode
	}
	start(enc, "cac:PostalAddress")
	writeCbc(enc, "StreetName", a.Street)
	if full {
		if a.AdditionalStreet != "" {
			writeCbc(enc, "AdditionalStreetName", a.AdditionalStreet)
		}
		writeCbc(enc, "BuildingNumber", a.BuildingNumber)
		if a.PlotIdentification != "" {
			writeCbc(enc, "PlotIdentification", a.PlotIdentification)
		}
		writeCbc(enc, "CitySubdivisionName", a.CitySubdivision)
	}
	writeCbc(enc, "CityName", a.CityName)
	if full {
		writeCbc(enc, "PostalZone", a.PostalZone)
		writeCbc(enc, "CountrySubentity", a.CountrySubentity)
	}
	start(enc, "cac:Country")
	writeCbc(enc, "IdentificationCode", country)
	end(enc, "cac:Country")
	end(enc, "cac:PostalAddress")
}

func (s *UBLBuilderService) writeTaxTotal(enc *xml.Encoder, t *entity.TaxTotal, docCur, taxCur string) {
	start(enc, "cac:TaxTotal")
	writeCbcAmount(enc, "TaxAmount", t.TaxAmount, taxCur)
	for i := range t.Subtotals {
		st := &t.Subtotals[i]
		start(enc, "cac:TaxSubtotal")
		writeCbcAmount(enc, "TaxableAmount", st.TaxableAmount, docCur)
		writeCbcAmount(enc, "TaxAmount", st.TaxAmount, taxCur)
		writeTaxCategory(enc, "cac:TaxCategory", &st.Category)
		end(enc, "cac:TaxSubtotal")
	}
	end(enc, "cac:TaxTotal")
}

func (s *UBLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, m *entity.LegalMonetaryTotal, cur string) {
	start(enc, "cac:LegalMonetaryTotal")
	writeCbcAmount(enc, "LineExtensionAmount", m.LineExtensionAmount, cur)
	writeCbcAmount(enc, "TaxExclusiveAmount", m.TaxExclusiveAmount, cur)
	writeCbcAmount(enc, "TaxInclusiveAmount", m.TaxInclusiveAmount, cur)
	if !m.AllowanceTotalAmount.IsZero() {
		writeCbcAmount(enc, "AllowanceTotalAmount", m.AllowanceTotalAmount, cur)
	}
	if !m.PrepaidAmount.IsZero() {
		writeCbcAmount(enc, "PrepaidAmount", m.PrepaidAmount, cur)
	}
	writeCbcAmount(enc, "PayableAmount", m.PayableAmount, cur)
	end(enc, "cac:LegalMonetaryTotal")
}

func (s *UBLBuilderService) writeInvoiceLine(enc *xml.Encoder, l *entity.InvoiceLine, docCur, taxCur string) {
	unitCode := l.UnitCode
	if unitCode == "" {
		unitCode = zatca.UnitCodePiece
	}
	start(enc, "cac:InvoiceLine")
	writeCbc(enc, "ID", l.ID)
	writeCbcWithAttr(enc, "InvoicedQuantity", l.Quantity.String(), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", l.LineExtensionAmount, docCur)

	start(enc, "cac:TaxTotal")
	writeCbcAmount(enc, "TaxAmount", l.TaxAmount, taxCur)
	writeCbcAmount(enc, "RoundingAmount", l.RoundingAmount, docCur)
	end(enc, "cac:TaxTotal")

	start(enc, "cac:Item")
	writeCbc(enc, "Name", l.ItemName)
	writeTaxCategory(enc, "cac:ClassifiedTaxCategory", &l.TaxCategory)
	end(enc, "cac:Item")

	start(enc, "cac:Price")
	writeCbcAmount(enc, "PriceAmount", l.PriceAmount, docCur)
	base := l.BaseQuantity
	if base.IsZero() {
		base = decimal.NewFromInt(1)
	}
	writeCbcWithAttr(enc, "BaseQuantity", base.String(), "unitCode", unitCode)
	end(enc, "cac:Price")

	end(enc, "cac:InvoiceLine")
}

func writeTaxCategory(enc *xml.Encoder, name string, c *entity.TaxCategory) {
	start(enc, name)
	writeCbc(enc, "ID", c.ID)
	writeCbc(enc, "Percent", formatDecimal(c.Percent))
	scheme := c.TaxScheme
	if scheme == "" {
		scheme = zatca.SchemeVAT
	}
	writeTaxScheme(enc, scheme)
	end(enc, name)
}

func writeTaxScheme(enc *xml.Encoder, id string) {
	start(enc, "cac:TaxScheme")
	writeCbc(enc, "ID", id)
	end(enc, "cac:TaxScheme")
}

// writeAttachmentRef escribe una referencia con el valor embebido como text/plain (PIH, QR).
func writeAttachmentRef(enc *xml.Encoder, id, value string) {
	start(enc, "cac:AdditionalDocumentReference")
	writeCbc(enc, "ID", id)
	start(enc, "cac:Attachment")
	writeCbcWithAttr(enc, "EmbeddedDocumentBinaryObject", value, "mimeCode", "text/plain")
	end(enc, "cac:Attachment")
	end(enc, "cac:AdditionalDocumentReference")
}

func start(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func end(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeElem(enc *xml.Encoder, name, value string) {
	start(enc, name)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, name)
}

func writeCbc(enc *xml.Encoder, local, value string) {
	writeElem(enc, "cbc:"+local, value)
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	name := "cbc:" + local
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, name)
}

// writeCbcAmount escribe el monto con 2 decimales y su currencyID.
func writeCbcAmount(enc *xml.Encoder, local string, d decimal.Decimal, currency string) {
	writeCbcWithAttr(enc, local, formatDecimal(d), "currencyID", currency)
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
