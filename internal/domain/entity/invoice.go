package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de la factura: draft → signed → reported | cleared.
const (
	InvoiceStatusDraft    = "draft"
	InvoiceStatusSigned   = "signed"
	InvoiceStatusReported = "reported" // simplificada (B2C), reportada a ZATCA
	InvoiceStatusCleared  = "cleared"  // estándar (B2B), autorizada por ZATCA
)

// Address es la dirección estructurada que exige el UBL saudí.
type Address struct {
	Street             string `json:"street"`
	AdditionalStreet   string `json:"additionalStreet,omitempty"`
	BuildingNumber     string `json:"buildingNumber"`
	PlotIdentification string `json:"plotIdentification,omitempty"`
	CitySubdivision    string `json:"citySubdivision,omitempty"`
	CityName           string `json:"cityName"`
	PostalZone         string `json:"postalZone"`
	CountrySubentity   string `json:"countrySubentity"`
	CountryCode        string `json:"countryCode"`
}

// Supplier es el emisor (vendedor) de la factura.
type Supplier struct {
	ID        string  `json:"id"`
	Scheme    string  `json:"scheme"` // CRN
	Name      string  `json:"name"`
	NameAr    string  `json:"nameAr"`
	VATNumber string  `json:"vatNumber"`
	CRNumber  string  `json:"crNumber"`
	Address   Address `json:"address"`
}

// Customer es el adquiriente; mínimo en B2C.
type Customer struct {
	Name      string   `json:"name"`
	VATNumber string   `json:"vatNumber,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

// TaxCategory identifica la categoría de IVA (S, Z, E, O) y su porcentaje.
type TaxCategory struct {
	ID        string          `json:"id"`
	Percent   decimal.Decimal `json:"percent"`
	TaxScheme string          `json:"taxScheme"`
}

// InvoiceLine es una línea de la factura con sus montos ya calculados.
type InvoiceLine struct {
	ID                  string          `json:"id"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitCode            string          `json:"unitCode"`
	LineExtensionAmount decimal.Decimal `json:"lineExtensionAmount"` // cantidad × precio
	ItemName            string          `json:"itemName"`
	ItemNameAr          string          `json:"itemNameAr"`
	TaxCategory         TaxCategory     `json:"taxCategory"`
	PriceAmount         decimal.Decimal `json:"priceAmount"`
	BaseQuantity        decimal.Decimal `json:"baseQuantity"`
	TaxAmount           decimal.Decimal `json:"taxAmount"`
	RoundingAmount      decimal.Decimal `json:"roundingAmount"` // extensión + IVA de la línea
}

// TaxSubtotal agrupa base e impuesto por (categoría, porcentaje).
type TaxSubtotal struct {
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Category      TaxCategory     `json:"taxCategory"`
}

// TaxTotal es el IVA total con un subtotal por categoría distinta.
type TaxTotal struct {
	TaxAmount decimal.Decimal `json:"taxAmount"`
	Subtotals []TaxSubtotal   `json:"taxSubtotals"`
}

// LegalMonetaryTotal contiene los totales legales del documento.
// Invariantes: TaxInclusive = TaxExclusive + TaxTotal.TaxAmount;
// Payable = TaxInclusive − Prepaid − AllowanceTotal.
type LegalMonetaryTotal struct {
	LineExtensionAmount  decimal.Decimal `json:"lineExtensionAmount"`
	TaxExclusiveAmount   decimal.Decimal `json:"taxExclusiveAmount"`
	TaxInclusiveAmount   decimal.Decimal `json:"taxInclusiveAmount"`
	AllowanceTotalAmount decimal.Decimal `json:"allowanceTotalAmount"`
	PrepaidAmount        decimal.Decimal `json:"prepaidAmount"`
	PayableAmount        decimal.Decimal `json:"payableAmount"`
}

// CryptographicStamp es el sello de la factura: firma, llave pública y momento de firma.
type CryptographicStamp struct {
	Signature string    `json:"signature"`
	PublicKey string    `json:"publicKey"`
	Timestamp time.Time `json:"timestamp"`
}

// Invoice representa una factura electrónica ZATCA.
// Stamp y QRCode se asignan una sola vez, en la transición draft → signed.
type Invoice struct {
	ID                   string              `json:"id"` // INV-000001
	UUID                 string              `json:"uuid"`
	CounterValue         int64               `json:"invoiceCounterValue"`
	PreviousInvoiceHash  string              `json:"previousInvoiceHash"`
	IssueDate            string              `json:"issueDate"` // YYYY-MM-DD
	IssueTime            string              `json:"issueTime"` // HH:MM:SS (UTC)
	InvoiceTypeCode      string              `json:"invoiceTypeCode"`
	InvoiceTypeName      string              `json:"invoiceTypeName"`
	DocumentCurrencyCode string              `json:"documentCurrencyCode"`
	TaxCurrencyCode      string              `json:"taxCurrencyCode"`
	Supplier             Supplier            `json:"supplier"`
	Customer             *Customer           `json:"customer,omitempty"`
	Lines                []InvoiceLine       `json:"invoiceLines"`
	TaxTotal             TaxTotal            `json:"taxTotal"`
	LegalMonetaryTotal   LegalMonetaryTotal  `json:"legalMonetaryTotal"`
	Stamp                *CryptographicStamp `json:"cryptographicStamp,omitempty"`
	QRCode               string              `json:"qrCode,omitempty"`
	Status               string              `json:"status"`
	ReportedAt           *time.Time          `json:"reportedAt,omitempty"`
	ClearedAt            *time.Time          `json:"clearedAt,omitempty"`
}

// IssuedAt combina fecha y hora de emisión (UTC).
func (inv *Invoice) IssuedAt() (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05Z", inv.IssueDate+"T"+inv.IssueTime+"Z")
}

// Clone devuelve una copia profunda; la cola guarda instantáneas, no referencias.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	if inv.Customer != nil {
		cu := *inv.Customer
		if inv.Customer.Address != nil {
			a := *inv.Customer.Address
			cu.Address = &a
		}
		c.Customer = &cu
	}
	c.Lines = append([]InvoiceLine(nil), inv.Lines...)
	c.TaxTotal.Subtotals = append([]TaxSubtotal(nil), inv.TaxTotal.Subtotals...)
	if inv.Stamp != nil {
		s := *inv.Stamp
		c.Stamp = &s
	}
	if inv.ReportedAt != nil {
		t := *inv.ReportedAt
		c.ReportedAt = &t
	}
	if inv.ClearedAt != nil {
		t := *inv.ClearedAt
		c.ClearedAt = &t
	}
	return &c
}
