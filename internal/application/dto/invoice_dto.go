package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// GenerateInvoiceRequest body para POST /api/invoices (factura simplificada B2C).
// Si Supplier va vacío se usan los datos del vendedor configurados.
type GenerateInvoiceRequest struct {
	Supplier *SupplierInput     `json:"supplier,omitempty"`
	Customer *CustomerInput     `json:"customer,omitempty"`
	Items    []InvoiceItemInput `json:"items"`
}

// SupplierInput datos del emisor.
type SupplierInput struct {
	ID        string       `json:"id,omitempty"` // por defecto "1"
	Name      string       `json:"name"`
	NameAr    string       `json:"nameAr,omitempty"` // por defecto Name
	VATNumber string       `json:"vatNumber"`
	CRNumber  string       `json:"crNumber"`
	Address   AddressInput `json:"address"`
}

// AddressInput dirección estructurada; CountryCode por defecto "SA".
type AddressInput struct {
	Street             string `json:"street"`
	AdditionalStreet   string `json:"additionalStreet,omitempty"`
	BuildingNumber     string `json:"buildingNumber"`
	PlotIdentification string `json:"plotIdentification,omitempty"`
	CitySubdivision    string `json:"citySubdivision,omitempty"`
	CityName           string `json:"cityName"`
	PostalZone         string `json:"postalZone"`
	CountrySubentity   string `json:"countrySubentity"`
	CountryCode        string `json:"countryCode,omitempty"`
}

// CustomerInput adquiriente (opcional en B2C).
type CustomerInput struct {
	Name      string        `json:"name"`
	VATNumber string        `json:"vatNumber,omitempty"`
	Address   *AddressInput `json:"address,omitempty"`
}

// InvoiceItemInput línea cruda: TaxRate es fracción (0.15 = 15 %).
type InvoiceItemInput struct {
	Description   string          `json:"description"`
	DescriptionAr string          `json:"descriptionAr,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxRate       decimal.Decimal `json:"taxRate"`
}

// QueuedInvoiceResponse respuesta de POST /api/invoices/:id/report|clear.
type QueuedInvoiceResponse struct {
	Invoice     *entity.Invoice `json:"invoice"`
	QueueItemID string          `json:"queueItemId"`
}
