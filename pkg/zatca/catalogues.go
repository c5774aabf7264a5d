// Package zatca contiene catálogos, codificación TLV del QR y validaciones alineados a la
// especificación de Factura Electrónica (Fatoora) de ZATCA (Arabia Saudita).
package zatca

// =============================================================================
// Tipos de documento (UNTDID 1001) y subtipos ZATCA (cbc:InvoiceTypeCode/@name)
// =============================================================================

const (
	InvoiceTypeTaxInvoice = "388" // Factura de impuestos
	InvoiceTypeDebitNote  = "383" // Nota débito
	InvoiceTypeCreditNote = "381" // Nota crédito

	// Subtipo NNPNESB: posiciones 1-2 = 01 estándar (B2B) / 02 simplificada (B2C).
	InvoiceSubtypeStandard   = "0100000"
	InvoiceSubtypeSimplified = "0200000"
)

// =============================================================================
// Monedas y esquemas
// =============================================================================

const (
	CurrencySAR        = "SAR"
	DefaultCountryCode = "SA"

	SchemeCRN = "CRN" // Registro comercial
	SchemeVAT = "VAT"
)

// =============================================================================
// Categorías de impuesto (UNCL 5305 subconjunto ZATCA)
// =============================================================================

const (
	TaxCategoryStandard = "S" // Tasa estándar (15 %)
	TaxCategoryZero     = "Z" // Tasa cero
	TaxCategoryExempt   = "E" // Exento
	TaxCategoryOutScope = "O" // Fuera del alcance del IVA
)

// =============================================================================
// Identificadores UBL / perfil ZATCA
// =============================================================================

const (
	UBLVersion      = "2.1"
	CustomizationID = "BR-KSA-12"
	ProfileID       = "reporting:1.0"

	// Referencias adicionales obligatorias.
	DocRefICV = "ICV" // Invoice Counter Value
	DocRefPIH = "PIH" // Previous Invoice Hash
	DocRefQR  = "QR"

	PaymentMeansCash = "10"
	UnitCodePiece    = "PCE"

	SignatureExtensionURI = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	SignatureInformationID = "urn:oasis:names:specification:ubl:signature:1"
	SignatureReferencedID  = "urn:oasis:names:specification:ubl:signature:Invoice"
)

// GenesisPreviousHash es el PIH del primer documento emitido por una unidad de generación
// (base64 del SHA-256 hex de "0"). Lo define ZATCA y no debe cambiar.
const GenesisPreviousHash = "NWZlY2ViNjZmZmM4NmYzOGQ5NTI3ODZjNmQ2OTZjNzljMmRiYzIzOWRkNGU5MWI0NjcyOWQ3M2EyN2ZiNTdlOQ=="

// Ambientes de la plataforma Fatoora.
const (
	EnvDev        = "dev" // local: no envía a ZATCA
	EnvSandbox    = "sandbox"
	EnvSimulation = "simulation"
	EnvProduction = "production"
)

// APIBaseURLs por ambiente (gateway Fatoora).
var APIBaseURLs = map[string]string{
	EnvSandbox:    "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal",
	EnvSimulation: "https://gw-fatoora.zatca.gov.sa/e-invoicing/simulation",
	EnvProduction: "https://gw-fatoora.zatca.gov.sa/e-invoicing/core",
}
