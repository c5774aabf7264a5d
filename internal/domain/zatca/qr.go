package zatca

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var (
	vatRegex       = regexp.MustCompile(`^\d{15}$`)
	timestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

// BuildQRFields toma los cinco datos del QR de la factura: vendedor, IVA, momento de emisión,
// total con IVA y total IVA.
func BuildQRFields(inv *entity.Invoice) zatca.QRFields {
	return zatca.QRFields{
		SellerName: inv.Supplier.Name,
		VATNumber:  inv.Supplier.VATNumber,
		Timestamp:  inv.IssueDate + "T" + inv.IssueTime + "Z",
		Total:      FormatAmount(inv.LegalMonetaryTotal.TaxInclusiveAmount),
		VATTotal:   FormatAmount(inv.TaxTotal.TaxAmount),
	}
}

// ValidateQRFields comprueba campos obligatorios, IVA de 15 dígitos, timestamp ISO-8601 UTC y montos no negativos.
func ValidateQRFields(f zatca.QRFields) error {
	if f.SellerName == "" || f.VATNumber == "" || f.Timestamp == "" {
		return fmt.Errorf("zatca: QR: vendedor, número de IVA y timestamp son obligatorios")
	}
	if !vatRegex.MatchString(f.VATNumber) {
		return fmt.Errorf("zatca: QR: número de IVA inválido %q", f.VATNumber)
	}
	if !timestampRegex.MatchString(f.Timestamp) {
		return fmt.Errorf("zatca: QR: timestamp inválido %q", f.Timestamp)
	}
	for _, v := range []string{f.Total, f.VATTotal} {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("zatca: QR: monto inválido %q", v)
		}
		if d.IsNegative() {
			return fmt.Errorf("zatca: QR: monto negativo %q", v)
		}
	}
	return nil
}

// BuildQR valida los campos y devuelve el payload Base64(TLV).
func BuildQR(inv *entity.Invoice) (string, error) {
	f := BuildQRFields(inv)
	if err := ValidateQRFields(f); err != nil {
		return "", err
	}
	return zatca.EncodeQR(f)
}
