package zatca

import "fmt"

const vatNumberLen = 15

// ValidateVATNumber valida el número de registro de IVA: exactamente 15 dígitos.
func ValidateVATNumber(vat string) error {
	if len(vat) != vatNumberLen {
		return fmt.Errorf("zatca: número de IVA debe tener %d dígitos, se recibieron %d", vatNumberLen, len(vat))
	}
	for i := 0; i < len(vat); i++ {
		if vat[i] < '0' || vat[i] > '9' {
			return fmt.Errorf("zatca: número de IVA contiene un carácter no numérico en la posición %d", i+1)
		}
	}
	return nil
}

// IsConventionalVATNumber indica si el número inicia y termina en 3, como los emite ZATCA.
// No es obligatorio para la validación estructural; se usa para advertencias.
func IsConventionalVATNumber(vat string) bool {
	return ValidateVATNumber(vat) == nil && vat[0] == '3' && vat[len(vat)-1] == '3'
}
