package zatca

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Tags TLV del QR fase 1 (orden fijo exigido por ZATCA).
const (
	TagSellerName byte = 1
	TagVATNumber  byte = 2
	TagTimestamp  byte = 3
	TagTotal      byte = 4
	TagVATTotal   byte = 5
)

// maxTLVValueLen es el máximo que cabe en el byte de longitud.
const maxTLVValueLen = 255

// QRFields son los cinco datos del QR en el orden de sus tags.
type QRFields struct {
	SellerName string
	VATNumber  string
	Timestamp  string // ISO-8601, ej: 2024-01-15T10:30:00Z
	Total      string // total con IVA, 2 decimales
	VATTotal   string // total IVA, 2 decimales
}

// EncodingError se produce cuando un campo no puede representarse en TLV.
type EncodingError struct {
	Tag    byte
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("zatca: TLV: %s", e.Reason)
	}
	return fmt.Sprintf("zatca: TLV tag %d: %s", e.Tag, e.Reason)
}

// NewEncodingError crea un EncodingError.
func NewEncodingError(tag byte, reason string) *EncodingError {
	return &EncodingError{Tag: tag, Reason: reason}
}

func (f QRFields) values() []string {
	return []string{f.SellerName, f.VATNumber, f.Timestamp, f.Total, f.VATTotal}
}

// EncodeTLV concatena tag(1 byte) + longitud(1 byte) + valor UTF-8 para los tags 1..5.
// Nunca trunca: un valor de más de 255 bytes devuelve *EncodingError.
func EncodeTLV(f QRFields) ([]byte, error) {
	out := make([]byte, 0, 128)
	for i, v := range f.values() {
		tag := byte(i + 1)
		if !utf8.ValidString(v) {
			return nil, NewEncodingError(tag, "valor no es UTF-8 válido")
		}
		b := []byte(norm.NFC.String(v))
		if len(b) > maxTLVValueLen {
			return nil, NewEncodingError(tag, fmt.Sprintf("valor de %d bytes excede el máximo de %d", len(b), maxTLVValueLen))
		}
		out = append(out, tag, byte(len(b)))
		out = append(out, b...)
	}
	return out, nil
}

// ToBase64 codifica el TLV en Base64 estándar (con padding).
func ToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// EncodeQR devuelve el payload del QR listo para el lector: Base64(TLV).
func EncodeQR(f QRFields) (string, error) {
	b, err := EncodeTLV(f)
	if err != nil {
		return "", err
	}
	return ToBase64(b), nil
}

// DecodeTLV es la operación inversa de EncodeTLV. Los tags desconocidos (> 5, fase 2) se ignoran.
func DecodeTLV(b []byte) (QRFields, error) {
	var f QRFields
	for i := 0; i < len(b); {
		if i+2 > len(b) {
			return QRFields{}, NewEncodingError(0, fmt.Sprintf("trama truncada en el offset %d", i))
		}
		tag, l := b[i], int(b[i+1])
		i += 2
		if i+l > len(b) {
			return QRFields{}, NewEncodingError(tag, fmt.Sprintf("longitud %d excede los datos disponibles", l))
		}
		v := string(b[i : i+l])
		i += l
		if !utf8.ValidString(v) {
			return QRFields{}, NewEncodingError(tag, "valor no es UTF-8 válido")
		}
		switch tag {
		case TagSellerName:
			f.SellerName = v
		case TagVATNumber:
			f.VATNumber = v
		case TagTimestamp:
			f.Timestamp = v
		case TagTotal:
			f.Total = v
		case TagVATTotal:
			f.VATTotal = v
		}
	}
	return f, nil
}

// DecodeQR decodifica el Base64 y luego el TLV.
func DecodeQR(s string) (QRFields, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return QRFields{}, NewEncodingError(0, fmt.Sprintf("base64 inválido: %v", err))
	}
	return DecodeTLV(b)
}
