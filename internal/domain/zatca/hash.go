// Package zatca contiene los servicios de dominio de la facturación electrónica ZATCA (Arabia Saudita):
// cadena canónica y hash de la factura, sello criptográfico, QR, totales y validaciones estructurales.
package zatca

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// canonicalSeparator separa los campos de la cadena canónica.
const canonicalSeparator = "|"

// HasherService construye la cadena canónica de la factura y su hash.
// El orden y el formato de los campos son parte del protocolo: cambiarlos rompe todas las cadenas emitidas.
type HasherService struct{}

// NewHasherService crea el servicio.
func NewHasherService() *HasherService {
	return &HasherService{}
}

// Canonicalize concatena con "|", en orden estricto:
// UUID + IssueDate + IssueTime + VAT del vendedor + nombre del vendedor +
// total con IVA (2 decimales) + total IVA (2 decimales) + contador + hash previo.
func (s *HasherService) Canonicalize(inv *entity.Invoice) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("zatca: la factura es obligatoria")
	}
	if inv.UUID == "" {
		return "", fmt.Errorf("zatca: UUID es obligatorio para la cadena canónica")
	}
	parts := []string{
		inv.UUID,
		inv.IssueDate,
		inv.IssueTime,
		inv.Supplier.VATNumber,
		inv.Supplier.Name,
		FormatAmount(inv.LegalMonetaryTotal.TaxInclusiveAmount),
		FormatAmount(inv.TaxTotal.TaxAmount),
		strconv.FormatInt(inv.CounterValue, 10),
		inv.PreviousInvoiceHash,
	}
	return strings.Join(parts, canonicalSeparator), nil
}

// Hash devuelve el SHA-256 (hex en minúsculas) de la cadena canónica en UTF-8.
func (s *HasherService) Hash(inv *entity.Invoice) (string, error) {
	canonical, err := s.Canonicalize(inv)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

// HashChain devuelve SHA-256(previousHash + "|" + currentHash) en hex.
func (s *HasherService) HashChain(currentHash, previousHash string) string {
	sum := sha256.Sum256([]byte(previousHash + canonicalSeparator + currentHash))
	return hex.EncodeToString(sum[:])
}

// VerifyChain comprueba que los contadores sean consecutivos y que cada factura enlace el hash de la anterior.
// Si la primera factura es la número 1, su hash previo debe ser genesis.
func (s *HasherService) VerifyChain(invoices []*entity.Invoice, genesis string) error {
	if len(invoices) == 0 {
		return nil
	}
	sorted := make([]*entity.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CounterValue < sorted[j].CounterValue })

	if first := sorted[0]; first.CounterValue == 1 && first.PreviousInvoiceHash != genesis {
		return fmt.Errorf("%w: la factura %s no enlaza el hash génesis", domain.ErrChainBroken, first.ID)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.CounterValue != prev.CounterValue+1 {
			return fmt.Errorf("%w: salto de contador entre %d y %d (posición %d)", domain.ErrChainBroken, prev.CounterValue, cur.CounterValue, i)
		}
		h, err := s.Hash(prev)
		if err != nil {
			return fmt.Errorf("hash de %s: %w", prev.ID, err)
		}
		if cur.PreviousInvoiceHash != h {
			return fmt.Errorf("%w: la factura %s (posición %d) no enlaza el hash de %s", domain.ErrChainBroken, cur.ID, i, prev.ID)
		}
	}
	return nil
}
