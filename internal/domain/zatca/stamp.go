package zatca

import (
	"errors"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// StamperService firma la cadena canónica de la factura con un SignerVerifier intercambiable.
type StamperService struct {
	signer zatca.SignerVerifier
	hasher *HasherService
	now    func() time.Time
}

// NewStamperService crea el servicio. El reloj por defecto es time.Now.
func NewStamperService(signer zatca.SignerVerifier, hasher *HasherService) *StamperService {
	return &StamperService{signer: signer, hasher: hasher, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (s *StamperService) WithClock(now func() time.Time) *StamperService {
	s.now = now
	return s
}

// Sign firma la cadena canónica. Mismos datos y misma llave producen la misma firma.
func (s *StamperService) Sign(inv *entity.Invoice, privateKey string) (string, error) {
	if privateKey == "" {
		return "", domain.NewCryptoError("sign", errors.New("llave privada vacía"))
	}
	canonical, err := s.hasher.Canonicalize(inv)
	if err != nil {
		return "", domain.NewCryptoError("canonicalize", err)
	}
	sig, err := s.signer.Sign([]byte(canonical), privateKey)
	if err != nil {
		return "", domain.NewCryptoError("sign", err)
	}
	if sig == "" {
		return "", domain.NewCryptoError("sign", errors.New("el proveedor devolvió una firma vacía"))
	}
	return sig, nil
}

// Stamp agrupa firma, llave pública y momento de firma. Nunca devuelve un sello parcial.
func (s *StamperService) Stamp(inv *entity.Invoice, privateKey, publicKey string) (*entity.CryptographicStamp, error) {
	if publicKey == "" {
		return nil, domain.NewCryptoError("stamp", errors.New("llave pública vacía"))
	}
	sig, err := s.Sign(inv, privateKey)
	if err != nil {
		return nil, err
	}
	return &entity.CryptographicStamp{
		Signature: sig,
		PublicKey: publicKey,
		Timestamp: s.now().UTC().Truncate(time.Second),
	}, nil
}

// Verify devuelve false si la firma o la llave están vacías o si el proveedor no la verifica.
func (s *StamperService) Verify(inv *entity.Invoice, signature, publicKey string) bool {
	if signature == "" || publicKey == "" {
		return false
	}
	canonical, err := s.hasher.Canonicalize(inv)
	if err != nil {
		return false
	}
	ok, err := s.signer.Verify([]byte(canonical), signature, publicKey)
	return err == nil && ok
}

// VerifyStamp verifica el sello que trae la propia factura.
func (s *StamperService) VerifyStamp(inv *entity.Invoice) bool {
	if inv == nil || inv.Stamp == nil {
		return false
	}
	return s.Verify(inv, inv.Stamp.Signature, inv.Stamp.PublicKey)
}
