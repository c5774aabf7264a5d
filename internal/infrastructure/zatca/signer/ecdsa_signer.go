package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var _ zatca.SignerVerifier = (*ECDSASigner)(nil)

// ECDSASigner firma con ECDSA P-256 / SHA-256 (algoritmo exigido por ZATCA).
// Con rand nil la firma es determinista (RFC 6979): mismos datos y misma llave, misma firma.
type ECDSASigner struct{}

// NewECDSASigner crea el proveedor.
func NewECDSASigner() *ECDSASigner {
	return &ECDSASigner{}
}

func (s *ECDSASigner) Hash(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// Sign recibe la llave privada en PEM (EC o PKCS#8) y devuelve la firma ASN.1 en Base64.
func (s *ECDSASigner) Sign(data []byte, privateKey string) (string, error) {
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	digest, _ := s.Hash(data)
	sig, err := key.Sign(nil, digest, crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("firmar ECDSA: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify acepta la llave pública en PEM (PUBLIC KEY o CERTIFICATE) o DER en Base64.
func (s *ECDSASigner) Verify(data []byte, signature, publicKey string) (bool, error) {
	if signature == "" || publicKey == "" {
		return false, nil
	}
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	digest, _ := s.Hash(data)
	return ecdsa.VerifyASN1(pub, digest, sig), nil
}
