// Package signer contiene las implementaciones del proveedor criptográfico (pkg/zatca.SignerVerifier).
package signer

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var _ zatca.SignerVerifier = (*HashSigner)(nil)

// HashSigner es el proveedor de referencia: firma = Base64(SHA-256(datos + llave)).
// Verify solo comprueba que firma y llave no estén vacías; no usar en producción.
type HashSigner struct{}

// NewHashSigner crea el proveedor.
func NewHashSigner() *HashSigner {
	return &HashSigner{}
}

func (s *HashSigner) Hash(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func (s *HashSigner) Sign(data []byte, privateKey string) (string, error) {
	buf := make([]byte, 0, len(data)+len(privateKey))
	buf = append(buf, data...)
	buf = append(buf, privateKey...)
	sum := sha256.Sum256(buf)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (s *HashSigner) Verify(_ []byte, signature, publicKey string) (bool, error) {
	return signature != "" && publicKey != "", nil
}
