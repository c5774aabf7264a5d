// Package zatca: interfaz del proveedor criptográfico para el sello de facturas.

package zatca

// SignerVerifier abstrae el proveedor criptográfico (llave en memoria, HSM o KMS).
// Las implementaciones deben ser deterministas: mismos datos y misma llave, misma firma.
type SignerVerifier interface {
	// Hash calcula el digest de los datos.
	Hash(data []byte) ([]byte, error)
	// Sign firma los datos con el material de llave privada y devuelve la firma en Base64.
	Sign(data []byte, privateKey string) (string, error)
	// Verify comprueba la firma con el material de llave pública.
	Verify(data []byte, signature, publicKey string) (bool, error)
}
