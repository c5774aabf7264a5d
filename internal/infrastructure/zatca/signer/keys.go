// Carga de llaves ECDSA desde PEM o PKCS#12.

package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// ParsePrivateKey decodifica una llave privada ECDSA en PEM ("EC PRIVATE KEY" o "PRIVATE KEY").
func ParsePrivateKey(privatePEM string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, fmt.Errorf("llave privada: no es PEM")
	}
	if k, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("llave privada: %w", err)
	}
	ec, ok := k.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("llave privada: se esperaba ECDSA, se recibió %T", k)
	}
	return ec, nil
}

// ParsePublicKey acepta "PUBLIC KEY", "CERTIFICATE" o el DER PKIX en Base64 (como va en ds:X509Certificate).
func ParsePublicKey(public string) (*ecdsa.PublicKey, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(public)); block != nil {
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("certificado: %w", err)
			}
			return asECDSA(cert.PublicKey)
		}
		der = block.Bytes
	} else {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(public))
		if err != nil {
			return nil, fmt.Errorf("llave pública: no es PEM ni Base64")
		}
		der = b
	}
	k, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("llave pública: %w", err)
	}
	return asECDSA(k)
}

func asECDSA(k any) (*ecdsa.PublicKey, error) {
	ec, ok := k.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("llave pública: se esperaba ECDSA, se recibió %T", k)
	}
	return ec, nil
}

// EncodeKeyPair serializa la llave en PEM: privada "EC PRIVATE KEY", pública "PUBLIC KEY".
func EncodeKeyPair(key *ecdsa.PrivateKey) (privatePEM, publicPEM string, err error) {
	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("serializar llave privada: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("serializar llave pública: %w", err)
	}
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privatePEM, publicPEM, nil
}

// GenerateKeyPair crea un par P-256 nuevo (desarrollo y pruebas).
func GenerateKeyPair() (privatePEM, publicPEM string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generar llave: %w", err)
	}
	return EncodeKeyPair(key)
}

// LoadFromPEM lee la llave privada y la pública (o certificado) desde archivos PEM.
func LoadFromPEM(privatePath, publicPath string) (privatePEM, publicPEM string, err error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return "", "", fmt.Errorf("leer llave privada: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return "", "", fmt.Errorf("leer llave pública: %w", err)
	}
	if _, err := ParsePrivateKey(string(priv)); err != nil {
		return "", "", err
	}
	return string(priv), string(pub), nil
}

// LoadFromP12 carga llave y certificado desde un .p12/.pfx. El password puede ser vacío.
func LoadFromP12(path, password string) (privatePEM, certPEM string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return "", "", fmt.Errorf("decodificar p12: %w", err)
	}
	ec, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return "", "", fmt.Errorf("p12: se esperaba llave ECDSA, se recibió %T", priv)
	}
	privatePEM, _, err = EncodeKeyPair(ec)
	if err != nil {
		return "", "", err
	}
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
	return privatePEM, certPEM, nil
}
