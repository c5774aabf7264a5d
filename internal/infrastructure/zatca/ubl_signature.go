// Inyección del bloque de firma UBL (sig:UBLDocumentSignatures / ds:Signature) en ext:ExtensionContent.

package zatca

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/pem"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// Algoritmos XMLDSig usados por ZATCA.
const (
	AlgC14N11      = "http://www.w3.org/2006/12/xml-c14n11"
	AlgECDSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	AlgSHA256      = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgXPath       = "http://www.w3.org/TR/1999/REC-xpath-19991116"
)

// DocumentDigest devuelve SHA-256 (Base64) de la forma canónica C14N del documento sin firma.
// Si la canonicalización falla se usa el documento tal cual.
func DocumentDigest(unsigned []byte) string {
	canonical, err := canonicalizeXML(unsigned)
	if err != nil {
		canonical = unsigned
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// keyInfoValue quita la armadura PEM de la llave pública, si la tiene.
func keyInfoValue(publicKey string) string {
	if block, _ := pem.Decode([]byte(publicKey)); block != nil {
		return base64.StdEncoding.EncodeToString(block.Bytes)
	}
	return strings.TrimSpace(publicKey)
}

// buildSignatureElement arma sig:UBLDocumentSignatures con el ds:Signature del sello.
func buildSignatureElement(digestB64 string, stamp *entity.CryptographicStamp) *etree.Element {
	docSigs := etree.NewElement("sig:UBLDocumentSignatures")
	docSigs.CreateAttr("xmlns:sig", NsSig)
	docSigs.CreateAttr("xmlns:sac", NsSac)
	docSigs.CreateAttr("xmlns:sbc", NsSbc)

	info := docSigs.CreateElement("sac:SignatureInformation")
	info.CreateElement("cbc:ID").SetText(zatca.SignatureInformationID)
	info.CreateElement("sbc:ReferencedSignatureID").SetText(zatca.SignatureReferencedID)

	sig := info.CreateElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", NsDs)
	sig.CreateAttr("Id", "signature")

	si := sig.CreateElement("ds:SignedInfo")
	si.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgC14N11)
	si.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", AlgECDSASHA256)
	ref := si.CreateElement("ds:Reference")
	ref.CreateAttr("Id", "invoiceSignedData")
	ref.CreateAttr("URI", "")
	transforms := ref.CreateElement("ds:Transforms")
	xp := transforms.CreateElement("ds:Transform")
	xp.CreateAttr("Algorithm", AlgXPath)
	xp.CreateElement("ds:XPath").SetText("not(//ancestor-or-self::ext:UBLExtensions)")
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", AlgC14N11)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ref.CreateElement("ds:DigestValue").SetText(digestB64)

	sig.CreateElement("ds:SignatureValue").SetText(stamp.Signature)
	sig.CreateElement("ds:KeyInfo").CreateElement("ds:X509Data").
		CreateElement("ds:X509Certificate").SetText(keyInfoValue(stamp.PublicKey))

	qp := sig.CreateElement("ds:Object").CreateElement("xades:QualifyingProperties")
	qp.CreateAttr("xmlns:xades", NsXades)
	qp.CreateAttr("Target", "signature")
	sp := qp.CreateElement("xades:SignedProperties")
	sp.CreateAttr("Id", "xadesSignedProperties")
	sp.CreateElement("xades:SignedSignatureProperties").
		CreateElement("xades:SigningTime").SetText(stamp.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	return docSigs
}

// injectSignature calcula el digest del documento sin firma e inyecta el bloque en el
// ext:ExtensionContent de ext:UBLExtensions (primer hijo de Invoice).
func injectSignature(unsigned []byte, stamp *entity.CryptographicStamp) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(unsigned); err != nil {
		return nil, fmt.Errorf("zatca: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("zatca: documento sin raíz")
	}
	content := root.FindElement("./ext:UBLExtensions/ext:UBLExtension/ext:ExtensionContent")
	if content == nil {
		return nil, fmt.Errorf("zatca: no se encontró ext:ExtensionContent para inyectar la firma")
	}
	content.AddChild(buildSignatureElement(DocumentDigest(unsigned), stamp))

	doc.Indent(2)
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("zatca: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

// ExtractSignature devuelve DigestValue, SignatureValue y la llave del bloque ds:Signature (verificación).
func ExtractSignature(signed []byte) (digest, signature, publicKey string, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signed); err != nil {
		return "", "", "", fmt.Errorf("zatca: parsear XML: %w", err)
	}
	sig := doc.FindElement("//ds:Signature")
	if sig == nil {
		return "", "", "", fmt.Errorf("zatca: el documento no tiene ds:Signature")
	}
	if e := sig.FindElement(".//ds:DigestValue"); e != nil {
		digest = e.Text()
	}
	if e := sig.FindElement("./ds:SignatureValue"); e != nil {
		signature = e.Text()
	}
	if e := sig.FindElement(".//ds:X509Certificate"); e != nil {
		publicKey = e.Text()
	}
	return digest, signature, publicKey, nil
}
