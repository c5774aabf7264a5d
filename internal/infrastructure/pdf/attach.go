package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// EmbedXML adjunta el XML al PDF (estilo PDF/A-3: el documento legal viaja dentro del visual).
// pdfcpu adjunta desde archivos, por eso se usa un directorio temporal.
func EmbedXML(pdfBytes []byte, filename string, xmlBytes []byte) ([]byte, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	dir, err := os.MkdirTemp("", "zatca-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("pdf: crear directorio temporal: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, xmlBytes, 0o600); err != nil {
		return nil, fmt.Errorf("pdf: escribir adjunto: %w", err)
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.AddAttachments(bytes.NewReader(pdfBytes), &out, []string{path}, false, conf); err != nil {
		return nil, fmt.Errorf("pdf: adjuntar XML: %w", err)
	}
	return out.Bytes(), nil
}
