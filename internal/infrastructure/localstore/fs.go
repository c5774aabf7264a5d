// Package localstore implementa los almacenes locales en disco (cola offline, estado de la
// cadena y facturas firmadas) sobre afero: un documento JSON por registro, escrito de forma
// atómica con archivo temporal + rename.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
)

const tmpPrefix = ".tmp-"

// writeJSONAtomic serializa v y reemplaza path en un solo rename; un lector nunca ve un archivo a medias.
func writeJSONAtomic(fs afero.Fs, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: serializar %s: %w", filepath.Base(path), err)
	}
	tmp, err := afero.TempFile(fs, filepath.Dir(path), tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("localstore: archivo temporal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("localstore: escribir %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("localstore: cerrar %s: %w", filepath.Base(path), err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("localstore: reemplazar %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSON devuelve false si el archivo no existe.
func readJSON(fs afero.Fs, path string, v any) (bool, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("localstore: leer %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("localstore: %s corrupto: %w", filepath.Base(path), err)
	}
	return true, nil
}

// recordPath valida que el ID sea un nombre de archivo simple.
func recordPath(dir, id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: id %q", domain.ErrInvalidInput, id)
	}
	return filepath.Join(dir, id+".json"), nil
}

// recordNames lista los IDs de los documentos del directorio, ignorando temporales.
func recordNames(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("localstore: listar %s: %w", dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
