package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrSyncInProgress    = errors.New("ya hay una sincronización en curso")
	ErrOffline           = errors.New("el almacén remoto no está disponible")
	ErrChainBroken       = errors.New("cadena de hashes rota")
	ErrRejected          = errors.New("factura rechazada por ZATCA")
)

// CryptoError envuelve un fallo de hash o firma. La factura no se considera firmada.
type CryptoError struct {
	Op    string
	Cause error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("cripto: %s: %v", e.Op, e.Cause)
}

func (e *CryptoError) Unwrap() error { return e.Cause }

// NewCryptoError crea un CryptoError.
func NewCryptoError(op string, cause error) *CryptoError {
	return &CryptoError{Op: op, Cause: cause}
}

// ChainStateError indica que el contador y el hash previo no pudieron persistirse.
// El contador no avanza.
type ChainStateError struct {
	Op    string
	Cause error
}

func (e *ChainStateError) Error() string {
	return fmt.Sprintf("estado de cadena: %s: %v", e.Op, e.Cause)
}

func (e *ChainStateError) Unwrap() error { return e.Cause }

// NewChainStateError crea un ChainStateError.
func NewChainStateError(op string, cause error) *ChainStateError {
	return &ChainStateError{Op: op, Cause: cause}
}

// SyncError es el fallo de entrega de un ítem de la cola; se agrega al resultado y el lote continúa.
type SyncError struct {
	ItemID    string
	InvoiceID string
	Cause     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s (factura %s): %v", e.ItemID, e.InvoiceID, e.Cause)
}

func (e *SyncError) Unwrap() error { return e.Cause }

// NewSyncError crea un SyncError.
func NewSyncError(itemID, invoiceID string, cause error) *SyncError {
	return &SyncError{ItemID: itemID, InvoiceID: invoiceID, Cause: cause}
}
