package sync

import (
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
)

// resolve aplica última escritura gana: si la emisión local (issueDate + issueTime) es posterior a
// UpdatedAt del remoto, el remoto se sobrescribe (nil). Si no, devuelve el Conflict para revisión
// manual. Una fecha local ilegible cuenta como conflicto.
func resolve(item *entity.QueueItem, remote *entity.InvoiceRecord) *entity.Conflict {
	local, err := item.Invoice.IssuedAt()
	if err == nil && local.After(remote.UpdatedAt) {
		return nil
	}
	if err != nil {
		local = time.Time{}
	}
	return &entity.Conflict{
		ItemID:          item.ID,
		InvoiceID:       item.Invoice.ID,
		LocalTimestamp:  local,
		RemoteUpdatedAt: remote.UpdatedAt,
		Remote:          remote,
	}
}

// sameDocument indica si el remoto ya guarda esta misma factura (mismo UUID y hash canónico).
// Pasa cuando la escritura remota se confirmó pero su respuesta o la marca completed se perdieron.
func sameDocument(hasher *domainzatca.HasherService, local *entity.Invoice, remote *entity.InvoiceRecord) bool {
	if remote == nil || local.UUID == "" || remote.Invoice.UUID != local.UUID {
		return false
	}
	lh, err := hasher.Hash(local)
	if err != nil {
		return false
	}
	rh, err := hasher.Hash(&remote.Invoice)
	return err == nil && lh == rh
}
