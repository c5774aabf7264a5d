package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.RemoteInvoiceRepository = (*RemoteInvoiceRepo)(nil)

// RemoteInvoiceRepo es el almacén remoto de facturas: payload JSONB + columnas indexadas,
// versión y auditoría en la misma transacción.
type RemoteInvoiceRepo struct {
	db DB
	tx *TxRunner
}

// NewRemoteInvoiceRepository construye el adaptador sobre el pool.
func NewRemoteInvoiceRepository(db DB) *RemoteInvoiceRepo {
	return &RemoteInvoiceRepo{db: db, tx: NewTxRunner(db)}
}

// Ping comprueba conectividad con la base.
func (r *RemoteInvoiceRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOffline, err)
	}
	return nil
}

// GetByID devuelve nil, nil si la factura no existe.
func (r *RemoteInvoiceRepo) GetByID(ctx context.Context, invoiceID string) (*entity.InvoiceRecord, error) {
	query := `
		SELECT payload, created_at, updated_at, version, sync_status, synced_at
		FROM zatca_invoices WHERE id = $1`
	var (
		payload []byte
		rec     entity.InvoiceRecord
	)
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&payload, &rec.CreatedAt, &rec.UpdatedAt, &rec.Version, &rec.SyncStatus, &rec.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get remote invoice: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.Invoice); err != nil {
		return nil, fmt.Errorf("decode remote invoice %s: %w", invoiceID, err)
	}
	return &rec, nil
}

// Create inserta la factura y su entrada de auditoría.
func (r *RemoteInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	issuedAt, payload, err := encodeInvoice(inv)
	if err != nil {
		return err
	}
	return r.tx.Run(ctx, func(q Querier) error {
		query := `
			INSERT INTO zatca_invoices (id, uuid, counter_value, issue_date, issue_time, invoice_type_code,
			                            supplier_vat, tax_inclusive_amount, tax_amount, status, payload,
			                            version, sync_status, synced_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, now(), now(), now())`
		_, err := q.Exec(ctx, query,
			inv.ID, inv.UUID, inv.CounterValue, issuedAt, inv.IssueTime, inv.InvoiceTypeCode,
			inv.Supplier.VATNumber, inv.LegalMonetaryTotal.TaxInclusiveAmount, inv.TaxTotal.TaxAmount,
			inv.Status, payload, entity.SyncStatusSynced,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: factura %s ya existe en el almacén remoto", domain.ErrDuplicate, inv.ID)
			}
			return fmt.Errorf("insert remote invoice: %w", err)
		}
		return insertAudit(ctx, q, inv.ID, entity.AuditActionCreate, map[string]any{
			"action": "Invoice created",
			"status": inv.Status,
		})
	})
}

// Update reemplaza el payload, incrementa la versión y audita el cambio de estado.
func (r *RemoteInvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	_, payload, err := encodeInvoice(inv)
	if err != nil {
		return err
	}
	return r.tx.Run(ctx, func(q Querier) error {
		query := `
			UPDATE zatca_invoices
			SET payload     = $2,
			    status      = $3,
			    version     = version + 1,
			    sync_status = $4,
			    synced_at   = now(),
			    updated_at  = now()
			WHERE id = $1`
		tag, err := q.Exec(ctx, query, inv.ID, payload, inv.Status, entity.SyncStatusSynced)
		if err != nil {
			return fmt.Errorf("update remote invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, inv.ID)
		}
		return insertAudit(ctx, q, inv.ID, entity.AuditActionUpdate, map[string]any{
			"action":     "Invoice updated",
			"status":     inv.Status,
			"reportedAt": inv.ReportedAt,
			"clearedAt":  inv.ClearedAt,
		})
	})
}

// AuditLogs devuelve la auditoría de una factura, más reciente primero.
func (r *RemoteInvoiceRepo) AuditLogs(ctx context.Context, invoiceID string) ([]entity.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, action, timestamp, details
		FROM zatca_audit_logs WHERE invoice_id = $1
		ORDER BY timestamp DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []entity.AuditLog
	for rows.Next() {
		var (
			a  entity.AuditLog
			id uuid.UUID
		)
		if err := rows.Scan(&id, &a.InvoiceID, &a.Action, &a.Timestamp, &a.Details); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		a.ID = id.String()
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertAudit(ctx context.Context, q Querier, invoiceID, action string, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO zatca_audit_logs (id, invoice_id, action, timestamp, details)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), invoiceID, action, time.Now().UTC(), raw,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func encodeInvoice(inv *entity.Invoice) (time.Time, []byte, error) {
	issuedAt, err := inv.IssuedAt()
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: fecha de emisión de %s: %v", domain.ErrInvalidInput, inv.ID, err)
	}
	payload, err := json.Marshal(inv)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("encode invoice %s: %w", inv.ID, err)
	}
	return issuedAt, payload, nil
}
