package postgres

import (
	"context"
	"fmt"
)

// schemaStatements es idempotente: se ejecuta en cada arranque.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS zatca_invoices (
		id                   TEXT PRIMARY KEY,
		uuid                 TEXT NOT NULL UNIQUE,
		counter_value        BIGINT NOT NULL,
		issue_date           DATE NOT NULL,
		issue_time           TEXT NOT NULL,
		invoice_type_code    TEXT NOT NULL,
		supplier_vat         TEXT NOT NULL,
		tax_inclusive_amount NUMERIC(18,2) NOT NULL,
		tax_amount           NUMERIC(18,2) NOT NULL,
		status               TEXT NOT NULL,
		payload              JSONB NOT NULL,
		version              INT NOT NULL DEFAULT 1,
		sync_status          TEXT NOT NULL DEFAULT 'pending',
		synced_at            TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_zatca_invoices_issue_date ON zatca_invoices (issue_date)`,
	`CREATE INDEX IF NOT EXISTS idx_zatca_invoices_status ON zatca_invoices (status)`,
	`CREATE TABLE IF NOT EXISTS zatca_audit_logs (
		id         UUID PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES zatca_invoices (id),
		action     TEXT NOT NULL,
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
		details    JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_zatca_audit_logs_invoice ON zatca_audit_logs (invoice_id)`,
	`CREATE TABLE IF NOT EXISTS zatca_chain_state (
		id              SMALLINT PRIMARY KEY CHECK (id = 1),
		invoice_counter BIGINT NOT NULL,
		previous_hash   TEXT NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS zatca_offline_queue (
		id              TEXT PRIMARY KEY,
		operation       TEXT NOT NULL,
		status          TEXT NOT NULL,
		attempts        INT NOT NULL DEFAULT 0,
		invoice         JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		last_attempt_at TIMESTAMPTZ,
		error           TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_zatca_offline_queue_status ON zatca_offline_queue (status, created_at)`,
}

// EnsureSchema crea tablas e índices si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
