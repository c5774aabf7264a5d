package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.QueueRepository = (*QueueRepo)(nil)

// QueueRepo es la cola offline en la tabla zatca_offline_queue.
// Cada transición bloquea la fila con SELECT … FOR UPDATE.
type QueueRepo struct {
	db DB
	tx *TxRunner
}

func NewQueueRepository(db DB) *QueueRepo {
	return &QueueRepo{db: db, tx: NewTxRunner(db)}
}

const queueColumns = `id, operation, status, attempts, invoice, created_at, last_attempt_at, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(s scanner) (*entity.QueueItem, error) {
	var (
		item    entity.QueueItem
		payload []byte
		errMsg  *string
	)
	if err := s.Scan(&item.ID, &item.Operation, &item.Status, &item.Attempts, &payload,
		&item.CreatedAt, &item.LastAttemptAt, &errMsg); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Invoice); err != nil {
		return nil, fmt.Errorf("decode queue item %s: %w", item.ID, err)
	}
	item.Error = derefStr(errMsg)
	return &item, nil
}

func (r *QueueRepo) Create(ctx context.Context, item *entity.QueueItem) error {
	payload, err := json.Marshal(item.Invoice)
	if err != nil {
		return fmt.Errorf("encode queue item %s: %w", item.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO zatca_offline_queue (`+queueColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Operation, item.Status, item.Attempts, payload,
		item.CreatedAt, item.LastAttemptAt, nullIfEmpty(item.Error),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ítem %s", domain.ErrDuplicate, item.ID)
		}
		return fmt.Errorf("insert queue item: %w", err)
	}
	return nil
}

func (r *QueueRepo) Get(ctx context.Context, id string) (*entity.QueueItem, error) {
	item, err := scanQueueItem(r.db.QueryRow(ctx,
		`SELECT `+queueColumns+` FROM zatca_offline_queue WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

func (r *QueueRepo) List(ctx context.Context) ([]*entity.QueueItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+queueColumns+` FROM zatca_offline_queue ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var items []*entity.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *QueueRepo) Update(ctx context.Context, id string, fn func(item *entity.QueueItem) error) (*entity.QueueItem, error) {
	var updated *entity.QueueItem
	err := r.tx.Run(ctx, func(q Querier) error {
		item, err := scanQueueItem(q.QueryRow(ctx,
			`SELECT `+queueColumns+` FROM zatca_offline_queue WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
			}
			return fmt.Errorf("lock queue item: %w", err)
		}
		if err := fn(item); err != nil {
			return err
		}
		payload, err := json.Marshal(item.Invoice)
		if err != nil {
			return fmt.Errorf("encode queue item %s: %w", id, err)
		}
		_, err = q.Exec(ctx, `
			UPDATE zatca_offline_queue
			SET status = $2, attempts = $3, invoice = $4, last_attempt_at = $5, error = $6
			WHERE id = $1`,
			id, item.Status, item.Attempts, payload, item.LastAttemptAt, nullIfEmpty(item.Error),
		)
		if err != nil {
			return fmt.Errorf("update queue item: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *QueueRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM zatca_offline_queue WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	return nil
}
