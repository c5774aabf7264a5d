package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.ChainStateRepository = (*ChainStateRepo)(nil)

// ChainStateRepo guarda el estado de la cadena en una única fila (id = 1).
type ChainStateRepo struct {
	q Querier
}

func NewChainStateRepository(q Querier) *ChainStateRepo {
	return &ChainStateRepo{q: q}
}

func (r *ChainStateRepo) Load(ctx context.Context) (*entity.ChainState, error) {
	var st entity.ChainState
	err := r.q.QueryRow(ctx,
		`SELECT invoice_counter, previous_hash FROM zatca_chain_state WHERE id = 1`,
	).Scan(&st.InvoiceCounter, &st.PreviousHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load chain state: %w", err)
	}
	return &st, nil
}

// Save es un upsert de una sola sentencia: contador y hash cambian juntos.
func (r *ChainStateRepo) Save(ctx context.Context, state entity.ChainState) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO zatca_chain_state (id, invoice_counter, previous_hash, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET invoice_counter = EXCLUDED.invoice_counter,
		    previous_hash   = EXCLUDED.previous_hash,
		    updated_at      = now()`,
		state.InvoiceCounter, state.PreviousHash,
	)
	if err != nil {
		return fmt.Errorf("save chain state: %w", err)
	}
	return nil
}
