package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.ShiftRepository    = (*ShiftRepo)(nil)
)

// SupplierRepo directorio de proveedores.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// List devuelve los proveedores ordenados por nombre.
func (r *SupplierRepo) List(ctx context.Context) ([]*entity.Supplier, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Supplier
	for rows.Next() {
		var s entity.Supplier
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// ShiftRepo turnos de caja.
type ShiftRepo struct {
	q Querier
}

// NewShiftRepository construye el adaptador.
func NewShiftRepository(q Querier) *ShiftRepo {
	return &ShiftRepo{q: q}
}

// CurrentOpen turno abierto más reciente. nil, nil si no hay ninguno.
func (r *ShiftRepo) CurrentOpen(ctx context.Context) (*entity.Shift, error) {
	var s entity.Shift
	err := r.q.QueryRow(ctx, `
		SELECT id, opened_at, closed_at
		FROM cash_shifts WHERE closed_at IS NULL
		ORDER BY opened_at DESC LIMIT 1`).Scan(&s.ID, &s.OpenedAt, &s.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("current shift: %w", err)
	}
	return &s, nil
}
