package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryBalanceRepository = (*InventoryBalanceRepo)(nil)

var balanceCopyColumns = []string{"warehouse_id", "item_id", "item_name", "unit", "quantity", "last_cost", "updated_at"}

// InventoryBalanceRepo implementación de InventoryBalanceRepository sobre PostgreSQL (usable con pool o tx).
type InventoryBalanceRepo struct {
	q Querier
}

// NewInventoryBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewInventoryBalanceRepository(q Querier) *InventoryBalanceRepo {
	return &InventoryBalanceRepo{q: q}
}

// Adjust suma el delta con un upsert incremental: nunca lee-modifica-escribe en Go.
func (r *InventoryBalanceRepo) Adjust(ctx context.Context, d entity.BalanceDelta) error {
	query := `
		INSERT INTO inventory_balances (warehouse_id, item_id, item_name, unit, quantity, last_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::numeric, 0), now())
		ON CONFLICT (warehouse_id, item_id) DO UPDATE SET
			quantity   = inventory_balances.quantity + EXCLUDED.quantity,
			last_cost  = COALESCE($6::numeric, inventory_balances.last_cost),
			item_name  = COALESCE(NULLIF($3, ''), inventory_balances.item_name),
			unit       = COALESCE(NULLIF($4, ''), inventory_balances.unit),
			updated_at = now()`
	_, err := r.q.Exec(ctx, query, d.Key.WarehouseID, d.Key.ItemID, d.ItemName, d.Unit, d.Qty, d.LastCost)
	if err != nil {
		return fmt.Errorf("adjust balance %s/%s: %w", d.Key.WarehouseID, d.Key.ItemID, err)
	}
	return nil
}

// GetForUpdate crea la fila en 0 si falta y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *InventoryBalanceRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.InventoryBalance, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_balances (warehouse_id, item_id, quantity, last_cost, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (warehouse_id, item_id) DO NOTHING`, key.WarehouseID, key.ItemID)
	if err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}
	query := `
		SELECT warehouse_id, item_id, item_name, unit, quantity, last_cost, updated_at
		FROM inventory_balances WHERE warehouse_id = $1 AND item_id = $2
		FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.WarehouseID, key.ItemID))
	if err != nil {
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return b, nil
}

// List ordena por bodega y nombre de insumo. warehouseID vacío = todas.
func (r *InventoryBalanceRepo) List(ctx context.Context, warehouseID entity.WarehouseID) ([]*entity.InventoryBalance, error) {
	query := `
		SELECT warehouse_id, item_id, item_name, unit, quantity, last_cost, updated_at
		FROM inventory_balances
		WHERE ($1 = '' OR warehouse_id = $1)
		ORDER BY warehouse_id, item_name, item_id`
	rows, err := r.q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// DeleteAll vacía la tabla de saldos.
func (r *InventoryBalanceRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_balances`); err != nil {
		return fmt.Errorf("delete balances: %w", err)
	}
	return nil
}

// InsertAll carga los saldos recalculados con COPY.
func (r *InventoryBalanceRepo) InsertAll(ctx context.Context, balances []*entity.InventoryBalance) error {
	if len(balances) == 0 {
		return nil
	}
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"inventory_balances"}, balanceCopyColumns,
		pgx.CopyFromSlice(len(balances), func(i int) ([]any, error) {
			return balanceCopyRow(balances[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy balances: %w", err)
	}
	if n != int64(len(balances)) {
		return fmt.Errorf("copy balances: se esperaban %d filas, se copiaron %d", len(balances), n)
	}
	return nil
}

func balanceCopyRow(b *entity.InventoryBalance) []any {
	return []any{string(b.WarehouseID), string(b.ItemID), b.ItemName, b.Unit, b.Quantity, b.LastCost, b.UpdatedAt}
}

func scanBalance(row pgx.Row) (*entity.InventoryBalance, error) {
	var b entity.InventoryBalance
	if err := row.Scan(&b.WarehouseID, &b.ItemID, &b.ItemName, &b.Unit, &b.Quantity, &b.LastCost, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
