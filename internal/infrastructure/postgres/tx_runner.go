package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La serialización entre escritores la dan los advisory locks por bodega (LockWarehouses)
// y el FOR UPDATE sobre el movimiento que se edita.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, stores inventory.Stores) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, StoresFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// StoresFor arma los repositorios sobre q (pool o tx).
func StoresFor(q Querier) inventory.Stores {
	return inventory.Stores{
		Movements:  NewInventoryMovementRepository(q),
		Balances:   NewInventoryBalanceRepository(q),
		Warehouses: NewWarehouseRepository(q),
		Sales:      NewSalesRepository(q),
		Catalog:    NewCatalogRepository(q),
	}
}
