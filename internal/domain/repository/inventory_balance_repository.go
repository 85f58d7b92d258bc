package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryBalanceRepository define el puerto del almacén de saldos (bodega+insumo).
// Solo el motor del libro y la reconstrucción escriben en él.
type InventoryBalanceRepository interface {
	// Adjust suma delta.Qty al saldo (creándolo en 0 si no existe).
	Adjust(ctx context.Context, delta entity.BalanceDelta) error
	// GetForUpdate devuelve el saldo bloqueado hasta el fin de la transacción (0 si no existe).
	GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.InventoryBalance, error)
	// List ordena por bodega y nombre de insumo. warehouseID vacío = todas.
	List(ctx context.Context, warehouseID entity.WarehouseID) ([]*entity.InventoryBalance, error)
	// DeleteAll descarta el almacén completo (reconstrucción).
	DeleteAll(ctx context.Context) error
	InsertAll(ctx context.Context, balances []*entity.InventoryBalance) error
}
