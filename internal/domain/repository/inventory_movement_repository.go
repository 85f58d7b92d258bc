package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para el libro de movimientos.
// Los métodos de escritura se usan siempre dentro de la transacción del TxRunner.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// GetByID devuelve nil, nil si el movimiento no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// GetByIDForUpdate lee la versión vigente y bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.InventoryMovement, error)
	Update(ctx context.Context, movement *entity.InventoryMovement) error
	SetDeleted(ctx context.Context, id string, deleted bool, at time.Time) error
	// List aplica los filtros y ordena por fecha descendente.
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error)
	// Count cuenta los movimientos que cumplen el filtro, sin paginar.
	Count(ctx context.Context, filter entity.MovementFilter) (int, error)
	// LatestInventory devuelve el inventario físico no eliminado más reciente de la bodega.
	// nil, nil si no hay ninguno.
	LatestInventory(ctx context.Context, warehouseID entity.WarehouseID) (*entity.InventoryMovement, error)
	// LockWriter toma el lado compartido del bloqueo del libro. Toda escritura lo pide antes
	// de tocar filas; la reconstrucción pide el lado exclusivo en LockAll.
	LockWriter(ctx context.Context) error
	// LockWarehouses serializa las escrituras por bodega hasta el fin de la transacción.
	LockWarehouses(ctx context.Context, ids ...entity.WarehouseID) error
	// LockAll excluye a todos los escritores y bloquea movimientos y saldos hasta el fin de la transacción.
	LockAll(ctx context.Context) error
	// DeleteByType borra físicamente todos los movimientos del tipo (solo lo usa la reconstrucción).
	DeleteByType(ctx context.Context, t entity.MovementType) (int64, error)
	// ListForReplay devuelve los movimientos no eliminados en orden (date, created_at, id) ascendente.
	ListForReplay(ctx context.Context) ([]*entity.InventoryMovement, error)
}
