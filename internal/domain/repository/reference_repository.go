package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// WarehouseRepository directorio de bodegas (solo lectura para el libro).
type WarehouseRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id entity.WarehouseID) (*entity.Warehouse, error)
	List(ctx context.Context) ([]*entity.Warehouse, error)
}

// SupplierRepository directorio de proveedores.
type SupplierRepository interface {
	List(ctx context.Context) ([]*entity.Supplier, error)
}

// ShiftRepository turnos de caja.
type ShiftRepository interface {
	// CurrentOpen devuelve el turno abierto más reciente o nil, nil.
	CurrentOpen(ctx context.Context) (*entity.Shift, error)
}
