package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// PickWarehouse elige la bodega de la que sale una venta regenerada: la de menor id entre
// las que tienen saldo positivo del insumo; si ninguna tiene, fallback.
func PickWarehouse(balances []*entity.InventoryBalance, fallback entity.WarehouseID) entity.WarehouseID {
	var candidates []entity.WarehouseID
	for _, b := range balances {
		if b.Quantity.GreaterThan(decimal.Zero) {
			candidates = append(candidates, b.WarehouseID)
		}
	}
	if len(candidates) == 0 {
		return fallback
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return candidates[0]
}

// DefaultWarehouse resuelve la bodega por defecto: la configurada si existe, si no la marcada
// como predeterminada en el directorio y, en último caso, la de menor id.
func DefaultWarehouse(configured entity.WarehouseID, warehouses []*entity.Warehouse) (entity.WarehouseID, bool) {
	if configured != "" {
		return configured, true
	}
	if len(warehouses) == 0 {
		return "", false
	}
	sorted := make([]*entity.Warehouse, len(warehouses))
	copy(sorted, warehouses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, w := range sorted {
		if w.IsDefault {
			return w.ID, true
		}
	}
	return sorted[0].ID, true
}
