package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ValidateMovement verifica la forma del movimiento antes de tocar el almacenamiento.
func ValidateMovement(m *entity.InventoryMovement) error {
	if !m.Type.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento desconocido: "+string(m.Type))
	}
	if len(m.Items) == 0 {
		return domain.NewValidationError("items", "el movimiento debe tener al menos una línea")
	}
	if m.WarehouseID == "" {
		return domain.NewValidationError("warehouseId", "la bodega es obligatoria")
	}
	if m.Date.IsZero() {
		return domain.NewValidationError("date", "la fecha es obligatoria")
	}
	if m.Type == entity.MovementTypeMove {
		if m.ToWarehouseID == "" {
			return domain.NewValidationError("toWarehouseId", "el traslado requiere bodega destino")
		}
		if m.ToWarehouseID == m.WarehouseID {
			return domain.NewValidationError("toWarehouseId", "origen y destino deben ser distintos")
		}
	}
	for _, it := range m.Items {
		if it.ItemID == "" {
			return domain.NewValidationError("items.itemId", "cada línea requiere insumo")
		}
		if it.Cost.LessThan(decimal.Zero) {
			return domain.NewValidationError("items.cost", "el costo no puede ser negativo")
		}
		if m.Type == entity.MovementTypeInventory {
			if it.ActualQty == nil {
				return domain.NewValidationError("items.actualQty", "el inventario requiere la cantidad contada")
			}
			if it.ActualQty.LessThan(decimal.Zero) {
				return domain.NewValidationError("items.actualQty", "la cantidad contada no puede ser negativa")
			}
			continue
		}
		if !it.Qty.GreaterThan(decimal.Zero) {
			return domain.NewValidationError("items.qty", "la cantidad debe ser positiva")
		}
	}
	return nil
}
