package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SortForReplay orden estable del historial: fecha, fecha de creación, id.
func SortForReplay(movs []*entity.InventoryMovement) {
	sort.SliceStable(movs, func(i, j int) bool { return ReplayBefore(movs[i], movs[j]) })
}

// ReplayBefore indica si a se aplica antes que b al reproducir el historial.
func ReplayBefore(a, b *entity.InventoryMovement) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Replay recalcula todos los saldos desde cero recorriendo el historial en orden.
// A diferencia de ApplyDeltas, un inventario físico reinicia el acumulado a ActualQty:
// el conteo es la verdad, sin importar la deriva acumulada antes de él.
// Los movimientos eliminados se ignoran. El resultado se ordena por clave.
func Replay(movs []*entity.InventoryMovement) []*entity.InventoryBalance {
	ordered := make([]*entity.InventoryMovement, 0, len(movs))
	for _, m := range movs {
		if !m.IsDeleted {
			ordered = append(ordered, m)
		}
	}
	SortForReplay(ordered)

	acc := make(map[entity.BalanceKey]*entity.InventoryBalance)
	get := func(wh entity.WarehouseID, it entity.MovementItem) *entity.InventoryBalance {
		k := entity.BalanceKey{WarehouseID: wh, ItemID: it.ItemID}
		b, ok := acc[k]
		if !ok {
			b = &entity.InventoryBalance{WarehouseID: wh, ItemID: it.ItemID, Quantity: decimal.Zero, LastCost: decimal.Zero}
			acc[k] = b
		}
		if b.ItemName == "" {
			b.ItemName = it.ItemName
		}
		if b.Unit == "" {
			b.Unit = it.Unit
		}
		return b
	}

	for _, m := range ordered {
		for _, it := range m.Items {
			switch m.Type {
			case entity.MovementTypeSupply:
				b := get(m.WarehouseID, it)
				b.Quantity = b.Quantity.Add(it.Qty)
				b.LastCost = it.Cost
				refresh(b, it)
			case entity.MovementTypeWriteoff, entity.MovementTypeSale:
				b := get(m.WarehouseID, it)
				b.Quantity = b.Quantity.Sub(it.Qty)
			case entity.MovementTypeMove:
				src := get(m.WarehouseID, it)
				src.Quantity = src.Quantity.Sub(it.Qty)
				dst := get(m.ToWarehouseID, it)
				dst.Quantity = dst.Quantity.Add(it.Qty)
				refresh(src, it)
				refresh(dst, it)
			case entity.MovementTypeInventory:
				b := get(m.WarehouseID, it)
				if it.ActualQty != nil {
					b.Quantity = *it.ActualQty
				} else {
					b.Quantity = b.Quantity.Add(it.Qty)
				}
			}
		}
	}

	out := make([]*entity.InventoryBalance, 0, len(acc))
	for _, b := range acc {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

func refresh(b *entity.InventoryBalance, it entity.MovementItem) {
	if it.ItemName != "" {
		b.ItemName = it.ItemName
	}
	if it.Unit != "" {
		b.Unit = it.Unit
	}
}
