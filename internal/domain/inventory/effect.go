package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ApplyDeltas devuelve los cambios de saldo que produce aplicar el movimiento:
//
//	supply            +qty en (bodega, insumo) y lastCost = cost
//	writeoff / sale   -qty en (bodega, insumo)
//	move              -qty en origen, +qty en destino
//	inventory         +qty (qty ya es el delta firmado real - teórico)
func ApplyDeltas(m *entity.InventoryMovement) ([]entity.BalanceDelta, error) {
	deltas := make([]entity.BalanceDelta, 0, len(m.Items)*2)
	for _, it := range m.Items {
		src := entity.BalanceKey{WarehouseID: m.WarehouseID, ItemID: it.ItemID}
		switch m.Type {
		case entity.MovementTypeSupply:
			cost := it.Cost
			deltas = append(deltas, entity.BalanceDelta{
				Key: src, Qty: it.Qty, LastCost: &cost, ItemName: it.ItemName, Unit: it.Unit,
			})
		case entity.MovementTypeWriteoff, entity.MovementTypeSale:
			deltas = append(deltas, entity.BalanceDelta{Key: src, Qty: it.Qty.Neg()})
		case entity.MovementTypeMove:
			dst := entity.BalanceKey{WarehouseID: m.ToWarehouseID, ItemID: it.ItemID}
			deltas = append(deltas,
				entity.BalanceDelta{Key: src, Qty: it.Qty.Neg(), ItemName: it.ItemName, Unit: it.Unit},
				entity.BalanceDelta{Key: dst, Qty: it.Qty, ItemName: it.ItemName, Unit: it.Unit},
			)
		case entity.MovementTypeInventory:
			deltas = append(deltas, entity.BalanceDelta{Key: src, Qty: it.Qty})
		default:
			return nil, fmt.Errorf("tipo de movimiento desconocido %q", m.Type)
		}
	}
	return deltas, nil
}

// RevertDeltas es la inversa exacta de ApplyDeltas sobre las cantidades guardadas en el
// movimiento. No toca lastCost ni los datos de despliegue.
func RevertDeltas(m *entity.InventoryMovement) ([]entity.BalanceDelta, error) {
	applied, err := ApplyDeltas(m)
	if err != nil {
		return nil, err
	}
	reverted := make([]entity.BalanceDelta, len(applied))
	for i, d := range applied {
		reverted[i] = entity.BalanceDelta{Key: d.Key, Qty: d.Qty.Neg()}
	}
	return reverted, nil
}

// InventoryDelta delta firmado de un conteo físico: real - teórico.
func InventoryDelta(actual, theoretical decimal.Decimal) decimal.Decimal {
	return actual.Sub(theoretical)
}

// SortDeltas ordena por clave para que los bloqueos de fila se tomen siempre en el mismo orden.
func SortDeltas(deltas []entity.BalanceDelta) {
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Key.Less(deltas[j].Key)
	})
}

// ApplyToMap aplica deltas sobre un mapa de saldos en memoria (upsert con 0 por defecto).
// Lo usan las pruebas de propiedades y el almacén en memoria.
func ApplyToMap(balances map[entity.BalanceKey]decimal.Decimal, deltas []entity.BalanceDelta) {
	for _, d := range deltas {
		balances[d.Key] = balances[d.Key].Add(d.Qty)
	}
}
