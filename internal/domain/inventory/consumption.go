package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Consumption una línea de consumo de stock derivada de una venta.
type Consumption struct {
	ItemID   entity.ItemID
	ItemName string
	Unit     string
	Qty      decimal.Decimal
}

// ExplodeLine convierte una línea vendida en consumo de stock. Si el producto es un insumo
// directo, consume la cantidad vendida; si es receta, consume cada ingrediente
// (cantidad bruta o neta × cantidad vendida). Devuelve nil si no se puede resolver.
func ExplodeLine(line entity.ReceiptLine, item *entity.StockItem, recipe *entity.Recipe) []Consumption {
	if item != nil {
		return []Consumption{{ItemID: item.ID, ItemName: item.Name, Unit: item.Unit, Qty: line.Qty}}
	}
	if recipe == nil {
		return nil
	}
	out := make([]Consumption, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		qty := ing.Amount().Mul(line.Qty)
		if qty.IsZero() {
			continue
		}
		out = append(out, Consumption{ItemID: ing.ItemID, ItemName: ing.ItemName, Unit: ing.Unit, Qty: qty})
	}
	return out
}
