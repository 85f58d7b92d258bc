package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey clave del saldo: (bodega, insumo).
type BalanceKey struct {
	WarehouseID WarehouseID
	ItemID      ItemID
}

// Less orden total de claves; se usa para tomar bloqueos de fila siempre en el mismo orden.
func (k BalanceKey) Less(o BalanceKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ItemID < o.ItemID
}

// InventoryBalance stock actual de un insumo en una bodega (derivado de los movimientos).
// Quantity = suma de los efectos de todos los movimientos no eliminados para la clave.
type InventoryBalance struct {
	WarehouseID WarehouseID
	ItemID      ItemID
	ItemName    string
	Unit        string
	Quantity    decimal.Decimal
	LastCost    decimal.Decimal
	UpdatedAt   time.Time
}

// Key devuelve la clave del saldo.
func (b *InventoryBalance) Key() BalanceKey {
	return BalanceKey{WarehouseID: b.WarehouseID, ItemID: b.ItemID}
}

// BalanceDelta cambio a aplicar sobre un saldo.
// LastCost != nil actualiza el último costo; ItemName/Unit no vacíos refrescan los datos de despliegue.
type BalanceDelta struct {
	Key      BalanceKey
	Qty      decimal.Decimal
	LastCost *decimal.Decimal
	ItemName string
	Unit     string
}

// LastPrice último precio de compra conocido de un insumo.
type LastPrice struct {
	ItemID       ItemID          `json:"item_id"`
	Cost         decimal.Decimal `json:"cost"`
	Date         time.Time       `json:"date"`
	SupplierID   string          `json:"supplier_id,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
}
