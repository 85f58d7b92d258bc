package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario. El conjunto es cerrado.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeSupply    MovementType = "supply"    // entrada de proveedor
	MovementTypeWriteoff  MovementType = "writeoff"  // baja / merma
	MovementTypeMove      MovementType = "move"      // traslado entre bodegas
	MovementTypeSale      MovementType = "sale"      // consumo por venta
	MovementTypeInventory MovementType = "inventory" // conteo físico
)

// AllMovementTypes lista los tipos válidos en orden estable.
var AllMovementTypes = []MovementType{
	MovementTypeSupply,
	MovementTypeWriteoff,
	MovementTypeMove,
	MovementTypeSale,
	MovementTypeInventory,
}

// Valid indica si t es uno de los cinco tipos conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeSupply, MovementTypeWriteoff, MovementTypeMove, MovementTypeSale, MovementTypeInventory:
		return true
	}
	return false
}

// MovementItem línea de un movimiento.
// Qty es siempre una magnitud positiva, salvo en inventory donde guarda el delta firmado
// (real - teórico) calculado al crear el movimiento.
type MovementItem struct {
	ItemID    ItemID           `json:"itemId"`
	ItemName  string           `json:"itemName"`
	Unit      string           `json:"unit"`
	Qty       decimal.Decimal  `json:"qty"`
	Cost      decimal.Decimal  `json:"cost"`
	ActualQty *decimal.Decimal `json:"actualQty,omitempty"` // solo inventory: cantidad contada
}

// InventoryMovement registro de un evento de inventario. Es la fuente de verdad de los saldos.
type InventoryMovement struct {
	ID             string
	Type           MovementType
	Date           time.Time // fecha efectiva (orden, bloqueo de periodo, reportes)
	WarehouseID    WarehouseID
	ToWarehouseID  WarehouseID // solo move
	Items          []MovementItem
	SupplierID     string
	TotalCost      decimal.Decimal
	PaymentStatus  string
	PaidAmount     decimal.Decimal
	PaymentMethod  string
	MoneyAccountID string
	Description    string
	ReferenceID    string // recibo/venta de origen
	ShiftID        string // turno de caja abierto al crear
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Warehouses devuelve las bodegas que toca el movimiento (origen y, en traslados, destino).
func (m *InventoryMovement) Warehouses() []WarehouseID {
	if m.Type == MovementTypeMove && m.ToWarehouseID != "" && m.ToWarehouseID != m.WarehouseID {
		return []WarehouseID{m.WarehouseID, m.ToWarehouseID}
	}
	return []WarehouseID{m.WarehouseID}
}

// Clone copia profunda (las líneas y los punteros de ActualQty no se comparten).
func (m *InventoryMovement) Clone() *InventoryMovement {
	if m == nil {
		return nil
	}
	c := *m
	c.Items = make([]MovementItem, len(m.Items))
	for i, it := range m.Items {
		c.Items[i] = it
		if it.ActualQty != nil {
			v := *it.ActualQty
			c.Items[i].ActualQty = &v
		}
	}
	return &c
}

// MovementFilter filtros de listado. Los campos nil/vacíos no filtran.
type MovementFilter struct {
	Type        MovementType
	WarehouseID WarehouseID
	ItemID      ItemID
	From        *time.Time
	To          *time.Time
	IsDeleted   *bool
	Limit       int
	Offset      int
}
