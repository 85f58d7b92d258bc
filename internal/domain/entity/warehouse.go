package entity

import "time"

// Warehouse representa una bodega del local (dato de referencia, solo lectura para el libro).
type Warehouse struct {
	ID        WarehouseID
	Name      string
	Address   string
	IsDefault bool
	CreatedAt time.Time
}

// Supplier proveedor (dato de referencia).
type Supplier struct {
	ID   string
	Name string
}

// Shift turno de caja. ClosedAt nil = turno abierto.
type Shift struct {
	ID       string
	OpenedAt time.Time
	ClosedAt *time.Time
}
