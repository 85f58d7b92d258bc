package entity

// WarehouseID identificador de bodega. Todo el motor de inventario trabaja con este tipo;
// la normalización de formatos heredados ocurre en el borde HTTP (dto).
type WarehouseID string

// ItemID identificador de un insumo/producto con stock.
type ItemID string

// String implementa fmt.Stringer.
func (id WarehouseID) String() string { return string(id) }

// String implementa fmt.Stringer.
func (id ItemID) String() string { return string(id) }
