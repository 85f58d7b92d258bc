package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem insumo o producto que se almacena directamente.
type StockItem struct {
	ID   ItemID
	Name string
	Unit string
}

// RecipeIngredient ingrediente de una receta. Gross es la cantidad bruta, Net la neta (tras merma).
type RecipeIngredient struct {
	ItemID   ItemID
	ItemName string
	Unit     string
	Gross    decimal.Decimal
	Net      decimal.Decimal
}

// Amount cantidad por unidad vendida: bruta si está definida, si no la neta.
func (i RecipeIngredient) Amount() decimal.Decimal {
	if !i.Gross.IsZero() {
		return i.Gross
	}
	return i.Net
}

// Recipe producto compuesto (plato, bebida preparada) que consume ingredientes.
type Recipe struct {
	ID          string
	Name        string
	Ingredients []RecipeIngredient
}

// Receipt recibo de venta emitido por el POS.
type Receipt struct {
	ID      string
	Number  string
	Date    time.Time
	ShiftID string
	Lines   []ReceiptLine
}

// ReceiptLine línea vendida de un recibo.
type ReceiptLine struct {
	ProductID   string
	ProductName string
	Qty         decimal.Decimal
}
