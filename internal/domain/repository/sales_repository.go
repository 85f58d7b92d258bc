package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SalesRepository acceso de solo lectura a los recibos emitidos por el POS.
type SalesRepository interface {
	// ListReceipts devuelve todos los recibos ordenados por fecha ascendente.
	ListReceipts(ctx context.Context) ([]*entity.Receipt, error)
}

// CatalogRepository resuelve productos vendidos a insumos con stock o a recetas.
type CatalogRepository interface {
	// GetStockItem devuelve nil, nil si el id no es un insumo con stock.
	GetStockItem(ctx context.Context, id string) (*entity.StockItem, error)
	// GetRecipe devuelve nil, nil si el id no es una receta.
	GetRecipe(ctx context.Context, id string) (*entity.Recipe, error)
}
