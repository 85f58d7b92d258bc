package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.SalesRepository   = (*SalesRepo)(nil)
	_ repository.CatalogRepository = (*CatalogRepo)(nil)
)

// SalesRepo lectura de los recibos del POS.
type SalesRepo struct {
	q Querier
}

// NewSalesRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesRepository(q Querier) *SalesRepo {
	return &SalesRepo{q: q}
}

// ListReceipts recibos por fecha ascendente, cada uno con sus líneas en orden.
func (r *SalesRepo) ListReceipts(ctx context.Context) ([]*entity.Receipt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, number, date, shift_id FROM receipts ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	var receipts []*entity.Receipt
	byID := make(map[string]*entity.Receipt)
	for rows.Next() {
		var rc entity.Receipt
		if err := rows.Scan(&rc.ID, &rc.Number, &rc.Date, &rc.ShiftID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, &rc)
		byID[rc.ID] = &rc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	if len(receipts) == 0 {
		return nil, nil
	}

	lines, err := r.q.Query(ctx, `
		SELECT receipt_id, product_id, product_name, qty
		FROM receipt_lines ORDER BY receipt_id, line_no`)
	if err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		var receiptID string
		var l entity.ReceiptLine
		if err := lines.Scan(&receiptID, &l.ProductID, &l.ProductName, &l.Qty); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		if rc, ok := byID[receiptID]; ok {
			rc.Lines = append(rc.Lines, l)
		}
	}
	return receipts, lines.Err()
}

// CatalogRepo resuelve productos vendidos a insumos o recetas.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetStockItem nil, nil si el id no es un insumo con stock.
func (r *CatalogRepo) GetStockItem(ctx context.Context, id string) (*entity.StockItem, error) {
	var it entity.StockItem
	err := r.q.QueryRow(ctx, `SELECT id, name, unit FROM stock_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Name, &it.Unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return &it, nil
}

// GetRecipe nil, nil si el id no es una receta.
func (r *CatalogRepo) GetRecipe(ctx context.Context, id string) (*entity.Recipe, error) {
	var rc entity.Recipe
	err := r.q.QueryRow(ctx, `SELECT id, name FROM recipes WHERE id = $1`, id).Scan(&rc.ID, &rc.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT ri.item_id, COALESCE(si.name, ''), COALESCE(si.unit, ''), ri.gross, ri.net
		FROM recipe_ingredients ri
		LEFT JOIN stock_items si ON si.id = ri.item_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.position`, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ing entity.RecipeIngredient
		if err := rows.Scan(&ing.ItemID, &ing.ItemName, &ing.Unit, &ing.Gross, &ing.Net); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		rc.Ingredients = append(rc.Ingredients, ing)
	}
	return &rc, rows.Err()
}
