package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MaxListLimit tope de filas por página en el listado de movimientos.
const MaxListLimit = 500

// QueryUseCase lecturas del libro (fuera de transacción).
type QueryUseCase struct {
	movements repository.InventoryMovementRepository
	balances  repository.InventoryBalanceRepository
	suppliers repository.SupplierRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(
	movements repository.InventoryMovementRepository,
	balances repository.InventoryBalanceRepository,
	suppliers repository.SupplierRepository,
) *QueryUseCase {
	return &QueryUseCase{movements: movements, balances: balances, suppliers: suppliers}
}

// ListMovements lista movimientos filtrados, por fecha descendente.
func (uc *QueryUseCase) ListMovements(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	filter, err := checkFilter(filter)
	if err != nil {
		return nil, err
	}
	list, err := uc.movements.List(ctx, filter)
	if err != nil {
		return nil, &domain.StoreError{Op: "list_movements", Err: err}
	}
	return list, nil
}

// CountMovements total de movimientos que cumplen el filtro; Limit y Offset no cuentan.
func (uc *QueryUseCase) CountMovements(ctx context.Context, filter entity.MovementFilter) (int, error) {
	filter, err := checkFilter(filter)
	if err != nil {
		return 0, err
	}
	n, err := uc.movements.Count(ctx, filter)
	if err != nil {
		return 0, &domain.StoreError{Op: "count_movements", Err: err}
	}
	return n, nil
}

func checkFilter(filter entity.MovementFilter) (entity.MovementFilter, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, domain.NewValidationError("type", "tipo de movimiento desconocido: "+string(filter.Type))
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, domain.NewValidationError("to", "el rango de fechas está invertido")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return filter, domain.NewValidationError("limit", "paginación inválida")
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return filter, nil
}

// ListBalances saldos actuales; warehouseID vacío = todas las bodegas.
func (uc *QueryUseCase) ListBalances(ctx context.Context, warehouseID entity.WarehouseID) ([]*entity.InventoryBalance, error) {
	list, err := uc.balances.List(ctx, warehouseID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list_balances", Err: err}
	}
	return list, nil
}

// LastPrices último costo de compra por insumo, tomado de la entrada no eliminada más reciente.
func (uc *QueryUseCase) LastPrices(ctx context.Context) (map[entity.ItemID]entity.LastPrice, error) {
	notDeleted := false
	supplies, err := uc.movements.List(ctx, entity.MovementFilter{
		Type:      entity.MovementTypeSupply,
		IsDeleted: &notDeleted,
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "last_prices", Err: err}
	}
	names := map[string]string{}
	if uc.suppliers != nil {
		suppliers, err := uc.suppliers.List(ctx)
		if err != nil {
			return nil, &domain.StoreError{Op: "last_prices", Err: err}
		}
		for _, s := range suppliers {
			names[s.ID] = s.Name
		}
	}

	out := make(map[entity.ItemID]entity.LastPrice)
	// supplies viene por fecha descendente: la primera aparición de cada insumo es la vigente.
	for _, m := range supplies {
		for _, it := range m.Items {
			if _, seen := out[it.ItemID]; seen {
				continue
			}
			out[it.ItemID] = entity.LastPrice{
				ItemID:       it.ItemID,
				Cost:         it.Cost,
				Date:         m.Date,
				SupplierID:   m.SupplierID,
				SupplierName: names[m.SupplierID],
			}
		}
	}
	return out, nil
}
