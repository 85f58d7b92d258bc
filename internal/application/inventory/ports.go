package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Stores repositorios atados a una misma transacción.
type Stores struct {
	Movements  repository.InventoryMovementRepository
	Balances   repository.InventoryBalanceRepository
	Warehouses repository.WarehouseRepository
	Sales      repository.SalesRepository
	Catalog    repository.CatalogRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y el error se devuelve tal cual; si no, Commit.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// ShiftProvider informa el turno de caja abierto, si lo hay.
type ShiftProvider interface {
	CurrentOpenShift(ctx context.Context) (shiftID string, ok bool, err error)
}

// ShiftProviderFunc adapta una función a ShiftProvider.
type ShiftProviderFunc func(ctx context.Context) (string, bool, error)

// CurrentOpenShift implementa ShiftProvider.
func (f ShiftProviderFunc) CurrentOpenShift(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// ShiftsFromRepository usa el repositorio de turnos como ShiftProvider.
func ShiftsFromRepository(repo repository.ShiftRepository) ShiftProvider {
	return ShiftProviderFunc(func(ctx context.Context) (string, bool, error) {
		shift, err := repo.CurrentOpen(ctx)
		if err != nil {
			return "", false, err
		}
		if shift == nil {
			return "", false, nil
		}
		return shift.ID, true, nil
	})
}

// NoShift ShiftProvider que nunca tiene turno abierto.
var NoShift ShiftProvider = ShiftProviderFunc(func(context.Context) (string, bool, error) {
	return "", false, nil
})
