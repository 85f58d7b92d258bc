package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// seedSales deja un catálogo con un insumo directo (X) y una receta que consume X e Y.
func seedSales(store *memory.Store) {
	store.AddWarehouse(&entity.Warehouse{ID: whA, Name: "Cocina"})
	store.AddWarehouse(&entity.Warehouse{ID: whB, Name: "Barra", IsDefault: true})
	store.AddStockItem(&entity.StockItem{ID: itemX, Name: "Harina", Unit: "kg"})
	store.AddRecipe(&entity.Recipe{ID: "pan", Name: "Pan", Ingredients: []entity.RecipeIngredient{
		{ItemID: itemX, ItemName: "Harina", Unit: "kg", Gross: dec("0.5")},
		{ItemID: itemY, ItemName: "Sal", Unit: "kg", Net: dec("0.01")},
	}})
	store.AddReceipt(&entity.Receipt{ID: "r-1", Number: "0001", Date: day("2024-01-05"), ShiftID: "turno-1",
		Lines: []entity.ReceiptLine{
			{ProductID: string(itemX), ProductName: "Harina", Qty: dec("2")},
			{ProductID: "pan", ProductName: "Pan", Qty: dec("4")},
			{ProductID: "fantasma", ProductName: "???", Qty: dec("1")},
		}})
}

func TestRebuild_RegeneratesSalesAndReplays(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	seedSales(store)

	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "5"))
	require.NoError(t, err)
	// Venta vieja que la reconstrucción debe descartar.
	_, err = ledger.Create(ctx, simple(entity.MovementTypeSale, whA, "2024-01-02", "9"))
	require.NoError(t, err)
	deletedID, err := ledger.Create(ctx, simple(entity.MovementTypeWriteoff, whA, "2024-01-03", "1"))
	require.NoError(t, err)
	require.NoError(t, ledger.Delete(ctx, deletedID))

	reg := prometheus.NewRegistry()
	rebuild := inventory.NewRebuildUseCase(store, "", time.Minute, nil, metrics.NewLedgerMetricsWith(reg))
	report, err := rebuild.Run(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.SalesDeleted)
	assert.Equal(t, 3, report.SalesCreated, "X directo + dos ingredientes de la receta")
	assert.Equal(t, 1, report.LinesSkipped)
	assert.Equal(t, 4, report.MovementsReplayed)
	assert.Equal(t, 2, report.BalancesWritten)

	// X: 10 - 2 (directo) - 2 (0.5 × 4) en A, que tiene saldo positivo.
	assertQty(t, store, whA, itemX, "6")
	// Y no tiene saldo en ninguna bodega: cae en la predeterminada del directorio (B).
	assertQty(t, store, whB, itemY, "-0.04")
	bal := store.Balances()[entity.BalanceKey{WarehouseID: whA, ItemID: itemX}]
	assert.True(t, dec("5").Equal(bal.LastCost))

	sales, err := inventory.NewQueryUseCase(store.Stores().Movements, store.Stores().Balances, nil).
		ListMovements(ctx, entity.MovementFilter{Type: entity.MovementTypeSale})
	require.NoError(t, err)
	require.Len(t, sales, 3)
	for _, s := range sales {
		assert.Equal(t, "r-1", s.ReferenceID)
		assert.Equal(t, "Venta 0001", s.Description)
		assert.Equal(t, "turno-1", s.ShiftID)
		assert.True(t, day("2024-01-05").Equal(s.Date))
		assert.False(t, s.IsDeleted)
	}
}

func TestRebuild_IsDeterministic(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	seedSales(store)

	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "3", "5"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, supply(whB, "2024-01-01", "3", "5"))
	require.NoError(t, err)

	rebuild := inventory.NewRebuildUseCase(store, "", 0, nil, nil)
	_, err = rebuild.Run(ctx)
	require.NoError(t, err)
	first := store.Balances()
	firstSales, err := store.Stores().Movements.List(ctx, entity.MovementFilter{Type: entity.MovementTypeSale})
	require.NoError(t, err)

	_, err = rebuild.Run(ctx)
	require.NoError(t, err)
	second := store.Balances()
	secondSales, err := store.Stores().Movements.List(ctx, entity.MovementFilter{Type: entity.MovementTypeSale})
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for k, b := range first {
		assert.True(t, b.Quantity.Equal(second[k].Quantity), "%v", k)
		assert.True(t, b.LastCost.Equal(second[k].LastCost), "%v", k)
	}
	require.Equal(t, len(firstSales), len(secondSales))
	for i := range firstSales {
		assert.Equal(t, firstSales[i].ID, secondSales[i].ID, "los ids regenerados son estables")
		assert.Equal(t, firstSales[i].WarehouseID, secondSales[i].WarehouseID)
	}
}

func TestRebuild_InventoryResetsRunningTotal(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "5"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, count(whA, "2024-01-02", "7"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, simple(entity.MovementTypeWriteoff, whA, "2024-01-03", "2"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "5")

	// Desfase manual del saldo: la reconstrucción lo repara.
	require.NoError(t, store.Run(ctx, func(ctx context.Context, s inventory.Stores) error {
		return s.Balances.Adjust(ctx, entity.BalanceDelta{Key: entity.BalanceKey{WarehouseID: whA, ItemID: itemX}, Qty: dec("100")})
	}))
	assertQty(t, store, whA, itemX, "105")

	_, err = inventory.NewRebuildUseCase(store, "", 0, nil, nil).Run(ctx)
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "5")
}

func TestRebuild_ConfiguredDefaultWarehouse(t *testing.T) {
	ctx := context.Background()
	_, store := newLedger(t)
	seedSales(store)

	_, err := inventory.NewRebuildUseCase(store, whA, 0, nil, nil).Run(ctx)
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "-4")
	assertQty(t, store, whA, itemY, "-0.04")
}

func TestRebuild_NoWarehouseAvailable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.AddStockItem(&entity.StockItem{ID: itemX, Name: "Harina", Unit: "kg"})
	store.AddReceipt(&entity.Receipt{ID: "r-1", Number: "1", Date: day("2024-01-01"),
		Lines: []entity.ReceiptLine{{ProductID: string(itemX), Qty: dec("1")}}})

	_, err := inventory.NewRebuildUseCase(store, "", 0, nil, nil).Run(ctx)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRebuild_RollbackOnFailure(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	seedSales(store)
	saleID, err := ledger.Create(ctx, simple(entity.MovementTypeSale, whA, "2024-01-02", "1"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, supply(whA, "2024-01-01", "10", "5"))
	require.NoError(t, err)
	before := store.Balances()

	store.FailOn("balances.insert_all", errors.New("conexión perdida"))
	defer store.ClearFaults()
	report, err := inventory.NewRebuildUseCase(store, "", 0, nil, nil).Run(ctx)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, domain.ErrStore))

	assert.NotNil(t, store.Movement(saleID), "la venta original sigue ahí")
	assert.Equal(t, len(before), len(store.Balances()))
	assertQty(t, store, whA, itemX, "9")
}

func TestRebuild_ConcurrentCallsShareOneRun(t *testing.T) {
	ctx := context.Background()
	_, store := newLedger(t)
	seedSales(store)
	rebuild := inventory.NewRebuildUseCase(store, "", 0, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = rebuild.Run(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	sales, err := store.Stores().Movements.List(ctx, entity.MovementFilter{Type: entity.MovementTypeSale})
	require.NoError(t, err)
	assert.Len(t, sales, 3)
}
