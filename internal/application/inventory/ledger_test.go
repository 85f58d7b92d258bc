package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

const (
	whA   entity.WarehouseID = "A"
	whB   entity.WarehouseID = "B"
	itemX entity.ItemID      = "X"
	itemY entity.ItemID      = "Y"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newLedger(t *testing.T) (*inventory.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	seq := 0
	ledger := inventory.NewLedger(store, nil, nil, nil,
		inventory.WithClock(func() time.Time { return time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC) }),
		inventory.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("mov-%03d", seq)
		}),
	)
	return ledger, store
}

func assertQty(t *testing.T, store *memory.Store, wh entity.WarehouseID, item entity.ItemID, want string) {
	t.Helper()
	got := store.Balances()[entity.BalanceKey{WarehouseID: wh, ItemID: item}].Quantity
	assert.True(t, dec(want).Equal(got), "saldo %s/%s: esperado %s, obtenido %s", wh, item, want, got)
}

func supply(wh entity.WarehouseID, date string, qty, cost string) inventory.MovementInput {
	return inventory.MovementInput{
		Type:        entity.MovementTypeSupply,
		Date:        day(date),
		WarehouseID: wh,
		SupplierID:  "sup-1",
		Items: []entity.MovementItem{
			{ItemID: itemX, ItemName: "Harina", Unit: "kg", Qty: dec(qty), Cost: dec(cost)},
		},
	}
}

func simple(typ entity.MovementType, wh entity.WarehouseID, date, qty string) inventory.MovementInput {
	return inventory.MovementInput{
		Type:        typ,
		Date:        day(date),
		WarehouseID: wh,
		Items:       []entity.MovementItem{{ItemID: itemX, Qty: dec(qty)}},
	}
}

func count(wh entity.WarehouseID, date, actual string) inventory.MovementInput {
	return inventory.MovementInput{
		Type:        entity.MovementTypeInventory,
		Date:        day(date),
		WarehouseID: wh,
		Items:       []entity.MovementItem{{ItemID: itemX, ActualQty: ptr(dec(actual))}},
	}
}

func TestLedger_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	_, err := ledger.Create(ctx, supply(whA, "2024-01-10", "10", "5"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "10")
	bal := store.Balances()[entity.BalanceKey{WarehouseID: whA, ItemID: itemX}]
	assert.True(t, dec("5").Equal(bal.LastCost))
	assert.Equal(t, "Harina", bal.ItemName)

	move := simple(entity.MovementTypeMove, whA, "2024-01-11", "4")
	move.ToWarehouseID = whB
	moveID, err := ledger.Create(ctx, move)
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "6")
	assertQty(t, store, whB, itemX, "4")

	_, err = ledger.Create(ctx, simple(entity.MovementTypeSale, whA, "2024-01-12", "2"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "4")

	// La venta es un movimiento aparte: eliminar el traslado solo devuelve sus 4 unidades.
	require.NoError(t, ledger.Delete(ctx, moveID))
	assertQty(t, store, whA, itemX, "8")
	assertQty(t, store, whB, itemX, "0")

	require.NoError(t, ledger.Restore(ctx, moveID))
	assertQty(t, store, whA, itemX, "4")
	assertQty(t, store, whB, itemX, "4")

	countID, err := ledger.Create(ctx, count(whA, "2024-01-13", "3"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "3")
	stored := store.Movement(countID)
	require.NotNil(t, stored)
	assert.True(t, dec("-1").Equal(stored.Items[0].Qty), "el inventario guarda el delta real - teórico")
	assert.True(t, dec("3").Equal(*stored.Items[0].ActualQty))
}

func TestLedger_PeriodLockScenario(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	_, err := ledger.Create(ctx, count(whA, "2024-03-01", "0"))
	require.NoError(t, err)

	_, err = ledger.Create(ctx, supply(whA, "2024-02-28", "5", "1"))
	require.Error(t, err)
	var lockErr *domain.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked))
	assert.Equal(t, "A", lockErr.WarehouseID)
	assert.True(t, day("2024-03-01").Equal(lockErr.LockedUntil))
	assert.Contains(t, err.Error(), "2024-03-01")
	assertQty(t, store, whA, itemX, "0")

	_, err = ledger.Create(ctx, supply(whA, "2024-03-01", "5", "1"))
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked), "la misma fecha del conteo también está cerrada")

	_, err = ledger.Create(ctx, supply(whA, "2024-03-02", "5", "1"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "5")

	// Otra bodega no se ve afectada.
	_, err = ledger.Create(ctx, supply(whB, "2024-02-01", "1", "1"))
	require.NoError(t, err)
}

func TestLedger_LockAppliesToUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	oldID, err := ledger.Create(ctx, supply(whA, "2024-02-20", "10", "2"))
	require.NoError(t, err)
	openID, err := ledger.Create(ctx, supply(whA, "2024-03-05", "1", "2"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, count(whA, "2024-03-01", "10"))
	require.NoError(t, err)

	// Editar un movimiento anterior al conteo.
	err = ledger.Update(ctx, oldID, supply(whA, "2024-03-10", "10", "2"))
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked), "sacar un movimiento del periodo cerrado")

	// Mover uno abierto hacia el periodo cerrado.
	err = ledger.Update(ctx, openID, supply(whA, "2024-02-25", "1", "2"))
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked), "meter un movimiento al periodo cerrado")

	err = ledger.Delete(ctx, oldID)
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked))

	// El conteo (10) se tomó con el saldo teórico de 11: delta -1.
	assertQty(t, store, whA, itemX, "10")
	assert.False(t, store.Movement(oldID).IsDeleted)

	require.NoError(t, ledger.Update(ctx, openID, supply(whA, "2024-03-06", "3", "2")))
	assertQty(t, store, whA, itemX, "12")
}

func TestLedger_MoveIntoLockedDestination(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t)

	_, err := ledger.Create(ctx, count(whB, "2024-03-01", "0"))
	require.NoError(t, err)

	move := simple(entity.MovementTypeMove, whA, "2024-02-15", "1")
	move.ToWarehouseID = whB
	_, err = ledger.Create(ctx, move)
	var lockErr *domain.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, "B", lockErr.WarehouseID)
}

func TestLedger_LatestInventoryIsLocked(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	_, err := ledger.Create(ctx, supply(whA, "2024-02-01", "10", "1"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, count(whA, "2024-03-01", "8"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, supply(whA, "2024-03-05", "5", "1"))
	require.NoError(t, err)
	lastCount, err := ledger.Create(ctx, count(whA, "2024-03-10", "13"))
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "13")

	// El conteo vigente cae dentro de su propio cierre: no se mueve, no se corrige, no se elimina.
	err = ledger.Update(ctx, lastCount, count(whA, "2024-03-02", "13"))
	var lockErr *domain.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.True(t, day("2024-03-10").Equal(lockErr.LockedUntil))

	err = ledger.Update(ctx, lastCount, count(whA, "2024-03-10", "20"))
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked))

	err = ledger.Delete(ctx, lastCount)
	assert.True(t, errors.Is(err, domain.ErrPeriodLocked))

	m := store.Movement(lastCount)
	assert.False(t, m.IsDeleted)
	assert.True(t, day("2024-03-10").Equal(m.Date))
	assertQty(t, store, whA, itemX, "13")

	// El historial sigue reproduciendo el mismo saldo.
	report, err := inventory.NewRebuildUseCase(store, "", time.Minute, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.MovementsReplayed)
	assertQty(t, store, whA, itemX, "13")
}

func TestLedger_WritesReadMovementUnderLock(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)
	deletedID, err := ledger.Create(ctx, supply(whA, "2024-01-02", "3", "1"))
	require.NoError(t, err)
	require.NoError(t, ledger.Delete(ctx, deletedID))

	// Una lectura sin bloqueo no participa en las escrituras.
	store.FailOn("movements.get", errors.New("lectura sin bloqueo"))
	require.NoError(t, ledger.Update(ctx, id, supply(whA, "2024-01-01", "6", "1")))
	require.NoError(t, ledger.Restore(ctx, deletedID))
	require.NoError(t, ledger.Delete(ctx, deletedID))
	store.ClearFaults()
	assertQty(t, store, whA, itemX, "6")

	boom := errors.New("lock timeout")
	for _, op := range []string{"movements.lock_writer", "movements.get_for_update"} {
		t.Run(op, func(t *testing.T) {
			store.FailOn(op, boom)
			defer store.ClearFaults()

			assert.True(t, errors.Is(ledger.Update(ctx, id, supply(whA, "2024-01-01", "1", "1")), boom))
			assert.True(t, errors.Is(ledger.Delete(ctx, id), boom))
			assert.True(t, errors.Is(ledger.Restore(ctx, deletedID), boom))
			assertQty(t, store, whA, itemX, "6")
			assert.False(t, store.Movement(id).IsDeleted)
			assert.True(t, store.Movement(deletedID).IsDeleted)
		})
	}

	store.FailOn("movements.lock_writer", boom)
	_, err = ledger.Create(ctx, supply(whA, "2024-01-03", "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrStore))
	store.ClearFaults()
	assertQty(t, store, whA, itemX, "6")
}

func TestLedger_SoftDeleteIdempotence(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)

	require.NoError(t, ledger.Restore(ctx, id), "restaurar un movimiento activo no hace nada")
	assertQty(t, store, whA, itemX, "10")

	require.NoError(t, ledger.Delete(ctx, id))
	assertQty(t, store, whA, itemX, "0")
	require.NoError(t, ledger.Delete(ctx, id), "eliminar dos veces no hace nada")
	assertQty(t, store, whA, itemX, "0")
	assert.True(t, store.Movement(id).IsDeleted)

	require.NoError(t, ledger.Restore(ctx, id))
	require.NoError(t, ledger.Restore(ctx, id))
	assertQty(t, store, whA, itemX, "10")
	assert.False(t, store.Movement(id).IsDeleted)
}

func TestLedger_CreateDeleteIsExactInverse(t *testing.T) {
	ctx := context.Background()

	move := simple(entity.MovementTypeMove, whA, "2024-02-01", "2.5")
	move.ToWarehouseID = whB
	// Un inventario queda dentro de su propio cierre; su inversa se prueba en el dominio.
	inputs := map[entity.MovementType]inventory.MovementInput{
		entity.MovementTypeSupply:    supply(whA, "2024-02-01", "3.25", "4"),
		entity.MovementTypeWriteoff:  simple(entity.MovementTypeWriteoff, whA, "2024-02-01", "1.5"),
		entity.MovementTypeMove:      move,
		entity.MovementTypeSale:      simple(entity.MovementTypeSale, whA, "2024-02-01", "0.75"),
	}
	for typ, in := range inputs {
		t.Run(string(typ), func(t *testing.T) {
			ledger, store := newLedger(t)
			_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
			require.NoError(t, err)
			_, err = ledger.Create(ctx, supply(whB, "2024-01-01", "4", "1"))
			require.NoError(t, err)
			before := store.Balances()

			id, err := ledger.Create(ctx, in)
			require.NoError(t, err)
			afterApply := store.Balances()

			require.NoError(t, ledger.Delete(ctx, id))
			for k, b := range before {
				got := store.Balances()[k].Quantity
				assert.True(t, b.Quantity.Equal(got), "%v: %s != %s", k, b.Quantity, got)
			}

			require.NoError(t, ledger.Restore(ctx, id))
			for k, b := range afterApply {
				got := store.Balances()[k].Quantity
				assert.True(t, b.Quantity.Equal(got), "%v: %s != %s", k, b.Quantity, got)
			}
		})
	}
}

func TestLedger_MoveConservesTotal(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)

	total := func() decimal.Decimal {
		b := store.Balances()
		return b[entity.BalanceKey{WarehouseID: whA, ItemID: itemX}].Quantity.
			Add(b[entity.BalanceKey{WarehouseID: whB, ItemID: itemX}].Quantity)
	}
	move := simple(entity.MovementTypeMove, whA, "2024-01-02", "7")
	move.ToWarehouseID = whB
	id, err := ledger.Create(ctx, move)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(total()))
	require.NoError(t, ledger.Delete(ctx, id))
	assert.True(t, dec("10").Equal(total()))
	assertQty(t, store, whB, itemX, "0")
}

func TestLedger_Update(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "5"))
	require.NoError(t, err)

	in := supply(whB, "2024-01-02", "7", "6")
	in.Type = entity.MovementTypeWriteoff // el tipo no cambia en una edición
	require.NoError(t, ledger.Update(ctx, id, in))

	assertQty(t, store, whA, itemX, "0")
	assertQty(t, store, whB, itemX, "7")
	m := store.Movement(id)
	assert.Equal(t, entity.MovementTypeSupply, m.Type)
	assert.Equal(t, whB, m.WarehouseID)
	assert.True(t, day("2024-01-02").Equal(m.Date))
}

func TestLedger_UpdateDeletedLeavesBalances(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "5"))
	require.NoError(t, err)
	require.NoError(t, ledger.Delete(ctx, id))

	require.NoError(t, ledger.Update(ctx, id, supply(whA, "2024-01-01", "4", "5")))
	assertQty(t, store, whA, itemX, "0")
	assert.True(t, store.Movement(id).IsDeleted)

	require.NoError(t, ledger.Restore(ctx, id))
	assertQty(t, store, whA, itemX, "4")
}

func TestLedger_NotFound(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t)

	err := ledger.Update(ctx, "nope", supply(whA, "2024-01-01", "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(ledger.Delete(ctx, "nope"), domain.ErrNotFound))
	assert.True(t, errors.Is(ledger.Restore(ctx, "nope"), domain.ErrNotFound))
}

func TestLedger_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)

	_, err := ledger.Create(ctx, inventory.MovementInput{Type: "gift", Date: day("2024-01-01"), WarehouseID: whA,
		Items: []entity.MovementItem{{ItemID: itemX, Qty: dec("1")}}})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "type", vErr.Field)

	_, err = ledger.Create(ctx, inventory.MovementInput{Type: entity.MovementTypeSupply, Date: day("2024-01-01"), WarehouseID: whA})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "items", vErr.Field)
	assert.Empty(t, store.Balances())
}

func TestLedger_UnknownWarehouse(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	store.AddWarehouse(&entity.Warehouse{ID: whA, Name: "Cocina"})

	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "1", "1"))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, supply("Z", "2024-01-01", "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLedger_RollbackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)

	boom := errors.New("disco lleno")
	move := simple(entity.MovementTypeMove, whA, "2024-01-02", "4")
	move.ToWarehouseID = whB

	for _, op := range []string{"balances.adjust", "movements.create", "commit"} {
		t.Run(op, func(t *testing.T) {
			store.FailOn(op, boom)
			defer store.ClearFaults()

			id, err := ledger.Create(ctx, move)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.True(t, errors.Is(err, domain.ErrStore))
			assert.True(t, errors.Is(err, boom))
			var sErr *domain.StoreError
			require.True(t, errors.As(err, &sErr))
			assert.Equal(t, inventory.OpCreate, sErr.Op)

			assertQty(t, store, whA, itemX, "10")
			assertQty(t, store, whB, itemX, "0")
		})
	}

	list, err := inventory.NewQueryUseCase(store.Stores().Movements, store.Stores().Balances, nil).
		ListMovements(ctx, entity.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "los movimientos fallidos no se persisten")
}

func TestLedger_DeleteRollback(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)

	store.FailOn("movements.set_deleted", errors.New("timeout"))
	err = ledger.Delete(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrStore))
	store.ClearFaults()

	assertQty(t, store, whA, itemX, "10")
	assert.False(t, store.Movement(id).IsDeleted)
}

func TestLedger_StampsOpenShift(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.AddShift(&entity.Shift{ID: "turno-1", OpenedAt: day("2024-01-01")})
	ledger := inventory.NewLedger(store, inventory.ShiftsFromRepository(store.Shifts()), nil, nil)

	id, err := ledger.Create(ctx, supply(whA, "2024-01-01", "1", "1"))
	require.NoError(t, err)
	assert.Equal(t, "turno-1", store.Movement(id).ShiftID)

	failing := inventory.NewLedger(store, inventory.ShiftProviderFunc(func(context.Context) (string, bool, error) {
		return "", false, errors.New("caja no disponible")
	}), nil, nil)
	_, err = failing.Create(ctx, supply(whA, "2024-01-02", "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrStore))
}

func TestLedger_InventoryRepeatedItemLines(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	_, err := ledger.Create(ctx, supply(whA, "2024-01-01", "10", "1"))
	require.NoError(t, err)

	in := inventory.MovementInput{
		Type: entity.MovementTypeInventory, Date: day("2024-01-05"), WarehouseID: whA,
		Items: []entity.MovementItem{
			{ItemID: itemX, ActualQty: ptr(dec("8"))},
			{ItemID: itemX, ActualQty: ptr(dec("6"))},
			{ItemID: itemY, ActualQty: ptr(dec("2"))},
		},
	}
	id, err := ledger.Create(ctx, in)
	require.NoError(t, err)
	assertQty(t, store, whA, itemX, "6")
	assertQty(t, store, whA, itemY, "2")

	m := store.Movement(id)
	assert.True(t, dec("-2").Equal(m.Items[0].Qty))
	assert.True(t, dec("-2").Equal(m.Items[1].Qty), "la segunda línea parte del real de la primera")
	assert.True(t, dec("2").Equal(m.Items[2].Qty))
}
