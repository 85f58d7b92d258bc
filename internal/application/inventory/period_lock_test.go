package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestPeriodLock_Status(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	checker := inventory.NewPeriodLockChecker(store.Stores().Movements)

	status, err := checker.Status(ctx, whA)
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Nil(t, status.LockedUntil)

	_, err = ledger.Create(ctx, count(whA, "2024-03-01", "0"))
	require.NoError(t, err)
	later, err := ledger.Create(ctx, count(whA, "2024-03-10", "0"))
	require.NoError(t, err)

	status, err = checker.Status(ctx, whA)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.True(t, day("2024-03-10").Equal(*status.LockedUntil))
	assert.Equal(t, later, status.MovementID)

	// Un conteo eliminado por fuera del libro deja de bloquear.
	require.NoError(t, store.Stores().Movements.SetDeleted(ctx, later, true, time.Now()))
	status, err = checker.Status(ctx, whA)
	require.NoError(t, err)
	assert.True(t, day("2024-03-01").Equal(*status.LockedUntil), "el conteo eliminado ya no bloquea")

	_, err = checker.Status(ctx, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestPeriodLock_Check(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t)
	checker := inventory.NewPeriodLockChecker(store.Stores().Movements)
	movements := store.Stores().Movements

	assert.NoError(t, checker.Check(ctx, movements, whA, day("2000-01-01")), "sin conteos nunca hay cierre")

	countID, err := ledger.Create(ctx, count(whA, "2024-03-01", "0"))
	require.NoError(t, err)

	assert.Error(t, checker.Check(ctx, movements, whA, day("2024-02-28")))
	assert.Error(t, checker.Check(ctx, movements, whA, day("2024-03-01")), "la fecha del conteo también está cerrada")
	assert.NoError(t, checker.Check(ctx, movements, whA, day("2024-03-02")))
	assert.NoError(t, checker.Check(ctx, movements, whB, day("2024-02-28")))

	// El propio conteo no se excluye del chequeo.
	m, err := movements.GetByID(ctx, countID)
	require.NoError(t, err)
	var lockErr *domain.LockError
	require.True(t, errors.As(checker.CheckMovement(ctx, movements, m), &lockErr))
	assert.True(t, day("2024-03-01").Equal(lockErr.LockedUntil))
}
