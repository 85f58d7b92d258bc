package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestErrors_Taxonomia(t *testing.T) {
	vErr := domain.NewValidationError("items", "al menos una línea")
	assert.True(t, errors.Is(vErr, domain.ErrInvalidInput))
	assert.Equal(t, "items: al menos una línea", vErr.Error())

	lErr := &domain.LockError{WarehouseID: "A", LockedUntil: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	assert.True(t, errors.Is(lErr, domain.ErrPeriodLocked))
	assert.Contains(t, lErr.Error(), "2024-03-01")

	nErr := &domain.NotFoundError{Resource: "movimiento", ID: "m-1"}
	assert.True(t, errors.Is(nErr, domain.ErrNotFound))

	cause := errors.New("conexión perdida")
	sErr := &domain.StoreError{Op: "create", Err: cause}
	assert.True(t, errors.Is(sErr, domain.ErrStore))
	assert.True(t, errors.Is(sErr, cause), "conserva la causa")

	for _, err := range []error{vErr, lErr, nErr, sErr, fmt.Errorf("envuelto: %w", lErr)} {
		assert.True(t, domain.IsDomainError(err), "%v", err)
	}
	assert.False(t, domain.IsDomainError(cause))
}
