package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// PeriodLockStatus estado del cierre de periodo de una bodega.
type PeriodLockStatus struct {
	WarehouseID entity.WarehouseID
	Locked      bool
	LockedUntil *time.Time
	MovementID  string // inventario físico que bloquea
}

// PeriodLockChecker decide si una fecha cae en un periodo cerrado por un inventario físico.
// El cierre no se guarda: se deriva del inventario no eliminado más reciente de la bodega.
type PeriodLockChecker struct {
	movements repository.InventoryMovementRepository
}

// NewPeriodLockChecker construye el verificador. movements se usa solo para Status (fuera de tx).
func NewPeriodLockChecker(movements repository.InventoryMovementRepository) *PeriodLockChecker {
	return &PeriodLockChecker{movements: movements}
}

// Check devuelve *domain.LockError si date es igual o anterior al último inventario de la bodega.
// El propio conteo también cuenta: el inventario vigente no se edita ni se elimina.
func (c *PeriodLockChecker) Check(ctx context.Context, movements repository.InventoryMovementRepository, warehouseID entity.WarehouseID, date time.Time) error {
	latest, err := movements.LatestInventory(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("consultar cierre de periodo: %w", err)
	}
	if latest == nil {
		return nil
	}
	if !date.After(latest.Date) {
		return &domain.LockError{WarehouseID: string(warehouseID), LockedUntil: latest.Date}
	}
	return nil
}

// CheckMovement verifica todas las bodegas que toca el movimiento (origen y destino en traslados).
func (c *PeriodLockChecker) CheckMovement(ctx context.Context, movements repository.InventoryMovementRepository, m *entity.InventoryMovement) error {
	for _, wh := range m.Warehouses() {
		if err := c.Check(ctx, movements, wh, m.Date); err != nil {
			return err
		}
	}
	return nil
}

// Status consulta el cierre vigente de una bodega.
func (c *PeriodLockChecker) Status(ctx context.Context, warehouseID entity.WarehouseID) (*PeriodLockStatus, error) {
	if warehouseID == "" {
		return nil, domain.NewValidationError("warehouse_id", "requerido")
	}
	latest, err := c.movements.LatestInventory(ctx, warehouseID)
	if err != nil {
		return nil, &domain.StoreError{Op: "period_lock", Err: err}
	}
	status := &PeriodLockStatus{WarehouseID: warehouseID}
	if latest != nil {
		d := latest.Date
		status.Locked = true
		status.LockedUntil = &d
		status.MovementID = latest.ID
	}
	return status, nil
}
