package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// Nombres de operación (logs y métricas).
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRestore = "restore"
	OpRebuild = "rebuild"
)

// MovementInput datos editables de un movimiento.
// En inventory cada línea trae ActualQty; el delta (Qty) lo calcula el motor.
type MovementInput struct {
	Type           entity.MovementType
	Date           time.Time
	WarehouseID    entity.WarehouseID
	ToWarehouseID  entity.WarehouseID
	Items          []entity.MovementItem
	SupplierID     string
	TotalCost      decimal.Decimal
	PaymentStatus  string
	PaidAmount     decimal.Decimal
	PaymentMethod  string
	MoneyAccountID string
	Description    string
	ReferenceID    string
}

// LedgerOption configura el motor.
type LedgerOption func(*Ledger)

// WithClock reemplaza el reloj (pruebas).
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator reemplaza el generador de ids de movimientos.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(l *Ledger) { l.newID = newID }
}

// Ledger motor del libro de inventario: crea, edita, elimina y restaura movimientos
// manteniendo los saldos en la misma transacción.
// Orden de bloqueos en cada escritura: lado compartido del libro, fila del movimiento
// (si ya existe) y bodegas involucradas. Así el chequeo de cierre y la aritmética de saldos
// quedan serializados por bodega y nunca se actúa sobre una copia vieja del movimiento.
type Ledger struct {
	txRunner TxRunner
	shifts   ShiftProvider
	locks    *PeriodLockChecker
	log      *logger.Logger
	metrics  *metrics.LedgerMetrics
	now      func() time.Time
	newID    func() string
}

// NewLedger construye el motor. shifts, log y m pueden ser nil.
func NewLedger(txRunner TxRunner, shifts ShiftProvider, log *logger.Logger, m *metrics.LedgerMetrics, opts ...LedgerOption) *Ledger {
	if shifts == nil {
		shifts = NoShift
	}
	if log == nil {
		log = logger.Nop()
	}
	l := &Ledger{
		txRunner: txRunner,
		shifts:   shifts,
		locks:    &PeriodLockChecker{},
		log:      log.Component("ledger"),
		metrics:  m,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create valida, verifica el cierre de periodo, inserta el movimiento y aplica su efecto.
func (l *Ledger) Create(ctx context.Context, in MovementInput) (string, error) {
	start := time.Now()
	now := l.now()
	m := in.movement()
	m.ID = l.newID()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := inventory.ValidateMovement(m); err != nil {
		return "", l.finish(OpCreate, m, start, err)
	}
	shiftID, ok, err := l.shifts.CurrentOpenShift(ctx)
	if err != nil {
		return "", l.finish(OpCreate, m, start, err)
	}
	if ok {
		m.ShiftID = shiftID
	}

	err = l.txRunner.Run(ctx, func(ctx context.Context, s Stores) error {
		if err := s.Movements.LockWriter(ctx); err != nil {
			return err
		}
		if err := s.Movements.LockWarehouses(ctx, m.Warehouses()...); err != nil {
			return err
		}
		if err := checkWarehouses(ctx, s, m); err != nil {
			return err
		}
		if err := l.locks.CheckMovement(ctx, s.Movements, m); err != nil {
			return err
		}
		if err := computeInventoryDeltas(ctx, s, m); err != nil {
			return err
		}
		if err := s.Movements.Create(ctx, m); err != nil {
			return err
		}
		return adjust(ctx, s, inventory.ApplyDeltas, m)
	})
	if err != nil {
		return "", l.finish(OpCreate, m, start, err)
	}
	return m.ID, l.finish(OpCreate, m, start, nil)
}

// Update revierte el efecto anterior, guarda los campos nuevos y aplica el efecto nuevo.
// El tipo no cambia. Se verifica el cierre de la fecha/bodega vieja y de la nueva.
// Un movimiento eliminado se actualiza sin tocar saldos.
func (l *Ledger) Update(ctx context.Context, id string, in MovementInput) error {
	start := time.Now()
	var updated *entity.InventoryMovement
	err := l.txRunner.Run(ctx, func(ctx context.Context, s Stores) error {
		if err := s.Movements.LockWriter(ctx); err != nil {
			return err
		}
		old, err := s.Movements.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return &domain.NotFoundError{Resource: "movimiento", ID: id}
		}
		m := in.movement()
		m.ID = old.ID
		m.Type = old.Type
		m.ShiftID = old.ShiftID
		m.IsDeleted = old.IsDeleted
		m.CreatedAt = old.CreatedAt
		m.UpdatedAt = l.now()
		updated = m
		if err := inventory.ValidateMovement(m); err != nil {
			return err
		}

		if err := s.Movements.LockWarehouses(ctx, append(old.Warehouses(), m.Warehouses()...)...); err != nil {
			return err
		}
		if err := checkWarehouses(ctx, s, m); err != nil {
			return err
		}
		if err := l.locks.CheckMovement(ctx, s.Movements, old); err != nil {
			return err
		}
		if err := l.locks.CheckMovement(ctx, s.Movements, m); err != nil {
			return err
		}

		if !old.IsDeleted {
			if err := adjust(ctx, s, inventory.RevertDeltas, old); err != nil {
				return err
			}
		}
		// El delta del conteo se recalcula contra el saldo ya sin el efecto anterior.
		if err := computeInventoryDeltas(ctx, s, m); err != nil {
			return err
		}
		if err := s.Movements.Update(ctx, m); err != nil {
			return err
		}
		if m.IsDeleted {
			return nil
		}
		return adjust(ctx, s, inventory.ApplyDeltas, m)
	})
	if updated == nil {
		updated = &entity.InventoryMovement{ID: id}
	}
	return l.finish(OpUpdate, updated, start, err)
}

// Delete revierte el efecto y marca el movimiento como eliminado.
// Eliminar un movimiento ya eliminado no hace nada.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	start := time.Now()
	target := &entity.InventoryMovement{ID: id}
	err := l.txRunner.Run(ctx, func(ctx context.Context, s Stores) error {
		if err := s.Movements.LockWriter(ctx); err != nil {
			return err
		}
		m, err := s.Movements.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return &domain.NotFoundError{Resource: "movimiento", ID: id}
		}
		target = m
		if err := s.Movements.LockWarehouses(ctx, m.Warehouses()...); err != nil {
			return err
		}
		if err := l.locks.CheckMovement(ctx, s.Movements, m); err != nil {
			return err
		}
		if m.IsDeleted {
			return nil
		}
		if err := adjust(ctx, s, inventory.RevertDeltas, m); err != nil {
			return err
		}
		return s.Movements.SetDeleted(ctx, m.ID, true, l.now())
	})
	return l.finish(OpDelete, target, start, err)
}

// Restore vuelve a aplicar el efecto guardado y quita la marca de eliminado.
// No revisa el cierre de periodo. Restaurar un movimiento activo no hace nada.
func (l *Ledger) Restore(ctx context.Context, id string) error {
	start := time.Now()
	target := &entity.InventoryMovement{ID: id}
	err := l.txRunner.Run(ctx, func(ctx context.Context, s Stores) error {
		if err := s.Movements.LockWriter(ctx); err != nil {
			return err
		}
		m, err := s.Movements.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return &domain.NotFoundError{Resource: "movimiento", ID: id}
		}
		target = m
		if !m.IsDeleted {
			return nil
		}
		if err := s.Movements.LockWarehouses(ctx, m.Warehouses()...); err != nil {
			return err
		}
		if err := adjust(ctx, s, inventory.ApplyDeltas, m); err != nil {
			return err
		}
		return s.Movements.SetDeleted(ctx, m.ID, false, l.now())
	})
	return l.finish(OpRestore, target, start, err)
}

func (in MovementInput) movement() *entity.InventoryMovement {
	items := make([]entity.MovementItem, len(in.Items))
	copy(items, in.Items)
	return &entity.InventoryMovement{
		Type:           in.Type,
		Date:           in.Date,
		WarehouseID:    in.WarehouseID,
		ToWarehouseID:  in.ToWarehouseID,
		Items:          items,
		SupplierID:     in.SupplierID,
		TotalCost:      in.TotalCost,
		PaymentStatus:  in.PaymentStatus,
		PaidAmount:     in.PaidAmount,
		PaymentMethod:  in.PaymentMethod,
		MoneyAccountID: in.MoneyAccountID,
		Description:    in.Description,
		ReferenceID:    in.ReferenceID,
	}
}

// checkWarehouses rechaza bodegas que el directorio no conoce. Con el directorio vacío
// se acepta cualquier id.
func checkWarehouses(ctx context.Context, s Stores, m *entity.InventoryMovement) error {
	var directory []*entity.Warehouse
	for _, id := range m.Warehouses() {
		w, err := s.Warehouses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w != nil {
			continue
		}
		if directory == nil {
			if directory, err = s.Warehouses.List(ctx); err != nil {
				return err
			}
		}
		if len(directory) > 0 {
			return domain.NewValidationError("warehouseId", "bodega desconocida: "+string(id))
		}
	}
	return nil
}

// computeInventoryDeltas fija Qty = real - teórico en cada línea de un inventario.
// Las líneas repetidas de un mismo insumo encadenan su teórico con la anterior.
func computeInventoryDeltas(ctx context.Context, s Stores, m *entity.InventoryMovement) error {
	if m.Type != entity.MovementTypeInventory {
		return nil
	}
	pending := make(map[entity.BalanceKey]decimal.Decimal)
	for i := range m.Items {
		it := &m.Items[i]
		key := entity.BalanceKey{WarehouseID: m.WarehouseID, ItemID: it.ItemID}
		theoretical, ok := pending[key]
		if !ok {
			bal, err := s.Balances.GetForUpdate(ctx, key)
			if err != nil {
				return err
			}
			theoretical = bal.Quantity
		}
		it.Qty = inventory.InventoryDelta(*it.ActualQty, theoretical)
		pending[key] = *it.ActualQty
	}
	return nil
}

func adjust(ctx context.Context, s Stores, effect func(*entity.InventoryMovement) ([]entity.BalanceDelta, error), m *entity.InventoryMovement) error {
	deltas, err := effect(m)
	if err != nil {
		return err
	}
	inventory.SortDeltas(deltas)
	for _, d := range deltas {
		if err := s.Balances.Adjust(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// finish clasifica el error, lo envuelve en StoreError si no es de dominio, y registra log y métricas.
func (l *Ledger) finish(op string, m *entity.InventoryMovement, start time.Time, err error) error {
	result := metrics.ResultOK
	if err != nil {
		err = asLedgerError(op, err)
		result = resultOf(err)
	}
	l.metrics.Observe(op, result, time.Since(start))

	switch {
	case err == nil:
		l.log.Info().Str("op", op).Str("movement_id", m.ID).Str("type", string(m.Type)).
			Str("warehouse_id", string(m.WarehouseID)).Msg("movimiento registrado")
	case result == metrics.ResultError:
		l.log.Error().Err(err).Str("op", op).Str("movement_id", m.ID).Msg("fallo de transacción")
	default:
		l.log.Warn().Err(err).Str("op", op).Str("movement_id", m.ID).Msg("operación rechazada")
	}
	return err
}

// asLedgerError deja pasar los errores de la taxonomía y envuelve el resto en StoreError.
func asLedgerError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrPeriodLocked) ||
		errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.ResultValidation
	case errors.Is(err, domain.ErrPeriodLocked):
		return metrics.ResultLocked
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
