package domain

import (
	"errors"
	"fmt"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrPeriodLocked = errors.New("periodo cerrado por un inventario físico")
	ErrStore        = errors.New("fallo de la transacción en el almacenamiento")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
)

// ValidationError describe un dato de entrada mal formado.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError el recurso pedido no existe.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// LockError indica que la operación tocaría un periodo ya cerrado por un conteo de inventario.
// LockedUntil es la fecha del inventario que bloquea.
type LockError struct {
	WarehouseID string
	LockedUntil time.Time
}

func (e *LockError) Error() string {
	return fmt.Sprintf("la bodega %s tiene un inventario del %s; no se pueden modificar movimientos en esa fecha o anteriores",
		e.WarehouseID, e.LockedUntil.Format("2006-01-02"))
}

func (e *LockError) Unwrap() error { return ErrPeriodLocked }

// StoreError envuelve un fallo de la transacción subyacente. La transacción se revierte
// completa, así que reintentar es seguro.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrStore) sin perder la causa original.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// IsDomainError devuelve true si err pertenece a la taxonomía que se expone tal cual al cliente.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrPeriodLocked) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStore)
}
