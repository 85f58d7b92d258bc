package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// writeError traduce la taxonomía de errores del libro a HTTP:
//
//	ValidationError -> 400 VALIDATION
//	LockError       -> 409 PERIOD_LOCKED (+ locked_until)
//	NotFound        -> 404 NOT_FOUND
//	StoreError      -> 500 STORE_ERROR (reintentable)
//	otro            -> 500 INTERNAL
func writeError(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	var lErr *domain.LockError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: err.Error(), Field: vErr.Field,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &lErr):
		until := lErr.LockedUntil
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "PERIOD_LOCKED", Message: err.Error(), LockedUntil: &until,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrStore):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "STORE_ERROR", Message: "la transacción falló y no se aplicó ningún cambio; puede reintentar",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
