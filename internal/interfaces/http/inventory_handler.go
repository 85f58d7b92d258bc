package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	ledger  *inventory.Ledger
	queries *inventory.QueryUseCase
	locks   *inventory.PeriodLockChecker
	rebuild *inventory.RebuildUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	ledger *inventory.Ledger,
	queries *inventory.QueryUseCase,
	locks *inventory.PeriodLockChecker,
	rebuild *inventory.RebuildUseCase,
) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, queries: queries, locks: locks, rebuild: rebuild}
}

// ListMovements godoc
// @Summary      Listar movimientos de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        type          query  string  false  "supply | writeoff | move | sale | inventory"
// @Param        warehouse_id  query  string  false  "Bodega (origen o destino)"
// @Param        item_id       query  string  false  "Insumo"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to            query  string  false  "Hasta (YYYY-MM-DD incluye el día completo)"
// @Param        is_deleted    query  bool    false  "Filtrar por eliminados"
// @Param        limit         query  int     false  "Límite"  default(100)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.ListMovementsQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, domain.NewValidationError("", "parámetros inválidos"))
	}
	filter, err := q.ToFilter()
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.queries.ListMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.queries.CountMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{
		Success:   true,
		Movements: make([]dto.MovementResponse, len(list)),
		Page:      dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}
	for i, m := range list {
		out.Movements[i] = dto.NewMovementResponse(m)
	}
	return c.JSON(out)
}

// CreateMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Inserta el movimiento y aplica su efecto sobre los saldos en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "type, date, warehouse_id, to_warehouse_id (move), items"
// @Success      201   {object}  dto.CreateMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var req dto.MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if req.Type == "" {
		return writeError(c, domain.NewValidationError("type", "es requerido"))
	}
	in, err := req.ToInput()
	if err != nil {
		return writeError(c, err)
	}
	id, err := h.ledger.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateMovementResponse{Success: true, ID: id})
}

// UpdateMovement godoc
// @Summary      Editar movimiento de inventario
// @Description  Revierte el efecto anterior y aplica el nuevo. El tipo no se puede cambiar.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del movimiento"
// @Param        body  body  dto.MovementRequest  true  "Campos nuevos"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [put]
func (h *InventoryHandler) UpdateMovement(c *fiber.Ctx) error {
	id := dto.NormalizeID(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var req dto.MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in, err := req.ToInput()
	if err != nil {
		return writeError(c, err)
	}
	if err := h.ledger.Update(c.UserContext(), id, in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "movimiento actualizado"})
}

// DeleteMovement godoc
// @Summary      Eliminar movimiento (lógico)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [delete]
func (h *InventoryHandler) DeleteMovement(c *fiber.Ctx) error {
	id := dto.NormalizeID(c.Params("id"))
	if err := h.ledger.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "movimiento eliminado"})
}

// RestoreMovement godoc
// @Summary      Restaurar movimiento eliminado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/restore [post]
func (h *InventoryHandler) RestoreMovement(c *fiber.Ctx) error {
	id := dto.NormalizeID(c.Params("id"))
	if err := h.ledger.Restore(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "movimiento restaurado"})
}

// ListBalances godoc
// @Summary      Saldos actuales por bodega e insumo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = todas."
// @Success      200  {object}  dto.BalanceListResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) ListBalances(c *fiber.Ctx) error {
	wh := entity.WarehouseID(dto.NormalizeID(c.Query("warehouse_id")))
	list, err := h.queries.ListBalances(c.UserContext(), wh)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBalanceListResponse(list))
}

// LastPrices godoc
// @Summary      Último costo de compra por insumo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LastPricesResponse
// @Router       /api/inventory/last-prices [get]
func (h *InventoryHandler) LastPrices(c *fiber.Ctx) error {
	prices, err := h.queries.LastPrices(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLastPricesResponse(prices))
}

// PeriodLock godoc
// @Summary      Cierre de periodo vigente de una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Success      200  {object}  dto.PeriodLockResponse
// @Router       /api/inventory/period-lock/{warehouse_id} [get]
func (h *InventoryHandler) PeriodLock(c *fiber.Ctx) error {
	wh := entity.WarehouseID(dto.NormalizeID(c.Params("warehouse_id")))
	status, err := h.locks.Status(c.UserContext(), wh)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PeriodLockResponse{
		Success:     true,
		WarehouseID: string(status.WarehouseID),
		Locked:      status.Locked,
		LockedUntil: status.LockedUntil,
		MovementID:  status.MovementID,
	})
}

// Rebuild godoc
// @Summary      Reconstruir saldos desde el historial
// @Description  Regenera las ventas desde los recibos y recalcula todos los saldos. Solo admin.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/rebuild [post]
func (h *InventoryHandler) Rebuild(c *fiber.Ctx) error {
	report, err := h.rebuild.Run(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RebuildResponse{Success: true, Status: "complete", Report: report})
}
