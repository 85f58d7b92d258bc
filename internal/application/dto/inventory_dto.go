package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DefaultMovementLimit tamaño de página por defecto del listado de movimientos.
const DefaultMovementLimit = 100

// MovementItemRequest línea de un movimiento.
// En inventory se envía actual_qty (cantidad contada); qty se ignora.
type MovementItemRequest struct {
	ItemID    string           `json:"item_id" validate:"required"`
	ItemName  string           `json:"item_name"`
	Unit      string           `json:"unit"`
	Qty       decimal.Decimal  `json:"qty"`
	Cost      decimal.Decimal  `json:"cost"`
	ActualQty *decimal.Decimal `json:"actual_qty,omitempty"`
}

// MovementRequest body para POST /api/inventory/movements y PUT /api/inventory/movements/:id.
// En PUT el tipo se ignora: el movimiento conserva el original.
type MovementRequest struct {
	Type           string                `json:"type" validate:"omitempty,oneof=supply writeoff move sale inventory"`
	Date           string                `json:"date" validate:"required,ledgerdate"`
	WarehouseID    string                `json:"warehouse_id" validate:"required"`
	ToWarehouseID  string                `json:"to_warehouse_id,omitempty"`
	Items          []MovementItemRequest `json:"items" validate:"required,min=1,dive"`
	SupplierID     string                `json:"supplier_id,omitempty"`
	TotalCost      decimal.Decimal       `json:"total_cost"`
	PaymentStatus  string                `json:"payment_status,omitempty"`
	PaidAmount     decimal.Decimal       `json:"paid_amount"`
	PaymentMethod  string                `json:"payment_method,omitempty"`
	MoneyAccountID string                `json:"money_account_id,omitempty"`
	Description    string                `json:"description,omitempty"`
	ReferenceID    string                `json:"reference_id,omitempty"`
}

// ToInput valida el cuerpo y lo convierte a la entrada del motor, normalizando ids.
func (r *MovementRequest) ToInput() (inventory.MovementInput, error) {
	if err := Validate(r); err != nil {
		return inventory.MovementInput{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return inventory.MovementInput{}, err
	}
	items := make([]entity.MovementItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = entity.MovementItem{
			ItemID:    entity.ItemID(NormalizeID(it.ItemID)),
			ItemName:  it.ItemName,
			Unit:      it.Unit,
			Qty:       it.Qty,
			Cost:      it.Cost,
			ActualQty: it.ActualQty,
		}
	}
	return inventory.MovementInput{
		Type:           entity.MovementType(r.Type),
		Date:           date,
		WarehouseID:    entity.WarehouseID(NormalizeID(r.WarehouseID)),
		ToWarehouseID:  entity.WarehouseID(NormalizeID(r.ToWarehouseID)),
		Items:          items,
		SupplierID:     NormalizeID(r.SupplierID),
		TotalCost:      r.TotalCost,
		PaymentStatus:  r.PaymentStatus,
		PaidAmount:     r.PaidAmount,
		PaymentMethod:  r.PaymentMethod,
		MoneyAccountID: NormalizeID(r.MoneyAccountID),
		Description:    r.Description,
		ReferenceID:    NormalizeID(r.ReferenceID),
	}, nil
}

// ListMovementsQuery filtros de GET /api/inventory/movements.
type ListMovementsQuery struct {
	Type        string `query:"type" validate:"omitempty,oneof=supply writeoff move sale inventory"`
	WarehouseID string `query:"warehouse_id"`
	ItemID      string `query:"item_id"`
	From        string `query:"from" validate:"omitempty,ledgerdate"`
	To          string `query:"to" validate:"omitempty,ledgerdate"`
	IsDeleted   *bool  `query:"is_deleted"`
	Limit       int    `query:"limit" validate:"min=0,max=500"`
	Offset      int    `query:"offset" validate:"min=0"`
}

// ToFilter valida y convierte los filtros. Un "to" sin hora incluye el día completo.
func (q *ListMovementsQuery) ToFilter() (entity.MovementFilter, error) {
	if err := Validate(q); err != nil {
		return entity.MovementFilter{}, err
	}
	f := entity.MovementFilter{
		Type:        entity.MovementType(q.Type),
		WarehouseID: entity.WarehouseID(NormalizeID(q.WarehouseID)),
		ItemID:      entity.ItemID(NormalizeID(q.ItemID)),
		IsDeleted:   q.IsDeleted,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = DefaultMovementLimit
	}
	if q.From != "" {
		from, _ := ParseDate(q.From)
		f.From = &from
	}
	if q.To != "" {
		to, _ := ParseDate(q.To)
		if len(q.To) == len(dateOnly) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &to
	}
	return f, nil
}

// MovementItemResponse línea de un movimiento en respuestas.
type MovementItemResponse struct {
	ItemID    string           `json:"item_id"`
	ItemName  string           `json:"item_name"`
	Unit      string           `json:"unit"`
	Qty       decimal.Decimal  `json:"qty"`
	Cost      decimal.Decimal  `json:"cost"`
	ActualQty *decimal.Decimal `json:"actual_qty,omitempty"`
}

// MovementResponse movimiento en respuestas.
type MovementResponse struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Date           time.Time              `json:"date"`
	WarehouseID    string                 `json:"warehouse_id"`
	ToWarehouseID  string                 `json:"to_warehouse_id,omitempty"`
	Items          []MovementItemResponse `json:"items"`
	SupplierID     string                 `json:"supplier_id,omitempty"`
	TotalCost      decimal.Decimal        `json:"total_cost"`
	PaymentStatus  string                 `json:"payment_status,omitempty"`
	PaidAmount     decimal.Decimal        `json:"paid_amount"`
	PaymentMethod  string                 `json:"payment_method,omitempty"`
	MoneyAccountID string                 `json:"money_account_id,omitempty"`
	Description    string                 `json:"description,omitempty"`
	ReferenceID    string                 `json:"reference_id,omitempty"`
	ShiftID        string                 `json:"shift_id,omitempty"`
	IsDeleted      bool                   `json:"is_deleted"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewMovementResponse arma la respuesta de un movimiento.
func NewMovementResponse(m *entity.InventoryMovement) MovementResponse {
	items := make([]MovementItemResponse, len(m.Items))
	for i, it := range m.Items {
		items[i] = MovementItemResponse{
			ItemID:    string(it.ItemID),
			ItemName:  it.ItemName,
			Unit:      it.Unit,
			Qty:       it.Qty,
			Cost:      it.Cost,
			ActualQty: it.ActualQty,
		}
	}
	return MovementResponse{
		ID:             m.ID,
		Type:           string(m.Type),
		Date:           m.Date,
		WarehouseID:    string(m.WarehouseID),
		ToWarehouseID:  string(m.ToWarehouseID),
		Items:          items,
		SupplierID:     m.SupplierID,
		TotalCost:      m.TotalCost,
		PaymentStatus:  m.PaymentStatus,
		PaidAmount:     m.PaidAmount,
		PaymentMethod:  m.PaymentMethod,
		MoneyAccountID: m.MoneyAccountID,
		Description:    m.Description,
		ReferenceID:    m.ReferenceID,
		ShiftID:        m.ShiftID,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// MovementListResponse respuesta de GET /api/inventory/movements.
type MovementListResponse struct {
	Success   bool               `json:"success"`
	Movements []MovementResponse `json:"movements"`
	Page      PageResponse       `json:"page"`
}

// CreateMovementResponse respuesta de POST /api/inventory/movements.
type CreateMovementResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// BalanceResponse saldo de un insumo en una bodega.
type BalanceResponse struct {
	WarehouseID string          `json:"warehouse_id"`
	ItemID      string          `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	LastCost    decimal.Decimal `json:"last_cost"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BalanceListResponse respuesta de GET /api/inventory/balances.
type BalanceListResponse struct {
	Success  bool              `json:"success"`
	Balances []BalanceResponse `json:"balances"`
}

// NewBalanceListResponse arma la respuesta de saldos.
func NewBalanceListResponse(list []*entity.InventoryBalance) BalanceListResponse {
	out := BalanceListResponse{Success: true, Balances: make([]BalanceResponse, len(list))}
	for i, b := range list {
		out.Balances[i] = BalanceResponse{
			WarehouseID: string(b.WarehouseID),
			ItemID:      string(b.ItemID),
			ItemName:    b.ItemName,
			Unit:        b.Unit,
			Quantity:    b.Quantity,
			LastCost:    b.LastCost,
			UpdatedAt:   b.UpdatedAt,
		}
	}
	return out
}

// LastPricesResponse respuesta de GET /api/inventory/last-prices, indexada por item_id.
type LastPricesResponse struct {
	Success bool                        `json:"success"`
	Prices  map[string]entity.LastPrice `json:"prices"`
}

// NewLastPricesResponse arma la respuesta de últimos precios.
func NewLastPricesResponse(prices map[entity.ItemID]entity.LastPrice) LastPricesResponse {
	out := LastPricesResponse{Success: true, Prices: make(map[string]entity.LastPrice, len(prices))}
	for id, p := range prices {
		out.Prices[string(id)] = p
	}
	return out
}

// PeriodLockResponse respuesta de GET /api/inventory/period-lock/:warehouse_id.
type PeriodLockResponse struct {
	Success     bool       `json:"success"`
	WarehouseID string     `json:"warehouse_id"`
	Locked      bool       `json:"locked"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	MovementID  string     `json:"movement_id,omitempty"`
}

// RebuildResponse respuesta de POST /api/inventory/rebuild.
type RebuildResponse struct {
	Success bool                     `json:"success"`
	Status  string                   `json:"status"`
	Report  *inventory.RebuildReport `json:"report"`
}
